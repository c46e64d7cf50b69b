package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/caseprep/practice-service/internal/models"
	"github.com/caseprep/practice-service/internal/repositories"
	"github.com/caseprep/practice-service/internal/utils"
	"github.com/caseprep/practice-service/internal/validator"
)

// partColumns is the shared header layout for both CSV and Excel files.
// Simple choice kinds can be authored with the option_a..option_d shorthand;
// every kind accepts a raw JSON payload in content_json.
var partColumns = []string{
	"title", "kind", "body_content",
	"option_a", "option_b", "option_c", "option_d", "correct_answer",
	"content_json",
	"max_attempts", "can_skip", "skip_message",
	"correct_feedback", "incorrect_feedback",
}

// ImportExportService handles bulk authoring of module parts through
// CSV and Excel files.
type ImportExportService interface {
	ImportPartsFromFile(ctx context.Context, moduleID uint, file multipart.File, filename string, userID string) (*models.ImportSummary, error)
	ImportPartsFromCSV(ctx context.Context, moduleID uint, reader io.Reader, userID string) (*models.ImportSummary, error)
	ImportPartsFromExcel(ctx context.Context, moduleID uint, reader io.Reader, userID string) (*models.ImportSummary, error)

	ExportParts(ctx context.Context, req *models.ExportRequest, userID string) ([]byte, string, error)
}

type importExportService struct {
	modules   ModuleService
	repo      repositories.Repository
	logger    utils.Logger
	validator *validator.Validator
}

func NewImportExportService(modules ModuleService, repo repositories.Repository, logger utils.Logger, v *validator.Validator) ImportExportService {
	return &importExportService{
		modules:   modules,
		repo:      repo,
		logger:    logger,
		validator: v,
	}
}

// ===== IMPORT OPERATIONS =====

func (s *importExportService) ImportPartsFromFile(ctx context.Context, moduleID uint, file multipart.File, filename string, userID string) (*models.ImportSummary, error) {
	s.logger.Info("Starting part import", "module_id", moduleID, "filename", filename, "user_id", userID)

	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".csv":
		return s.ImportPartsFromCSV(ctx, moduleID, file, userID)
	case ".xlsx", ".xls":
		return s.ImportPartsFromExcel(ctx, moduleID, file, userID)
	default:
		return nil, NewValidationError("file", "unsupported file format", ext)
	}
}

func (s *importExportService) ImportPartsFromCSV(ctx context.Context, moduleID uint, reader io.Reader, userID string) (*models.ImportSummary, error) {
	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return s.importRows(ctx, moduleID, records, userID)
}

func (s *importExportService) ImportPartsFromExcel(ctx context.Context, moduleID uint, reader io.Reader, userID string) (*models.ImportSummary, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, NewValidationError("file", "Excel file has no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}
	return s.importRows(ctx, moduleID, rows, userID)
}

// importRows is the shared CSV/Excel pipeline: validate the header, parse
// each data row into a part, validate its content, and append the valid
// parts to the module in one transaction.
func (s *importExportService) importRows(ctx context.Context, moduleID uint, rows [][]string, userID string) (*models.ImportSummary, error) {
	start := time.Now()

	module, err := s.modules.GetByID(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	if module.CreatedBy != userID {
		return nil, NewPermissionError(userID, moduleID, "module", "import_parts", "not owned by user")
	}
	if module.Status == models.ModuleArchived {
		return nil, ErrModuleNotEditable
	}

	if len(rows) < 2 {
		return nil, NewValidationError("file", "file must have a header row and at least one data row", len(rows))
	}

	headerMap := make(map[string]int)
	for i, header := range rows[0] {
		headerMap[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, col := range []string{"title", "kind"} {
		if _, ok := headerMap[col]; !ok {
			return nil, NewValidationError("headers", fmt.Sprintf("missing required column: %s", col), col)
		}
	}

	existing, err := s.repo.Module().GetParts(ctx, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load parts: %w", err)
	}

	summary := &models.ImportSummary{TotalRows: len(rows) - 1}
	var parts []*models.ModulePart

	for rowIndex, record := range rows[1:] {
		part, rowErrors := s.parseRow(record, headerMap, rowIndex+2)
		if len(rowErrors) > 0 {
			summary.Errors = append(summary.Errors, rowErrors...)
			summary.ErrorCount++
		} else {
			part.ModuleID = moduleID
			part.Position = len(existing) + len(parts)
			parts = append(parts, part)
			summary.SuccessCount++
		}
		summary.ProcessedRows++
	}

	if len(parts) > 0 {
		err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
			for _, part := range parts {
				if err := txRepo.Module().AddPart(ctx, part); err != nil {
					return fmt.Errorf("failed to add part at position %d: %w", part.Position, err)
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		for _, part := range parts {
			summary.CreatedParts = append(summary.CreatedParts, part.ID)
		}
	}

	summary.ProcessingTime = time.Since(start)

	s.logger.Info("Part import completed",
		"module_id", moduleID,
		"total_rows", summary.TotalRows,
		"success_count", summary.SuccessCount,
		"error_count", summary.ErrorCount)

	return summary, nil
}

func (s *importExportService) parseRow(record []string, headerMap map[string]int, rowNum int) (*models.ModulePart, []models.ImportValidationError) {
	var errs []models.ImportValidationError

	getColumn := func(name string) string {
		if index, ok := headerMap[name]; ok && index < len(record) {
			return strings.TrimSpace(record[index])
		}
		return ""
	}

	title := getColumn("title")
	if title == "" {
		errs = append(errs, models.ImportValidationError{Row: rowNum, Field: "title", Message: "required field"})
		return nil, errs
	}

	kind := models.InteractionKind(strings.ToLower(getColumn("kind")))
	if !validKind(kind) {
		errs = append(errs, models.ImportValidationError{Row: rowNum, Field: "kind", Message: fmt.Sprintf("unknown interaction kind %q", kind)})
		return nil, errs
	}

	content, contentErrs := s.parseContent(kind, getColumn, rowNum)
	if len(contentErrs) > 0 {
		return nil, contentErrs
	}

	part := &models.ModulePart{
		Title:             title,
		BodyContent:       getColumn("body_content"),
		Kind:              kind,
		Content:           content,
		MaxAttempts:       3,
		CorrectFeedback:   getColumn("correct_feedback"),
		IncorrectFeedback: getColumn("incorrect_feedback"),
	}

	if raw := getColumn("max_attempts"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 1 && n <= 10 {
			part.MaxAttempts = n
		} else {
			errs = append(errs, models.ImportValidationError{Row: rowNum, Field: "max_attempts", Message: "must be an integer between 1 and 10"})
		}
	}
	if raw := getColumn("can_skip"); raw != "" {
		canSkip, err := strconv.ParseBool(raw)
		if err != nil {
			errs = append(errs, models.ImportValidationError{Row: rowNum, Field: "can_skip", Message: "must be true or false"})
		}
		part.CanSkip = canSkip
	}
	if msg := getColumn("skip_message"); msg != "" {
		part.SkipMessage = &msg
	}
	if len(errs) > 0 {
		return nil, errs
	}

	if err := s.validator.Content().ValidatePart(part); err != nil {
		errs = append(errs, models.ImportValidationError{Row: rowNum, Field: "content", Message: err.Error()})
		return nil, errs
	}
	return part, nil
}

// parseContent builds the kind-specific answer key. content_json wins when
// present; otherwise the option shorthand covers the simple choice kinds.
func (s *importExportService) parseContent(kind models.InteractionKind, getColumn func(string) string, rowNum int) ([]byte, []models.ImportValidationError) {
	if raw := getColumn("content_json"); raw != "" {
		if !json.Valid([]byte(raw)) {
			return nil, []models.ImportValidationError{{Row: rowNum, Field: "content_json", Message: "invalid JSON"}}
		}
		return []byte(raw), nil
	}

	switch kind {
	case models.ContentOnly:
		return []byte(`{}`), nil

	case models.TrueFalse:
		answer := strings.ToLower(getColumn("correct_answer"))
		if answer != "true" && answer != "false" {
			return nil, []models.ImportValidationError{{Row: rowNum, Field: "correct_answer", Message: "must be 'true' or 'false'"}}
		}
		content, _ := json.Marshal(models.TrueFalseContent{
			Statement:    getColumn("body_content"),
			CorrectValue: answer == "true",
		})
		return content, nil

	case models.SingleChoice, models.MultiChoice, models.ScenarioChoice:
		return s.parseChoiceContent(kind, getColumn, rowNum)

	default:
		return nil, []models.ImportValidationError{{
			Row: rowNum, Field: "content_json",
			Message: fmt.Sprintf("kind %q requires a content_json payload", kind),
		}}
	}
}

func (s *importExportService) parseChoiceContent(kind models.InteractionKind, getColumn func(string) string, rowNum int) ([]byte, []models.ImportValidationError) {
	var options []models.ChoiceOption
	for i, col := range []string{"option_a", "option_b", "option_c", "option_d"} {
		if text := getColumn(col); text != "" {
			options = append(options, models.ChoiceOption{
				ID:   string(rune('a' + i)),
				Text: text,
			})
		}
	}
	if len(options) < 2 {
		return nil, []models.ImportValidationError{{Row: rowNum, Field: "options", Message: "must have at least 2 options"}}
	}

	// Correct answers are letters: "a" or "a,c".
	var correct []string
	for _, part := range strings.Split(strings.ToLower(getColumn("correct_answer")), ",") {
		part = strings.TrimSpace(part)
		if len(part) != 1 || part[0] < 'a' || part[0] > 'd' {
			continue
		}
		if int(part[0]-'a') < len(options) {
			correct = append(correct, part)
		}
	}
	if len(correct) == 0 {
		return nil, []models.ImportValidationError{{Row: rowNum, Field: "correct_answer", Message: "must reference at least one option letter (a-d)"}}
	}

	var content []byte
	switch kind {
	case models.SingleChoice:
		content, _ = json.Marshal(models.SingleChoiceContent{Options: options, CorrectOption: correct[0]})
	case models.MultiChoice:
		content, _ = json.Marshal(models.MultiChoiceContent{Options: options, CorrectOptions: correct})
	case models.ScenarioChoice:
		content, _ = json.Marshal(models.ScenarioChoiceContent{
			Scenario:      getColumn("body_content"),
			Options:       options,
			CorrectChoice: correct[0],
		})
	}
	return content, nil
}

func validKind(kind models.InteractionKind) bool {
	for _, k := range models.AllInteractionKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// ===== EXPORT OPERATIONS =====

func (s *importExportService) ExportParts(ctx context.Context, req *models.ExportRequest, userID string) ([]byte, string, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	module, err := s.modules.GetByID(ctx, req.ModuleID)
	if err != nil {
		return nil, "", err
	}
	if module.CreatedBy != userID {
		return nil, "", NewPermissionError(userID, req.ModuleID, "module", "export_parts", "not owned by user")
	}

	parts, err := s.repo.Module().GetParts(ctx, req.ModuleID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load parts: %w", err)
	}
	parts = filterKinds(parts, req.Kinds)

	switch req.Format {
	case "csv":
		data, err := s.exportCSV(parts, req.IncludeAnswers)
		return data, fmt.Sprintf("module-%d-parts.csv", req.ModuleID), err
	default:
		data, err := s.exportExcel(parts, req.IncludeAnswers)
		return data, fmt.Sprintf("module-%d-parts.xlsx", req.ModuleID), err
	}
}

func (s *importExportService) exportCSV(parts []models.ModulePart, includeAnswers bool) ([]byte, error) {
	var buf strings.Builder
	writer := csv.NewWriter(&buf)

	if err := writer.Write(partColumns); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i := range parts {
		if err := writer.Write(partToRow(&parts[i], includeAnswers)); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return []byte(buf.String()), nil
}

func (s *importExportService) exportExcel(parts []models.ModulePart, includeAnswers bool) ([]byte, error) {
	f := excelize.NewFile()
	sheetName := "Parts"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)

	for i, header := range partColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}
	for rowIndex := range parts {
		for colIndex, value := range partToRow(&parts[rowIndex], includeAnswers) {
			cell, _ := excelize.CoordinatesToCellName(colIndex+1, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

func partToRow(part *models.ModulePart, includeAnswers bool) []string {
	row := make([]string, len(partColumns))
	row[0] = part.Title
	row[1] = string(part.Kind)
	row[2] = part.BodyContent

	if includeAnswers {
		fillChoiceShorthand(part, row)
		row[8] = string(part.Content)
	}

	row[9] = strconv.Itoa(part.MaxAttempts)
	row[10] = strconv.FormatBool(part.CanSkip)
	if part.SkipMessage != nil {
		row[11] = *part.SkipMessage
	}
	row[12] = part.CorrectFeedback
	row[13] = part.IncorrectFeedback
	return row
}

// fillChoiceShorthand mirrors the import shorthand for the choice kinds so
// exported files round-trip through the same columns.
func fillChoiceShorthand(part *models.ModulePart, row []string) {
	var options []models.ChoiceOption
	var correct []string

	switch part.Kind {
	case models.SingleChoice:
		var content models.SingleChoiceContent
		if json.Unmarshal(part.Content, &content) == nil {
			options = content.Options
			correct = []string{content.CorrectOption}
		}
	case models.MultiChoice:
		var content models.MultiChoiceContent
		if json.Unmarshal(part.Content, &content) == nil {
			options = content.Options
			correct = content.CorrectOptions
		}
	case models.ScenarioChoice:
		var content models.ScenarioChoiceContent
		if json.Unmarshal(part.Content, &content) == nil {
			options = content.Options
			correct = []string{content.CorrectChoice}
		}
	case models.TrueFalse:
		var content models.TrueFalseContent
		if json.Unmarshal(part.Content, &content) == nil {
			row[7] = strconv.FormatBool(content.CorrectValue)
		}
		return
	default:
		return
	}

	for i, option := range options {
		if i < 4 {
			row[3+i] = option.Text
		}
	}
	row[7] = strings.Join(correct, ",")
}

func filterKinds(parts []models.ModulePart, kinds []string) []models.ModulePart {
	if len(kinds) == 0 {
		return parts
	}
	wanted := make(map[models.InteractionKind]bool, len(kinds))
	for _, k := range kinds {
		wanted[models.InteractionKind(strings.ToLower(k))] = true
	}
	out := make([]models.ModulePart, 0, len(parts))
	for _, part := range parts {
		if wanted[part.Kind] {
			out = append(out, part)
		}
	}
	return out
}
