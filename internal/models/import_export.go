package models

import "time"

type ImportValidationError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ImportSummary struct {
	TotalRows      int                     `json:"total_rows"`
	ProcessedRows  int                     `json:"processed_rows"`
	SuccessCount   int                     `json:"success_count"`
	ErrorCount     int                     `json:"error_count"`
	CreatedParts   []uint                  `json:"created_parts"`
	Errors         []ImportValidationError `json:"errors"`
	ProcessingTime time.Duration           `json:"processing_time"`
}

type ExportRequest struct {
	ModuleID       uint     `json:"module_id" validate:"required"`
	Format         string   `json:"format" validate:"oneof=xlsx csv"`
	IncludeAnswers bool     `json:"include_answers"`
	Kinds          []string `json:"kinds"`
}
