package models

// Row severities in a validation report.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// RowIssue lists the problems found on a single CSV data row.
type RowIssue struct {
	RowNumber int      `json:"row_number"`
	AssetName string   `json:"asset_name"`
	Issues    []string `json:"issues"`
	Severity  string   `json:"severity"`
}

// DuplicateSerial records a serial number that appears on more than one row.
type DuplicateSerial struct {
	SerialNumber string `json:"serial_number"`
	Rows         []int  `json:"rows"`
}

// ValidationSummary counts rows by outcome. Every row lands in exactly one bucket.
type ValidationSummary struct {
	TotalRows   int `json:"total_rows"`
	ValidRows   int `json:"valid_rows"`
	WarningRows int `json:"warning_rows"`
	ErrorRows   int `json:"error_rows"`
}

// ValidationResult is the report produced for an uploaded asset CSV.
type ValidationResult struct {
	MissingRequiredFields  []string          `json:"missing_required_fields"`
	RowIssues              []RowIssue        `json:"row_issues"`
	DuplicateSerialNumbers []DuplicateSerial `json:"duplicate_serial_numbers"`
	Summary                ValidationSummary `json:"summary"`
}

// ImportWarning is a per-row message reported by the import endpoint.
type ImportWarning struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult is the outcome of submitting validated assets for import.
type ImportResult struct {
	BatchID  string          `json:"batch_id,omitempty"`
	Imported int             `json:"imported"`
	Total    int             `json:"total"`
	Warnings []ImportWarning `json:"warnings,omitempty"`
	Error    string          `json:"error,omitempty"`
}
