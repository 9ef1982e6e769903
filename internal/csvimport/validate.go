package csvimport

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ukydev/asset-maintenance/internal/models"
)

// Numeric bounds enforced per row.
const (
	MinAssetID        = 1
	MaxAssetID        = 999999
	MinYear           = 1900
	MaxOperatingHours = 1000000
	MaxPurchasePrice  = 10000000
)

// Issues containing one of these markers make a row an error. Warning
// messages must not echo cell values, which could contain the markers.
var errorMarkers = []string{"required", "Invalid"}

// Validate checks every parsed row against the schema and the asset rules.
func Validate(p *Parsed, schema Schema, now time.Time) *models.ValidationResult {
	result := &models.ValidationResult{
		MissingRequiredFields:  []string{},
		RowIssues:              []models.RowIssue{},
		DuplicateSerialNumbers: []models.DuplicateSerial{},
	}
	for _, f := range schema.Required {
		if !p.HasHeader(f) {
			result.MissingRequiredFields = append(result.MissingRequiredFields, f)
		}
	}

	firstSeen := make(map[string]int)
	dupIndex := make(map[string]int)
	maxYear := now.Year() + 1

	for _, row := range p.Rows {
		var issues []string
		get := func(f string) (string, bool) {
			v, ok := row.Values[f]
			return v, ok
		}

		if v, ok := get(FieldID); ok && v != "" {
			if !intInRange(v, MinAssetID, MaxAssetID) {
				issues = append(issues, fmt.Sprintf("Invalid ID %q: must be a whole number between %d and %d", v, MinAssetID, MaxAssetID))
			}
		}
		if v, ok := get(FieldYearManufactured); ok && v != "" {
			if !intInRange(v, MinYear, maxYear) {
				issues = append(issues, fmt.Sprintf("Invalid year manufactured %q: must be between %d and %d", v, MinYear, maxYear))
			}
		}
		if v, ok := get(FieldOperatingHours); ok && v != "" {
			if !intInRange(v, 0, MaxOperatingHours) {
				issues = append(issues, fmt.Sprintf("Invalid operating hours %q: must be a whole number between 0 and %d", v, MaxOperatingHours))
			}
		}
		if v, ok := get(FieldPurchasePrice); ok && v != "" {
			if !floatInRange(v, 0, MaxPurchasePrice) {
				issues = append(issues, fmt.Sprintf("Invalid purchase price %q: must be between 0 and %d", v, MaxPurchasePrice))
			}
		}

		if v, ok := get(FieldStatus); ok && v != "" && !models.IsValidAssetStatus(v) {
			issues = append(issues, enumIssue("status", v, models.AssetStatuses))
		}
		if v, ok := get(FieldCondition); ok && v != "" && !models.IsValidCondition(v) {
			issues = append(issues, enumIssue("condition", v, models.Conditions))
		}
		if v, ok := get(FieldIndustry); ok && v != "" && !models.IsValidIndustry(v) {
			issues = append(issues, enumIssue("industry", v, models.Industries))
		}

		for _, f := range schema.Required {
			if v, _ := get(f); v == "" {
				issues = append(issues, "Missing required field: "+f)
			}
		}

		for _, f := range dateFields {
			v, ok := get(f)
			if !ok {
				continue
			}
			if v == "" {
				issues = append(issues, "Empty date field: "+f)
			} else if _, err := ParseDate(v); err != nil {
				issues = append(issues, "Unrecognized date format for "+f)
			}
		}

		serial, _ := get(FieldSerialNumber)
		if serial == "" {
			issues = append(issues, "Missing serial number")
		} else {
			if utf8.RuneCountInString(serial) > MaxSerialLength {
				issues = append(issues, fmt.Sprintf("Invalid serial number: longer than %d characters", MaxSerialLength))
			}
			if first, seen := firstSeen[serial]; seen {
				if i, ok := dupIndex[serial]; ok {
					result.DuplicateSerialNumbers[i].Rows = append(result.DuplicateSerialNumbers[i].Rows, row.Number)
				} else {
					dupIndex[serial] = len(result.DuplicateSerialNumbers)
					result.DuplicateSerialNumbers = append(result.DuplicateSerialNumbers, models.DuplicateSerial{
						SerialNumber: serial,
						Rows:         []int{first, row.Number},
					})
				}
				issues = append(issues, fmt.Sprintf("Duplicate serial number (first seen on row %d)", first))
			} else {
				firstSeen[serial] = row.Number
			}
		}

		result.Summary.TotalRows++
		severity := classify(issues)
		switch severity {
		case models.SeverityError:
			result.Summary.ErrorRows++
		case models.SeverityWarning:
			result.Summary.WarningRows++
		default:
			result.Summary.ValidRows++
			continue
		}

		name, _ := get(FieldName)
		if name == "" {
			name = fmt.Sprintf("Row %d", row.Number)
		}
		result.RowIssues = append(result.RowIssues, models.RowIssue{
			RowNumber: row.Number,
			AssetName: name,
			Issues:    issues,
			Severity:  severity,
		})
	}
	return result
}

// CanImport reports whether a validated file may be submitted. Warnings never block.
func CanImport(result *models.ValidationResult) bool {
	return result != nil && result.Summary.ErrorRows == 0
}

func classify(issues []string) string {
	if len(issues) == 0 {
		return ""
	}
	for _, issue := range issues {
		for _, marker := range errorMarkers {
			if strings.Contains(issue, marker) {
				return models.SeverityError
			}
		}
	}
	return models.SeverityWarning
}

func intInRange(v string, lo, hi int) bool {
	n, err := strconv.Atoi(v)
	return err == nil && n >= lo && n <= hi
}

func floatInRange(v string, lo, hi float64) bool {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	return f >= lo && f <= hi
}

func enumIssue(field, v string, allowed []string) string {
	return fmt.Sprintf("Invalid %s %q: expected one of %s", field, v, strings.Join(allowed, ", "))
}
