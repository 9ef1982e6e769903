package csvimport

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

var templateSample = map[string]string{
	FieldID:                 "1001",
	FieldName:               "Main Air Compressor",
	FieldType:               "Compressor",
	FieldManufacturer:       "Atlas Copco",
	FieldModel:              "GA 37",
	FieldSerialNumber:       "AC-2023-0451",
	FieldLocation:           "Plant 2, Bay 4",
	FieldOrganization:       "North Operations",
	FieldOperatingHours:     "12500",
	FieldCondition:          "good",
	FieldStatus:             "operational",
	FieldIndustry:           "manufacturing",
	FieldYearManufactured:   "2019",
	FieldPurchaseDate:       "2019-06-15",
	FieldPurchasePrice:      "48500.00",
	FieldWarrantyExpiration: "2024-06-15",
	FieldLastServiceDate:    "2024-11-02",
	FieldNextServiceDate:    "2025-05-02",
	FieldNotes:              "Quarterly oil analysis",
}

// Template renders a CSV with every schema column and one example row.
func Template(schema Schema) (string, error) {
	fields := schema.Fields()
	sample := make([]string, len(fields))
	for i, f := range fields {
		sample[i] = templateSample[f]
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(fields); err != nil {
		return "", fmt.Errorf("write template header: %w", err)
	}
	if err := w.Write(sample); err != nil {
		return "", fmt.Errorf("write template sample: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush template: %w", err)
	}
	return buf.String(), nil
}
