package csvimport

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ukydev/asset-maintenance/internal/models"
)

// AssetRow is an import-ready asset together with the file row it came from.
type AssetRow struct {
	Row   int          `json:"row"`
	Asset models.Asset `json:"asset"`
}

// ToAssets converts parsed rows into typed assets. Values that fail to
// convert are left at their zero value; callers are expected to gate on
// Validate first.
func ToAssets(p *Parsed) []AssetRow {
	out := make([]AssetRow, 0, len(p.Rows))
	for _, row := range p.Rows {
		v := row.Values
		a := models.Asset{
			Name:         v[FieldName],
			Type:         v[FieldType],
			Manufacturer: v[FieldManufacturer],
			Model:        v[FieldModel],
			SerialNumber: v[FieldSerialNumber],
			Location:     v[FieldLocation],
			Organization: v[FieldOrganization],
			Condition:    strings.ToLower(v[FieldCondition]),
			Status:       strings.ToLower(v[FieldStatus]),
			Industry:     strings.ToLower(v[FieldIndustry]),
			Notes:        v[FieldNotes],

			PurchaseDate:       optionalDate(v[FieldPurchaseDate]),
			WarrantyExpiration: optionalDate(v[FieldWarrantyExpiration]),
			LastServiceDate:    optionalDate(v[FieldLastServiceDate]),
			NextServiceDate:    optionalDate(v[FieldNextServiceDate]),
		}
		a.ID, _ = strconv.Atoi(v[FieldID])
		a.OperatingHours, _ = strconv.Atoi(v[FieldOperatingHours])
		a.YearManufactured, _ = strconv.Atoi(v[FieldYearManufactured])
		a.PurchasePrice, _ = strconv.ParseFloat(v[FieldPurchasePrice], 64)
		if a.Status == "" {
			a.Status = models.AssetStatusOperational
		}
		out = append(out, AssetRow{Row: row.Number, Asset: a})
	}
	return out
}

func optionalDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return nil
	}
	return &t
}

// CheckAsset re-applies the blocking rules to an already converted asset.
// It returns the first problem found, or "" when the asset may be stored.
func CheckAsset(a models.Asset) string {
	required := []struct{ field, value string }{
		{FieldName, a.Name},
		{FieldType, a.Type},
		{FieldManufacturer, a.Manufacturer},
		{FieldModel, a.Model},
		{FieldLocation, a.Location},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return "Missing required field: " + r.field
		}
	}
	switch {
	case a.ID != 0 && (a.ID < MinAssetID || a.ID > MaxAssetID):
		return fmt.Sprintf("Invalid ID: must be between %d and %d", MinAssetID, MaxAssetID)
	case utf8.RuneCountInString(a.SerialNumber) > MaxSerialLength:
		return fmt.Sprintf("Invalid serial number: longer than %d characters", MaxSerialLength)
	case a.OperatingHours < 0 || a.OperatingHours > MaxOperatingHours:
		return fmt.Sprintf("Invalid operating hours: must be between 0 and %d", MaxOperatingHours)
	case a.PurchasePrice < 0 || a.PurchasePrice > MaxPurchasePrice:
		return fmt.Sprintf("Invalid purchase price: must be between 0 and %d", MaxPurchasePrice)
	case a.Status != "" && !models.IsValidAssetStatus(a.Status):
		return enumIssue(FieldStatus, a.Status, models.AssetStatuses)
	case a.Condition != "" && !models.IsValidCondition(a.Condition):
		return enumIssue(FieldCondition, a.Condition, models.Conditions)
	case a.Industry != "" && !models.IsValidIndustry(a.Industry):
		return enumIssue(FieldIndustry, a.Industry, models.Industries)
	}
	return ""
}
