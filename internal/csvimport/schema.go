package csvimport

import "strings"

// Canonical asset field names accepted in an import file.
const (
	FieldID                 = "id"
	FieldName               = "name"
	FieldType               = "type"
	FieldManufacturer       = "manufacturer"
	FieldModel              = "model"
	FieldSerialNumber       = "serialNumber"
	FieldLocation           = "location"
	FieldOrganization       = "organization"
	FieldOperatingHours     = "operatingHours"
	FieldCondition          = "condition"
	FieldStatus             = "status"
	FieldIndustry           = "industry"
	FieldYearManufactured   = "yearManufactured"
	FieldPurchaseDate       = "purchaseDate"
	FieldPurchasePrice      = "purchasePrice"
	FieldWarrantyExpiration = "warrantyExpiration"
	FieldLastServiceDate    = "lastServiceDate"
	FieldNextServiceDate    = "nextServiceDate"
	FieldNotes              = "notes"
)

var dateFields = []string{FieldPurchaseDate, FieldWarrantyExpiration, FieldLastServiceDate, FieldNextServiceDate}

// Schema lists the fields an import file must and may contain.
type Schema struct {
	Required []string
	Optional []string
}

// AssetSchema returns the schema for bulk asset imports.
func AssetSchema() Schema {
	return Schema{
		Required: []string{FieldName, FieldType, FieldManufacturer, FieldModel, FieldLocation},
		Optional: []string{
			FieldID, FieldSerialNumber, FieldOrganization, FieldOperatingHours,
			FieldCondition, FieldStatus, FieldIndustry, FieldYearManufactured,
			FieldPurchaseDate, FieldPurchasePrice, FieldWarrantyExpiration,
			FieldLastServiceDate, FieldNextServiceDate, FieldNotes,
		},
	}
}

// Fields returns required followed by optional fields.
func (s Schema) Fields() []string {
	out := make([]string, 0, len(s.Required)+len(s.Optional))
	out = append(out, s.Required...)
	return append(out, s.Optional...)
}

func (s Schema) has(field string) bool {
	for _, f := range s.Fields() {
		if f == field {
			return true
		}
	}
	return false
}

// headerAliases maps normalized header spellings to canonical field names.
// Canonical names themselves are matched case-insensitively by CanonicalField.
var headerAliases = map[string]string{
	"asset id":            FieldID,
	"assetid":             FieldID,
	"asset_id":            FieldID,
	"asset name":          FieldName,
	"assetname":           FieldName,
	"asset type":          FieldType,
	"assettype":           FieldType,
	"make":                FieldManufacturer,
	"model number":        FieldModel,
	"modelnumber":         FieldModel,
	"model_number":        FieldModel,
	"serial number":       FieldSerialNumber,
	"serial no":           FieldSerialNumber,
	"serial":              FieldSerialNumber,
	"serial_number":       FieldSerialNumber,
	"site":                FieldLocation,
	"org":                 FieldOrganization,
	"operating hours":     FieldOperatingHours,
	"operating_hours":     FieldOperatingHours,
	"hours":               FieldOperatingHours,
	"year manufactured":   FieldYearManufactured,
	"year_manufactured":   FieldYearManufactured,
	"year":                FieldYearManufactured,
	"purchase date":       FieldPurchaseDate,
	"purchase_date":       FieldPurchaseDate,
	"purchase price":      FieldPurchasePrice,
	"purchase_price":      FieldPurchasePrice,
	"price":               FieldPurchasePrice,
	"warranty expiration": FieldWarrantyExpiration,
	"warranty_expiration": FieldWarrantyExpiration,
	"warranty":            FieldWarrantyExpiration,
	"last service date":   FieldLastServiceDate,
	"last_service_date":   FieldLastServiceDate,
	"next service date":   FieldNextServiceDate,
	"next_service_date":   FieldNextServiceDate,
}

var canonicalByLower = func() map[string]string {
	m := make(map[string]string)
	for _, f := range AssetSchema().Fields() {
		m[strings.ToLower(f)] = f
	}
	return m
}()

// CanonicalField resolves a header to its canonical field name.
func CanonicalField(header string) (string, bool) {
	h := strings.ToLower(strings.Join(strings.Fields(header), " "))
	if f, ok := canonicalByLower[h]; ok {
		return f, true
	}
	f, ok := headerAliases[h]
	return f, ok
}
