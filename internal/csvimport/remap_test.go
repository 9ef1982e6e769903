package csvimport

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/asset-maintenance/internal/models"
)

func TestToAssets(t *testing.T) {
	raw := "Asset ID,name,type,manufacturer,model,location,serial number,operating hours,condition,industry,year,purchase price,purchase date,notes\n" +
		"17,Pump,Centrifugal,Grundfos,CR 10,Plant 1,SN-1,1250,GOOD,Oil/Gas,2019,4800.5,2019-06-15,spare seal kit\n" +
		",Fan,Axial,Howden,AX-4,Plant 2,,,,,,,,\n"

	p, err := Parse(raw, AssetSchema())
	require.NoError(t, err)
	rows := ToAssets(p)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, 2, first.Row)
	assert.Equal(t, 17, first.Asset.ID)
	assert.Equal(t, "Pump", first.Asset.Name)
	assert.Equal(t, "SN-1", first.Asset.SerialNumber)
	assert.Equal(t, 1250, first.Asset.OperatingHours)
	assert.Equal(t, models.ConditionGood, first.Asset.Condition)
	assert.Equal(t, models.IndustryOilGas, first.Asset.Industry)
	assert.Equal(t, models.AssetStatusOperational, first.Asset.Status)
	assert.Equal(t, 2019, first.Asset.YearManufactured)
	assert.InDelta(t, 4800.5, first.Asset.PurchasePrice, 1e-9)
	require.NotNil(t, first.Asset.PurchaseDate)
	assert.Equal(t, time.Date(2019, 6, 15, 0, 0, 0, 0, time.UTC), *first.Asset.PurchaseDate)
	assert.Equal(t, "spare seal kit", first.Asset.Notes)

	second := rows[1]
	assert.Equal(t, 3, second.Row)
	assert.Zero(t, second.Asset.ID)
	assert.Nil(t, second.Asset.PurchaseDate)
	assert.Empty(t, second.Asset.SerialNumber)
}

func TestTemplate_RoundTrips(t *testing.T) {
	raw, err := Template(AssetSchema())
	require.NoError(t, err)

	p, err := Parse(raw, AssetSchema())
	require.NoError(t, err)
	assert.Equal(t, AssetSchema().Fields(), p.Headers)
	require.Len(t, p.Rows, 1)
	assert.Equal(t, "Plant 2, Bay 4", p.Rows[0].Values[FieldLocation])

	result := Validate(p, AssetSchema(), now)
	assert.Empty(t, result.RowIssues)
	assert.Equal(t, 1, result.Summary.ValidRows)
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 11, 2, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2024-11-02", "11/02/2024", "11/2/2024", "2024/11/02", "02-Nov-2024", "Nov 2, 2024", "November 2, 2024", " 2024-11-02 "} {
		got, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), in)
	}
	_, err := ParseDate("yesterday")
	assert.Error(t, err)
}

func TestCheckAsset(t *testing.T) {
	valid := models.Asset{
		Name:         "Pump A",
		Type:         "Pump",
		Manufacturer: "Acme",
		Model:        "P-100",
		Location:     "Plant 1",
		Status:       "operational",
	}
	assert.Empty(t, CheckAsset(valid))

	accented := valid
	accented.SerialNumber = strings.Repeat("é", 60)
	assert.Empty(t, CheckAsset(accented), "serial length is counted in characters, not bytes")

	tests := []struct {
		name   string
		mutate func(a *models.Asset)
		want   string
	}{
		{"blank name", func(a *models.Asset) { a.Name = "  " }, "Missing required field: name"},
		{"blank location", func(a *models.Asset) { a.Location = "" }, "Missing required field: location"},
		{"id out of range", func(a *models.Asset) { a.ID = 1000000 }, "Invalid ID"},
		{"long serial", func(a *models.Asset) { a.SerialNumber = strings.Repeat("x", 101) }, "Invalid serial number"},
		{"long multibyte serial", func(a *models.Asset) { a.SerialNumber = strings.Repeat("é", 101) }, "Invalid serial number"},
		{"negative hours", func(a *models.Asset) { a.OperatingHours = -1 }, "Invalid operating hours"},
		{"bad status", func(a *models.Asset) { a.Status = "broken" }, "Invalid status"},
		{"bad industry", func(a *models.Asset) { a.Industry = "farming" }, "Invalid industry"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := valid
			tt.mutate(&a)
			assert.Contains(t, CheckAsset(a), tt.want)
		})
	}
}
