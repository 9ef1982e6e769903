package models

import (
	"strings"
	"time"
)

// Asset status values.
const (
	AssetStatusOperational = "operational"
	AssetStatusMaintenance = "maintenance"
	AssetStatusDown        = "down"
	AssetStatusRetired     = "retired"
)

// Asset condition values.
const (
	ConditionExcellent = "excellent"
	ConditionGood      = "good"
	ConditionFair      = "fair"
	ConditionPoor      = "poor"
)

// Industry values.
const (
	IndustryOilGas        = "oil/gas"
	IndustryConstruction  = "construction"
	IndustryManufacturing = "manufacturing"
	IndustryOther         = "other"
)

var (
	AssetStatuses = []string{AssetStatusOperational, AssetStatusMaintenance, AssetStatusDown, AssetStatusRetired}
	Conditions    = []string{ConditionExcellent, ConditionGood, ConditionFair, ConditionPoor}
	Industries    = []string{IndustryOilGas, IndustryConstruction, IndustryManufacturing, IndustryOther}
)

// Asset represents a piece of tracked equipment.
type Asset struct {
	ID                 int        `json:"id" bson:"_id"`
	Name               string     `json:"name" bson:"name"`
	Type               string     `json:"type" bson:"type"`
	Manufacturer       string     `json:"manufacturer" bson:"manufacturer"`
	Model              string     `json:"model" bson:"model"`
	SerialNumber       string     `json:"serial_number,omitempty" bson:"serial_number,omitempty"`
	Location           string     `json:"location" bson:"location"`
	Organization       string     `json:"organization,omitempty" bson:"organization,omitempty"`
	OperatingHours     int        `json:"operating_hours" bson:"operating_hours"` // cumulative
	Condition          string     `json:"condition,omitempty" bson:"condition,omitempty"`
	Status             string     `json:"status,omitempty" bson:"status,omitempty"`
	Industry           string     `json:"industry,omitempty" bson:"industry,omitempty"`
	YearManufactured   int        `json:"year_manufactured,omitempty" bson:"year_manufactured,omitempty"`
	PurchaseDate       *time.Time `json:"purchase_date,omitempty" bson:"purchase_date,omitempty"`
	PurchasePrice      float64    `json:"purchase_price,omitempty" bson:"purchase_price,omitempty"` // in USD
	WarrantyExpiration *time.Time `json:"warranty_expiration,omitempty" bson:"warranty_expiration,omitempty"`
	LastServiceDate    *time.Time `json:"last_service_date,omitempty" bson:"last_service_date,omitempty"`
	NextServiceDate    *time.Time `json:"next_service_date,omitempty" bson:"next_service_date,omitempty"`
	Notes              string     `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt          time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" bson:"updated_at"`
}

// IsValidAssetStatus reports whether s is a known asset status, ignoring case.
func IsValidAssetStatus(s string) bool {
	return containsFold(AssetStatuses, s)
}

// IsValidCondition reports whether s is a known asset condition, ignoring case.
func IsValidCondition(s string) bool {
	return containsFold(Conditions, s)
}

// IsValidIndustry reports whether s is a known industry, ignoring case.
func IsValidIndustry(s string) bool {
	return containsFold(Industries, s)
}

func containsFold(values []string, s string) bool {
	for _, v := range values {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
