// Package gorm provides GORM model definitions for the nutrient reference data
package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// IngredientModel represents the GORM model for an ingredient profile
type IngredientModel struct {
	ID          string `gorm:"type:varchar(64);primaryKey"`
	Position    int    `gorm:"not null;default:0;index"`
	DisplayName string `gorm:"type:varchar(255);not null"`
	Category    string `gorm:"type:varchar(64);not null;default:'';index"`

	CaloriesPer100g float64 `gorm:"column:calories_per_100g;not null;default:0"`
	ProteinPer100g  float64 `gorm:"column:protein_per_100g;not null;default:0"`
	FatPer100g      float64 `gorm:"column:fat_per_100g;not null;default:0"`
	CarbsPer100g    float64 `gorm:"column:carbs_per_100g;not null;default:0"`

	AminoAcidsPer100g FloatMap `gorm:"column:amino_acids_per_100g;type:json"`
	GlycemicIndex     *int
	UnitPrice         float64 `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for IngredientModel
func (IngredientModel) TableName() string {
	return "ingredients"
}

// PresetModel represents the GORM model for a preset recipe
type PresetModel struct {
	ID         string      `gorm:"type:varchar(64);primaryKey"`
	Position   int         `gorm:"not null;default:0;index"`
	Name       string      `gorm:"type:varchar(255);not null"`
	DeclaredGI int         `gorm:"column:declared_gi;not null;default:0"`
	Lines      PresetLines `gorm:"type:json"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for PresetModel
func (PresetModel) TableName() string {
	return "presets"
}

// FloatMap stores a string-keyed map of numbers as a JSON object
type FloatMap map[string]float64

// Scan implements the sql.Scanner interface
func (m *FloatMap) Scan(value interface{}) error {
	if value == nil {
		*m = FloatMap{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("cannot scan %T into FloatMap", value)
	}
}

// Value implements the driver.Valuer interface
func (m FloatMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// PresetLine is one stored line of a preset
type PresetLine struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"name"`
	AmountGrams float64 `json:"amount"`
}

// PresetLines stores preset lines as a JSON array
type PresetLines []PresetLine

// Scan implements the sql.Scanner interface
func (l *PresetLines) Scan(value interface{}) error {
	if value == nil {
		*l = PresetLines{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("cannot scan %T into PresetLines", value)
	}
}

// Value implements the driver.Valuer interface
func (l PresetLines) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
