// Package gorm provides mapping between domain entities and GORM models
package gorm

import (
	"github.com/alchemorsel/nutrilab/internal/domain/nutrition"
)

// IngredientToModel converts a domain profile to a GORM model
func IngredientToModel(p nutrition.IngredientProfile, position int) *IngredientModel {
	aminoAcids := make(FloatMap, len(p.AminoAcidsPer100g))
	for acid, mg := range p.AminoAcidsPer100g {
		aminoAcids[string(acid)] = mg
	}

	model := &IngredientModel{
		ID:                string(p.ID),
		Position:          position,
		DisplayName:       p.DisplayName,
		Category:          p.Category,
		CaloriesPer100g:   p.CaloriesPer100g,
		ProteinPer100g:    p.ProteinPer100g,
		FatPer100g:        p.FatPer100g,
		CarbsPer100g:      p.CarbsPer100g,
		AminoAcidsPer100g: aminoAcids,
		UnitPrice:         p.UnitPrice,
	}
	if p.GlycemicIndex != nil {
		model.GlycemicIndex = nutrition.GI(*p.GlycemicIndex)
	}

	return model
}

// ModelToIngredient converts a GORM model to a domain profile
func ModelToIngredient(m *IngredientModel) nutrition.IngredientProfile {
	aminoAcids := make(nutrition.AminoAcidProfile, len(m.AminoAcidsPer100g))
	for acid, mg := range m.AminoAcidsPer100g {
		aminoAcids[nutrition.AminoAcid(acid)] = mg
	}

	profile := nutrition.IngredientProfile{
		ID:                nutrition.IngredientID(m.ID),
		DisplayName:       m.DisplayName,
		Category:          m.Category,
		CaloriesPer100g:   m.CaloriesPer100g,
		ProteinPer100g:    m.ProteinPer100g,
		FatPer100g:        m.FatPer100g,
		CarbsPer100g:      m.CarbsPer100g,
		AminoAcidsPer100g: aminoAcids,
		UnitPrice:         m.UnitPrice,
	}
	if m.GlycemicIndex != nil {
		profile.GlycemicIndex = nutrition.GI(*m.GlycemicIndex)
	}

	return profile
}

// PresetToModel converts a domain preset to a GORM model
func PresetToModel(p nutrition.Preset, position int) *PresetModel {
	lines := make(PresetLines, len(p.Lines))
	for i, line := range p.Lines {
		lines[i] = PresetLine{
			ID:          string(line.ID),
			DisplayName: line.DisplayName,
			AmountGrams: line.AmountGrams,
		}
	}

	return &PresetModel{
		ID:         p.ID,
		Position:   position,
		Name:       p.Name,
		DeclaredGI: p.DeclaredGI,
		Lines:      lines,
	}
}

// ModelToPreset converts a GORM model to a domain preset
func ModelToPreset(m *PresetModel) nutrition.Preset {
	lines := make([]nutrition.RecipeLine, len(m.Lines))
	for i, line := range m.Lines {
		lines[i] = nutrition.RecipeLine{
			ID:          nutrition.IngredientID(line.ID),
			DisplayName: line.DisplayName,
			AmountGrams: line.AmountGrams,
		}
	}

	return nutrition.Preset{
		ID:         m.ID,
		Name:       m.Name,
		DeclaredGI: m.DeclaredGI,
		Lines:      lines,
	}
}
