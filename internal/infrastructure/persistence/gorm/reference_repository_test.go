package gorm

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alchemorsel/nutrilab/internal/domain/nutrition"
	apperrors "github.com/alchemorsel/nutrilab/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "reference.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&IngredientModel{}, &PresetModel{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func sampleProfiles() []nutrition.IngredientProfile {
	return []nutrition.IngredientProfile{
		{
			ID:              "zeta-flour",
			DisplayName:     "Zeta flour",
			Category:        "grains",
			CaloriesPer100g: 360,
			ProteinPer100g:  12.5,
			FatPer100g:      2,
			CarbsPer100g:    70,
			AminoAcidsPer100g: nutrition.AminoAcidProfile{
				nutrition.Lysine:  300,
				nutrition.Leucine: 820.5,
			},
			GlycemicIndex: nutrition.GI(55),
			UnitPrice:     0.75,
		},
		{
			ID:                "alpha-oil",
			DisplayName:       "Alpha oil",
			Category:          "liquids",
			CaloriesPer100g:   900,
			FatPer100g:        100,
			AminoAcidsPer100g: nutrition.AminoAcidProfile{},
			UnitPrice:         1.2,
		},
	}
}

func TestReferenceRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewReferenceRepository(setupTestDB(t))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, repo.SaveIngredients(ctx, sampleProfiles()))

	loaded, err := repo.LoadIngredients(ctx)
	require.NoError(t, err)
	// declaration order, not key order
	assert.Equal(t, sampleProfiles(), loaded)
	assert.Nil(t, loaded[1].GlycemicIndex)

	count, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestReferenceRepository_DatabaseErrors(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewReferenceRepository(db)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = repo.LoadIngredients(ctx)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeDatabaseError))
	assert.Contains(t, err.Error(), "Failed to load ingredients")

	_, err = repo.Count(ctx)
	assert.True(t, apperrors.Is(err, apperrors.CodeDatabaseError))

	err = repo.SavePresets(ctx, []nutrition.Preset{{ID: "p", Name: "P"}})
	assert.True(t, apperrors.Is(err, apperrors.CodeDatabaseError))
}

func TestReferenceRepository_SaveIsUpsert(t *testing.T) {
	ctx := context.Background()
	repo := NewReferenceRepository(setupTestDB(t))
	require.NoError(t, repo.SaveIngredients(ctx, sampleProfiles()))

	updated := sampleProfiles()
	updated[0].UnitPrice = 0.5
	require.NoError(t, repo.SaveIngredients(ctx, updated))

	loaded, err := repo.LoadIngredients(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, 0.5, loaded[0].UnitPrice)
}

func TestReferenceRepository_Presets(t *testing.T) {
	ctx := context.Background()
	repo := NewReferenceRepository(setupTestDB(t))

	presets := []nutrition.Preset{
		{
			ID:         "simple",
			Name:       "Simple",
			DeclaredGI: 42,
			Lines: []nutrition.RecipeLine{
				{ID: "zeta-flour", DisplayName: "Zeta flour", AmountGrams: 100},
				{ID: "alpha-oil", DisplayName: "Alpha oil", AmountGrams: 12.5},
			},
		},
		{ID: "empty", Name: "Empty", Lines: []nutrition.RecipeLine{}},
	}
	require.NoError(t, repo.SavePresets(ctx, presets))
	require.NoError(t, repo.SavePresets(ctx, nil))

	loaded, err := repo.LoadPresets(ctx)
	require.NoError(t, err)
	assert.Equal(t, presets, loaded)
}

func TestFloatMap_Scan(t *testing.T) {
	var m FloatMap

	require.NoError(t, m.Scan([]byte(`{"lysine":1.5}`)))
	assert.Equal(t, FloatMap{"lysine": 1.5}, m)

	require.NoError(t, m.Scan(nil))
	assert.Empty(t, m)

	assert.Error(t, m.Scan(42))

	value, err := FloatMap{}.Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", value)
}
