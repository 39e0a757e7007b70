// Package nutrition provides the application layer for nutrition calculations
// This implements the use cases defined in the inbound ports
package nutrition

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"sync"
	"time"

	"github.com/alchemorsel/nutrilab/internal/domain/nutrition"
	"github.com/alchemorsel/nutrilab/internal/ports/inbound"
	"github.com/alchemorsel/nutrilab/internal/ports/outbound"
	"github.com/alchemorsel/nutrilab/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/alchemorsel/nutrilab/internal/application/nutrition"

const reportCachePrefix = "nutrition:report:"

// Calculation outcomes reported to the metrics recorder
const (
	OutcomeComputed = "computed"
	OutcomeCached   = "cached"
	OutcomeFailed   = "failed"
)

// MetricsRecorder receives calculation metrics. A nil recorder is allowed.
type MetricsRecorder interface {
	RecordCalculation(source, outcome string, duration time.Duration)
	RecordAminoAcidScore(score float64, limiting string)
	RecordCacheLookup(hit bool)
	RecordRecommendations(count int)
}

// Options configures a NutritionService
type Options struct {
	CacheTTL time.Duration
	Metrics  MetricsRecorder
}

// NutritionService implements the nutrition use cases
type NutritionService struct {
	reference outbound.ReferenceRepository
	cache     outbound.CacheRepository
	metrics   MetricsRecorder
	cacheTTL  time.Duration
	tracer    trace.Tracer
	logger    *zap.Logger

	mu      sync.Mutex
	catalog *nutrition.Catalog
	presets *nutrition.PresetBook
	// fingerprint identifies the loaded reference data in cache keys so a
	// reload never serves reports computed from older profiles
	fingerprint string
}

// NewNutritionService creates a new nutrition service. cache may be nil.
func NewNutritionService(
	reference outbound.ReferenceRepository,
	cache outbound.CacheRepository,
	opts Options,
	logger *zap.Logger,
) *NutritionService {
	return &NutritionService{
		reference: reference,
		cache:     cache,
		metrics:   opts.Metrics,
		cacheTTL:  opts.CacheTTL,
		tracer:    otel.Tracer(tracerName),
		logger:    logger.Named("nutrition-service"),
	}
}

var _ inbound.NutritionService = (*NutritionService)(nil)

// Warmup loads the reference data. Load failures are not cached, so a
// later call retries.
func (s *NutritionService) Warmup(ctx context.Context) error {
	_, _, err := s.loadReference(ctx)
	return err
}

// Ready reports whether reference data has been loaded
func (s *NutritionService) Ready(ctx context.Context) error {
	s.mu.Lock()
	loaded := s.catalog != nil
	s.mu.Unlock()
	if loaded {
		return nil
	}
	return s.Warmup(ctx)
}

// loadReference returns the loaded catalog and presets, loading them on first use
func (s *NutritionService) loadReference(ctx context.Context) (*nutrition.Catalog, *nutrition.PresetBook, error) {
	catalog, book, _, err := s.snapshot(ctx)
	return catalog, book, err
}

// snapshot returns the loaded reference data with its fingerprint, loading
// it on first use
func (s *NutritionService) snapshot(ctx context.Context) (*nutrition.Catalog, *nutrition.PresetBook, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.catalog != nil {
		return s.catalog, s.presets, s.fingerprint, nil
	}

	ref, err := s.buildReference(ctx)
	if err != nil {
		return nil, nil, "", err
	}
	s.catalog, s.presets, s.fingerprint = ref.catalog, ref.presets, ref.fingerprint
	return ref.catalog, ref.presets, ref.fingerprint, nil
}

// Reload rebuilds the reference data from the repository and swaps it in.
// On failure the previously loaded data stays in service.
func (s *NutritionService) Reload(ctx context.Context) error {
	ref, err := s.buildReference(ctx)
	if err != nil {
		s.logger.Warn("Reference reload failed, keeping current data", zap.Error(err))
		return err
	}

	s.mu.Lock()
	changed := s.fingerprint != ref.fingerprint
	s.catalog, s.presets, s.fingerprint = ref.catalog, ref.presets, ref.fingerprint
	s.mu.Unlock()

	s.logger.Info("Reference data reloaded", zap.Bool("changed", changed))
	return nil
}

type referenceData struct {
	catalog     *nutrition.Catalog
	presets     *nutrition.PresetBook
	fingerprint string
}

func (s *NutritionService) buildReference(ctx context.Context) (referenceData, error) {
	ctx, span := s.tracer.Start(ctx, "nutrition.load_reference")
	defer span.End()

	start := time.Now()
	profiles, err := s.reference.LoadIngredients(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load ingredients")
		return referenceData{}, errors.NewReferenceDataUnavailableError(err)
	}

	catalog, err := nutrition.NewCatalog(profiles)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build catalog")
		return referenceData{}, errors.NewReferenceDataUnavailableError(err)
	}

	presets, err := s.reference.LoadPresets(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load presets")
		return referenceData{}, errors.NewReferenceDataUnavailableError(err)
	}

	book, err := nutrition.NewPresetBook(presets, catalog)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build presets")
		return referenceData{}, errors.NewReferenceDataUnavailableError(err)
	}

	s.logger.Info("Reference data loaded",
		zap.Int("ingredients", catalog.Len()),
		zap.Int("categories", len(catalog.Categories())),
		zap.Int("presets", book.Len()),
		zap.Duration("duration", time.Since(start)),
	)

	return referenceData{
		catalog:     catalog,
		presets:     book,
		fingerprint: referenceFingerprint(profiles),
	}, nil
}

// ListIngredients lists catalog ingredients, optionally filtered by category
func (s *NutritionService) ListIngredients(ctx context.Context, category string) ([]inbound.IngredientDTO, error) {
	catalog, _, err := s.loadReference(ctx)
	if err != nil {
		return nil, err
	}

	profiles := catalog.IngredientsInCategory(category)
	out := make([]inbound.IngredientDTO, 0, len(profiles))
	for _, profile := range profiles {
		out = append(out, ingredientToDTO(profile))
	}
	return out, nil
}

// ListCategories lists ingredient categories in catalog order
func (s *NutritionService) ListCategories(ctx context.Context) ([]inbound.CategoryDTO, error) {
	catalog, _, err := s.loadReference(ctx)
	if err != nil {
		return nil, err
	}

	categories := catalog.Categories()
	out := make([]inbound.CategoryDTO, 0, len(categories))
	for _, category := range categories {
		ids := make([]string, len(category.Ingredients))
		for i, id := range category.Ingredients {
			ids[i] = string(id)
		}
		out = append(out, inbound.CategoryDTO{Name: category.Name, IngredientIDs: ids})
	}
	return out, nil
}

// ListPresets lists the preset recipes
func (s *NutritionService) ListPresets(ctx context.Context) ([]inbound.PresetDTO, error) {
	catalog, book, err := s.loadReference(ctx)
	if err != nil {
		return nil, err
	}

	presets := book.List()
	out := make([]inbound.PresetDTO, 0, len(presets))
	for _, preset := range presets {
		out = append(out, presetToDTO(preset, catalog))
	}
	return out, nil
}

// GetPreset returns a single preset
func (s *NutritionService) GetPreset(ctx context.Context, presetID string) (*inbound.PresetDTO, error) {
	catalog, book, err := s.loadReference(ctx)
	if err != nil {
		return nil, err
	}

	preset, err := book.Get(presetID)
	if err != nil {
		return nil, errors.NewPresetNotFoundError(presetID)
	}

	dto := presetToDTO(preset, catalog)
	return &dto, nil
}

// Calculate computes the nutrition report of a recipe snapshot
func (s *NutritionService) Calculate(ctx context.Context, cmd inbound.CalculateCommand) (*inbound.NutritionReportDTO, error) {
	return s.calculate(ctx, "calculate", linesFromDTO(cmd.Lines))
}

// CalculatePreset starts a recipe from a preset and computes its report
func (s *NutritionService) CalculatePreset(ctx context.Context, presetID string) (*inbound.NutritionReportDTO, error) {
	catalog, book, err := s.loadReference(ctx)
	if err != nil {
		return nil, err
	}

	preset, err := book.Get(presetID)
	if err != nil {
		return nil, errors.NewPresetNotFoundError(presetID)
	}

	report, err := s.calculate(ctx, "preset", preset.Lines)
	if err != nil {
		return nil, err
	}

	dto := presetToDTO(preset, catalog)
	report.Preset = &dto
	return report, nil
}

// Recommend returns supplementation candidates for a recipe snapshot
func (s *NutritionService) Recommend(ctx context.Context, cmd inbound.CalculateCommand) ([]inbound.RecommendationDTO, error) {
	report, err := s.calculate(ctx, "recommend", linesFromDTO(cmd.Lines))
	if err != nil {
		return nil, err
	}
	return report.Recommendations, nil
}

// MutateRecipe applies edit operations in order and recomputes the result
func (s *NutritionService) MutateRecipe(ctx context.Context, cmd inbound.MutateRecipeCommand) (*inbound.NutritionReportDTO, error) {
	catalog, _, err := s.loadReference(ctx)
	if err != nil {
		return nil, err
	}

	recipe := nutrition.NewRecipe(linesFromDTO(cmd.Lines)...)
	for i, op := range cmd.Operations {
		recipe, err = applyOperation(recipe, catalog, op)
		if err != nil {
			s.logger.Debug("Recipe operation rejected",
				zap.Int("position", i),
				zap.String("op", op.Op),
				zap.Error(err),
			)
			if stderrors.Is(err, nutrition.ErrUnknownIngredient) {
				return nil, errors.NewIngredientNotFoundError(op.IngredientID)
			}
			return nil, errors.NewInvalidRecipeOperationError(op.Op, i, err)
		}
	}

	return s.calculate(ctx, "mutate", recipe.Lines())
}

// ExportRecipe renders the recipe and its nutrition as shareable text
func (s *NutritionService) ExportRecipe(ctx context.Context, cmd inbound.CalculateCommand) (string, error) {
	catalog, _, err := s.loadReference(ctx)
	if err != nil {
		return "", err
	}

	_, span := s.tracer.Start(ctx, "nutrition.export")
	defer span.End()

	recipe := nutrition.NewRecipe(withCatalogNames(linesFromDTO(cmd.Lines), catalog)...)
	report := nutrition.Analyze(recipe, catalog)
	return RenderExport(report), nil
}

func applyOperation(recipe nutrition.Recipe, catalog *nutrition.Catalog, op inbound.RecipeOperation) (nutrition.Recipe, error) {
	switch op.Op {
	case inbound.OpAdd:
		profile, ok := catalog.Profile(nutrition.IngredientID(op.IngredientID))
		if !ok {
			return recipe, nutrition.ErrUnknownIngredient
		}
		return recipe.Add(profile.ID, profile.DisplayName), nil
	case inbound.OpRemove:
		return recipe.Remove(op.Index)
	case inbound.OpAdjust:
		return recipe.AdjustAmount(op.Index, op.Delta)
	case inbound.OpSet:
		return recipe.SetAmountText(op.Index, string(op.Amount))
	case inbound.OpMove:
		return recipe.Move(op.From, op.To)
	default:
		return recipe, nutrition.ErrUnknownOperation
	}
}

func (s *NutritionService) calculate(ctx context.Context, source string, lines []nutrition.RecipeLine) (*inbound.NutritionReportDTO, error) {
	start := time.Now()

	ctx, span := s.tracer.Start(ctx, "nutrition.calculate",
		trace.WithAttributes(
			attribute.String("nutrition.source", source),
			attribute.Int("nutrition.lines", len(lines)),
		),
	)
	defer span.End()

	catalog, _, fingerprint, err := s.snapshot(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reference data unavailable")
		s.recordCalculation(source, OutcomeFailed, time.Since(start))
		return nil, err
	}

	recipe := nutrition.NewRecipe(withCatalogNames(lines, catalog)...)
	key := cacheKey(recipe, fingerprint)

	if cached, ok := s.lookupCache(ctx, key); ok {
		span.SetAttributes(attribute.Bool("nutrition.cache_hit", true))
		s.recordCalculation(source, OutcomeCached, time.Since(start))
		return cached, nil
	}

	report := nutrition.Analyze(recipe, catalog)
	dto := reportToDTO(report)

	score := report.Result.AminoAcidScore
	span.SetAttributes(
		attribute.Bool("nutrition.cache_hit", false),
		attribute.Float64("nutrition.amino_acid_score", score.TotalScore),
		attribute.String("nutrition.limiting_amino_acid", string(score.LimitingAminoAcid)),
		attribute.Int("nutrition.glycemic_index", report.Result.GlycemicIndex),
	)

	if ce := s.logger.Check(zap.DebugLevel, "Nutrition calculated"); ce != nil {
		fields := []zap.Field{
			zap.String("source", source),
			zap.Float64("calories", report.Result.Calories),
			zap.Float64("amino_acid_score", score.TotalScore),
			zap.String("limiting_amino_acid", string(score.LimitingAminoAcid)),
		}
		for _, line := range report.Result.Lines {
			fields = append(fields, zap.Any(string(line.ID), line))
		}
		ce.Write(fields...)
	}

	s.storeCache(ctx, key, dto)
	s.recordCalculation(source, OutcomeComputed, time.Since(start))
	if s.metrics != nil {
		s.metrics.RecordAminoAcidScore(score.TotalScore, string(score.LimitingAminoAcid))
		s.metrics.RecordRecommendations(len(report.Recommendations))
	}

	return dto, nil
}

func (s *NutritionService) lookupCache(ctx context.Context, key string) (*inbound.NutritionReportDTO, bool) {
	if s.cache == nil {
		return nil, false
	}

	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !stderrors.Is(err, outbound.ErrCacheMiss) {
			s.logger.Warn("Cache lookup failed", zap.String("key", key), zap.Error(err))
		}
		s.recordCacheLookup(false)
		return nil, false
	}

	var dto inbound.NutritionReportDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		s.logger.Warn("Discarding unreadable cache entry", zap.String("key", key), zap.Error(err))
		_ = s.cache.Delete(ctx, key)
		s.recordCacheLookup(false)
		return nil, false
	}

	s.recordCacheLookup(true)
	return &dto, true
}

func (s *NutritionService) storeCache(ctx context.Context, key string, dto *inbound.NutritionReportDTO) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(dto)
	if err != nil {
		s.logger.Warn("Failed to encode report for cache", zap.Error(err))
		return
	}

	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		s.logger.Warn("Failed to cache report", zap.String("key", key), zap.Error(err))
	}
}

func (s *NutritionService) recordCalculation(source, outcome string, d time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordCalculation(source, outcome, d)
	}
}

func (s *NutritionService) recordCacheLookup(hit bool) {
	if s.metrics != nil {
		s.metrics.RecordCacheLookup(hit)
	}
}

// cacheKey hashes the reference fingerprint and the recipe lines in order.
// Display names are part of the key because they are echoed back in the
// report.
func cacheKey(recipe nutrition.Recipe, fingerprint string) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	_ = enc.Encode(fingerprint)
	for _, line := range recipe.Lines() {
		_ = enc.Encode([]interface{}{line.ID, line.DisplayName, line.AmountGrams})
	}
	return reportCachePrefix + hex.EncodeToString(h.Sum(nil))
}

// referenceFingerprint is a short content hash of the ingredient profiles
func referenceFingerprint(profiles []nutrition.IngredientProfile) string {
	h := sha256.New()
	_ = json.NewEncoder(h).Encode(profiles)
	return hex.EncodeToString(h.Sum(nil))[:16]
}
