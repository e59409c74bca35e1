package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopsmart/backend/internal/domain"
	"golang.org/x/sync/singleflight"
)

// Analyzer computes a fresh analysis result
type Analyzer interface {
	Analyze(ctx context.Context, caps domain.CapabilityStatus, mode domain.Mode, product *domain.ProductData) (domain.AnalysisResult, error)
}

// CoordinatorConfig holds configuration for the coordinator
type CoordinatorConfig struct {
	// DedupeInFlight collapses concurrent misses for the same cache key into one analysis.
	DedupeInFlight bool
	// DefaultMode is stored on first start. Zero means domain.DefaultMode.
	DefaultMode domain.Mode
}

// Coordinator services analyze requests: cache lookup, analysis on miss, cache write.
// It also tracks the current mode and product the way the extension surfaces expect.
type Coordinator struct {
	store    domain.KeyValueStore
	analyzer Analyzer
	runtime  *Runtime
	inflight *singleflight.Group
	fallback domain.Mode
	logger   *slog.Logger
}

// NewCoordinator creates a new coordinator with dependencies
func NewCoordinator(
	store domain.KeyValueStore,
	analyzer Analyzer,
	runtime *Runtime,
	config CoordinatorConfig,
	logger *slog.Logger,
) *Coordinator {
	if runtime == nil {
		runtime = NewRuntime(domain.CapabilityStatus{})
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Coordinator{
		store:    store,
		analyzer: analyzer,
		runtime:  runtime,
		fallback: domain.DefaultMode,
		logger:   logger.With("component", "coordinator"),
	}
	if config.DefaultMode.Valid() {
		c.fallback = config.DefaultMode
	}
	if config.DedupeInFlight {
		c.inflight = &singleflight.Group{}
	}
	return c
}

// Runtime returns the capability state the coordinator passes to the analyzer
func (c *Coordinator) Runtime() *Runtime {
	return c.runtime
}

// Initialize stores the default mode when none is set yet
func (c *Coordinator) Initialize(ctx context.Context) error {
	var mode domain.Mode
	err := getJSON(ctx, c.store, domain.StoreKeyAnalysisMode, &mode)
	if err == nil && mode.Valid() {
		return nil
	}
	if err != nil && !errors.Is(err, domain.ErrCacheMiss) {
		c.logger.Warn("stored mode unreadable, resetting", "error", err)
	}
	return setJSON(ctx, c.store, domain.StoreKeyAnalysisMode, c.fallback)
}

// HandleAnalyzeRequest returns the cached result for (mode, product.URL) or computes,
// stores and returns a new one. Flow: derive key -> store lookup -> analyze -> store -> return
func (c *Coordinator) HandleAnalyzeRequest(
	ctx context.Context,
	mode domain.Mode,
	product *domain.ProductData,
) (*domain.AnalyzeResponse, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedMode, mode)
	}
	if product == nil {
		return nil, domain.ErrInvalidRequest
	}

	key := DeriveCacheKey(mode, product.URL)

	// Try cache first
	if cached, err := c.lookup(ctx, key); err == nil {
		c.logger.Debug("using cached analysis", "mode", mode, "key", key)
		return &domain.AnalyzeResponse{Success: true, Data: cached, Mode: mode, Cached: true}, nil
	}

	result, err := c.compute(ctx, key, mode, product)
	if err != nil {
		return nil, err
	}

	return &domain.AnalyzeResponse{Success: true, Data: result, Mode: mode, Cached: false}, nil
}

// CurrentMode returns the stored mode, or the configured default when none is stored
func (c *Coordinator) CurrentMode(ctx context.Context) (domain.Mode, error) {
	var mode domain.Mode
	if err := getJSON(ctx, c.store, domain.StoreKeyAnalysisMode, &mode); err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return c.fallback, nil
		}
		return "", err
	}
	if !mode.Valid() {
		return c.fallback, nil
	}
	return mode, nil
}

// SwitchMode persists mode and re-analyzes the current product under it.
// The response is nil when no product has been visited yet.
func (c *Coordinator) SwitchMode(ctx context.Context, mode domain.Mode) (*domain.AnalyzeResponse, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedMode, mode)
	}

	if err := setJSON(ctx, c.store, domain.StoreKeyAnalysisMode, mode); err != nil {
		return nil, fmt.Errorf("store mode: %w", err)
	}
	c.logger.Info("analysis mode switched", "mode", mode)

	product, err := c.currentProduct(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}

	return c.analyzeCurrent(ctx, mode, product)
}

// VisitProduct records product as the current product and analyzes it under the
// current mode. Products without a title are rejected.
func (c *Coordinator) VisitProduct(ctx context.Context, product *domain.ProductData) (*domain.AnalyzeResponse, error) {
	if product == nil || product.Title == "" {
		return nil, fmt.Errorf("%w: product title is required", domain.ErrInvalidRequest)
	}

	if err := setJSON(ctx, c.store, domain.StoreKeyCurrentProduct, product); err != nil {
		return nil, fmt.Errorf("store current product: %w", err)
	}

	mode, err := c.CurrentMode(ctx)
	if err != nil {
		return nil, err
	}

	return c.analyzeCurrent(ctx, mode, product)
}

// CurrentView returns the current product, its latest analysis and the mode
func (c *Coordinator) CurrentView(ctx context.Context) (*domain.CurrentView, error) {
	mode, err := c.CurrentMode(ctx)
	if err != nil {
		return nil, err
	}

	view := &domain.CurrentView{Mode: mode}

	product, err := c.currentProduct(ctx)
	switch {
	case err == nil:
		view.Product = product
	case !errors.Is(err, domain.ErrCacheMiss):
		return nil, err
	}

	values, err := c.store.Get(ctx, domain.StoreKeyCurrentAnalysis)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", domain.StoreKeyCurrentAnalysis, err)
	}
	if raw, ok := values[domain.StoreKeyCurrentAnalysis]; ok {
		analysis, err := domain.DecodeAnalysisResult(raw)
		if err != nil {
			c.logger.Warn("stored current analysis unreadable", "error", err)
		} else {
			view.Analysis = analysis
		}
	}

	return view, nil
}

func (c *Coordinator) analyzeCurrent(ctx context.Context, mode domain.Mode, product *domain.ProductData) (*domain.AnalyzeResponse, error) {
	resp, err := c.HandleAnalyzeRequest(ctx, mode, product)
	if err != nil {
		return nil, err
	}

	if err := setJSON(ctx, c.store, domain.StoreKeyCurrentAnalysis, resp.Data); err != nil {
		c.logger.Warn("failed to store current analysis", "error", err)
	}
	return resp, nil
}

func (c *Coordinator) currentProduct(ctx context.Context) (*domain.ProductData, error) {
	var product domain.ProductData
	if err := getJSON(ctx, c.store, domain.StoreKeyCurrentProduct, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// lookup reads a cached result. Unreadable entries count as misses.
func (c *Coordinator) lookup(ctx context.Context, key string) (domain.AnalysisResult, error) {
	values, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache lookup failed", "key", key, "error", err)
		return nil, domain.ErrCacheMiss
	}

	raw, ok := values[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}

	result, err := domain.DecodeAnalysisResult(raw)
	if err != nil {
		c.logger.Warn("cached analysis unreadable", "key", key, "error", err)
		return nil, domain.ErrCacheMiss
	}
	return result, nil
}

// compute runs to completion even after the caller's context ends
func (c *Coordinator) compute(ctx context.Context, key string, mode domain.Mode, product *domain.ProductData) (domain.AnalysisResult, error) {
	ctx = context.WithoutCancel(ctx)
	if c.inflight == nil {
		return c.analyzeAndStore(ctx, key, mode, product)
	}

	value, err, shared := c.inflight.Do(key, func() (interface{}, error) {
		return c.analyzeAndStore(ctx, key, mode, product)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("joined in-flight analysis", "key", key)
	}
	return value.(domain.AnalysisResult), nil
}

func (c *Coordinator) analyzeAndStore(ctx context.Context, key string, mode domain.Mode, product *domain.ProductData) (domain.AnalysisResult, error) {
	result, err := c.analyzer.Analyze(ctx, c.runtime.Capabilities(), mode, product)
	if err != nil {
		return nil, err
	}

	c.logger.Info("analysis computed", "mode", mode, "score", result.Score(), "mock", result.IsMock())

	// Log but don't fail if caching fails
	if err := setJSON(ctx, c.store, key, result); err != nil {
		c.logger.Warn("failed to cache analysis", "key", key, "error", err)
	}

	return result, nil
}
