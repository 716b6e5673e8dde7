package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/sellerkit/replan/internal/cache"
	"github.com/sellerkit/replan/internal/domain"
	"github.com/sellerkit/replan/internal/planning/inbound"
	"github.com/sellerkit/replan/internal/planning/projection"
	"github.com/sellerkit/replan/internal/planning/robustness"
	"github.com/sellerkit/replan/internal/planning/suggest"
)

// PlanningService fronts the pure planning engine with the current state
// snapshot and a projection cache. The engine is deterministic per state
// revision, so cached results stay valid until the state is replaced.
type PlanningService struct {
	mu    sync.RWMutex
	state *domain.PlanState
	cache cache.ProjectionCache
}

func NewPlanningService(state *domain.PlanState, cacheImpl cache.ProjectionCache) *PlanningService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopProjectionCache()
	}
	return &PlanningService{state: state, cache: cacheImpl}
}

// State returns the current snapshot. Callers must treat it as read-only.
func (s *PlanningService) State() *domain.PlanState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// ReplaceState swaps in a new snapshot and drops every memoized projection.
func (s *PlanningService) ReplaceState(ctx context.Context, state *domain.PlanState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("planning: cache invalidation failed")
	}
}

// Project runs (or recalls) one projection.
func (s *PlanningService) Project(ctx context.Context, params projection.Params) *projection.Result {
	state := s.State()

	key := cache.ResultKey{
		Revision:    state.Revision,
		Months:      params.Months,
		SKUs:        params.SKUs,
		AnchorMonth: params.AnchorMonth,
		Mode:        params.Mode,
	}

	if result, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		return result
	} else if err != nil {
		log.Warn().Err(err).Msg("planning: cache get projection failed")
	}

	result := projection.Project(state, params)

	if err := s.cache.Set(ctx, key, result); err != nil {
		log.Warn().Err(err).Msg("planning: cache set projection failed")
	}

	return result
}

// Robustness evaluates the check matrix, reusing a memoized projection when
// one exists.
func (s *PlanningService) Robustness(ctx context.Context, params robustness.Params) *robustness.Report {
	state := s.State()
	proj := s.Project(ctx, projection.Params{
		Months:      params.Months,
		AnchorMonth: params.AnchorMonth,
		Mode:        params.Mode,
	})
	return robustness.EvaluateWithProjection(state, params, proj)
}

// Suggestions runs the phantom order generator.
func (s *PlanningService) Suggestions(_ context.Context, params suggest.Params) *suggest.Result {
	return suggest.Generate(s.State(), params)
}

// Inbound aggregates the inbound month buckets of the current state.
func (s *PlanningService) Inbound(_ context.Context) inbound.Result {
	return inbound.Aggregate(s.State())
}

// Dashboard bundles the independent planning sections for one screen load.
type Dashboard struct {
	Robustness  *robustness.Report `json:"robustness"`
	Suggestions *suggest.Result    `json:"suggestions"`
	Inbound     inbound.Result     `json:"inbound"`
}

// DashboardParams configure one dashboard evaluation.
type DashboardParams struct {
	Months      []string
	Mode        projection.Mode
	AnchorMonth string
	Now         time.Time
}

// GetDashboard computes the three dashboard sections concurrently; each is a
// pure function of the same state snapshot.
func (s *PlanningService) GetDashboard(ctx context.Context, params DashboardParams) (*Dashboard, error) {
	dashboard := &Dashboard{}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dashboard.Robustness = s.Robustness(ctx, robustness.Params{
			Months:      params.Months,
			Mode:        params.Mode,
			AnchorMonth: params.AnchorMonth,
		})
		return nil
	})
	g.Go(func() error {
		dashboard.Suggestions = s.Suggestions(ctx, suggest.Params{
			Months:      params.Months,
			Mode:        params.Mode,
			AnchorMonth: params.AnchorMonth,
			Now:         params.Now,
		})
		return nil
	})
	g.Go(func() error {
		dashboard.Inbound = s.Inbound(ctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return dashboard, nil
}
