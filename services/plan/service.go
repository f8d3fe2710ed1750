package plan

import (
	"context"
	"strings"
	"time"

	"zamora-controlplane/pkg/db/option"
	"zamora-controlplane/pkg/errutil"
	"zamora-controlplane/pkg/repository"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db   *gorm.DB
	node *snowflake.Node
	repo repository.Repository[LicensePlan]
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:   p.DB,
		node: p.Node,
		repo: repository.ProvideStore[LicensePlan](p.DB),
	}
}

// ListPlans returns plans ordered by duration ascending. When activeOnly is
// set, disabled templates are filtered out.
func (s *Service) ListPlans(ctx context.Context, activeOnly bool) ([]*LicensePlan, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	query := &LicensePlan{}
	if activeOnly {
		query.IsActive = true
	}

	plans, err := s.repo.Find(ctx, query, option.WithSortBy(option.QuerySortBy{
		SortBy:  "duration_days",
		OrderBy: "asc",
		Allow:   map[string]bool{"duration_days": true},
	}))
	if err != nil {
		zapLog.Error("failed to list plans", zap.Error(err))
		return nil, errutil.Internal("failed to list plans", err)
	}

	return plans, nil
}

// DedupeByDuration collapses plans sharing a duration down to the first seen,
// which is the grouping selection UIs present. Input must already be sorted.
func DedupeByDuration(plans []*LicensePlan) []*LicensePlan {
	seen := make(map[int]bool, len(plans))
	out := make([]*LicensePlan, 0, len(plans))
	for _, p := range plans {
		if seen[p.DurationDays] {
			continue
		}
		seen[p.DurationDays] = true
		out = append(out, p)
	}
	return out
}

func (s *Service) GetPlan(ctx context.Context, planID string) (*LicensePlan, error) {
	if strings.TrimSpace(planID) == "" {
		return nil, errutil.BadRequest("plan_id is required", nil)
	}

	plan, err := s.repo.FindOne(ctx, &LicensePlan{ID: planID})
	if err != nil {
		return nil, errutil.Internal("failed to get plan", err)
	}
	if plan == nil {
		return nil, errutil.NotFound("plan not found", nil)
	}

	return plan, nil
}

type UpsertPlanRequest struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	DurationDays int      `json:"duration_days"`
	PriceCents   int64    `json:"price_cents"`
	Currency     Currency `json:"currency"`
	IsActive     *bool    `json:"is_active"`
}

// UpsertPlan creates a plan when ID is empty, otherwise updates in place.
func (s *Service) UpsertPlan(ctx context.Context, req UpsertPlanRequest) (*LicensePlan, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	if strings.TrimSpace(req.Name) == "" {
		return nil, errutil.ValidationFailed("name is required", nil)
	}
	if req.DurationDays < 1 {
		return nil, errutil.ValidationFailed("duration_days must be at least 1", nil)
	}
	if req.PriceCents < 0 {
		return nil, errutil.ValidationFailed("price must not be negative", nil)
	}
	if !req.Currency.Valid() {
		return nil, errutil.ValidationFailed("unrecognized currency", nil)
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	now := time.Now()

	if req.ID == "" {
		plan := &LicensePlan{
			ID:           s.node.Generate().String(),
			CreatedAt:    now,
			UpdatedAt:    now,
			Name:         req.Name,
			DurationDays: req.DurationDays,
			PriceCents:   req.PriceCents,
			Currency:     req.Currency,
			IsActive:     active,
		}
		if err := s.repo.Create(ctx, plan); err != nil {
			zapLog.Error("failed to create plan", zap.Error(err))
			return nil, errutil.Internal("failed to create plan", err)
		}
		return plan, nil
	}

	existing, err := s.repo.FindOne(ctx, &LicensePlan{ID: req.ID})
	if err != nil {
		return nil, errutil.Internal("failed to get plan", err)
	}
	if existing == nil {
		return nil, errutil.NotFound("plan not found", nil)
	}

	if err := s.repo.Update(ctx, req.ID, map[string]interface{}{
		"name":          req.Name,
		"duration_days": req.DurationDays,
		"price_cents":   req.PriceCents,
		"currency":      req.Currency,
		"is_active":     active,
		"updated_at":    now,
	}); err != nil {
		zapLog.Error("failed to update plan", zap.Error(err), zap.String("plan_id", req.ID))
		return nil, errutil.Internal("failed to update plan", err)
	}

	return s.repo.FindOne(ctx, &LicensePlan{ID: req.ID})
}

// DeletePlan removes a template unconditionally. Licenses issued from it keep
// their copied label.
func (s *Service) DeletePlan(ctx context.Context, planID string) error {
	if strings.TrimSpace(planID) == "" {
		return errutil.BadRequest("plan_id is required", nil)
	}

	plan, err := s.repo.FindOne(ctx, &LicensePlan{ID: planID})
	if err != nil {
		return errutil.Internal("failed to get plan", err)
	}
	if plan == nil {
		return errutil.NotFound("plan not found", nil)
	}

	if err := s.repo.Delete(ctx, &LicensePlan{ID: planID}); err != nil {
		return errutil.Internal("failed to delete plan", err)
	}

	return nil
}
