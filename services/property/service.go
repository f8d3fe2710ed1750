package property

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"zamora-controlplane/pkg/config"
	"zamora-controlplane/pkg/errutil"
	"zamora-controlplane/pkg/repository"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	db     *gorm.DB
	node   *snowflake.Node
	config *config.Config
	repo   repository.Repository[Property]
}

type ServiceParams struct {
	fx.In
	DB     *gorm.DB
	Node   *snowflake.Node
	Config *config.Config
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:     p.DB,
		node:   p.Node,
		config: p.Config,
		repo:   repository.ProvideStore[Property](p.DB),
	}
}

type CreatePropertyRequest struct {
	OwnerID string `json:"owner_id"`
	Name    string `json:"name"`
	Slug    string `json:"slug"`
}

// CreateProperty registers a new property in its trial window.
func (s *Service) CreateProperty(ctx context.Context, req CreatePropertyRequest) (*Property, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	if strings.TrimSpace(req.Name) == "" {
		return nil, errutil.ValidationFailed("name is required", nil)
	}
	if strings.TrimSpace(req.OwnerID) == "" {
		return nil, errutil.ValidationFailed("owner_id is required", nil)
	}

	slugName := req.Slug
	if slugName == "" {
		slugName = slug.Make(req.Name)
	}

	exist, err := s.repo.FindOne(ctx, &Property{Slug: slugName})
	if err != nil {
		zapLog.Error("failed to check existing property", zap.Error(err))
		return nil, errutil.Internal("failed to check existing property", err)
	}
	if exist != nil {
		return nil, errutil.Conflict("property already exists", nil)
	}

	now := time.Now()
	p := &Property{
		ID:                 s.node.Generate().String(),
		CreatedAt:          now,
		UpdatedAt:          now,
		OwnerID:            req.OwnerID,
		Name:               req.Name,
		Slug:               slugName,
		SubscriptionPlan:   PlanTrial,
		SubscriptionStatus: StatusTrial,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		zapLog.Error("failed to create property", zap.Error(err))
		return nil, errutil.Internal("failed to create property", err)
	}

	return p, nil
}

func (s *Service) GetProperty(ctx context.Context, propertyID string) (*Property, error) {
	if strings.TrimSpace(propertyID) == "" {
		return nil, errutil.BadRequest("property_id is required", nil)
	}

	p, err := s.repo.FindOne(ctx, &Property{ID: propertyID})
	if err != nil {
		return nil, errutil.Internal("failed to get property", err)
	}
	if p == nil {
		return nil, errutil.NotFound("property not found", nil)
	}

	return p, nil
}

func (s *Service) ListProperties(ctx context.Context) ([]*Property, error) {
	properties, err := s.repo.Find(ctx, &Property{})
	if err != nil {
		return nil, errutil.Internal("failed to list properties", err)
	}
	return properties, nil
}

// Evaluate recomputes the paywall state for a property.
func (s *Service) Evaluate(ctx context.Context, propertyID string, now time.Time) (*Evaluation, error) {
	p, err := s.GetProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	eval := Evaluate(p, now, s.config.Licensing.TrialDays, s.config.Licensing.WarningDays)
	return &eval, nil
}

// ApplyLicenseActivation flips a property into the licensed state. The tier
// is always pro on activation; it is not derived from the license plan label.
func (s *Service) ApplyLicenseActivation(ctx context.Context, propertyID, licenseKey string, durationDays int, expiresAt time.Time) error {
	p, err := s.GetProperty(ctx, propertyID)
	if err != nil {
		return err
	}

	now := time.Now()
	settings := mirrorLicense(p.Settings, map[string]interface{}{
		"license_key":        licenseKey,
		"licensed_at":        now.Format(time.RFC3339),
		"license_duration":   durationDays,
		"license_expires_at": expiresAt.Format(time.RFC3339),
	})

	if err := s.repo.Update(ctx, propertyID, map[string]interface{}{
		"subscription_status": StatusActiveLicensed,
		"subscription_plan":   PlanPro,
		"license_expires_at":  expiresAt,
		"settings":            settings,
		"updated_at":          now,
	}); err != nil {
		zap.L().Error("failed to apply license activation",
			zap.Error(err), zap.String("property_id", propertyID))
		return errutil.Internal("failed to apply license activation", err)
	}

	return nil
}

// ApplyLicenseDeactivation resets a property to trial. The expiry is set to
// "now" rather than cleared: a null deadline would re-open the trial window,
// while a past one makes the paywall drop immediately.
func (s *Service) ApplyLicenseDeactivation(ctx context.Context, propertyID string) error {
	if _, err := s.GetProperty(ctx, propertyID); err != nil {
		return err
	}

	now := time.Now()
	if err := s.repo.Update(ctx, propertyID, map[string]interface{}{
		"subscription_status": StatusTrial,
		"subscription_plan":   PlanTrial,
		"license_expires_at":  now,
		"updated_at":          now,
	}); err != nil {
		zap.L().Error("failed to apply license deactivation",
			zap.Error(err), zap.String("property_id", propertyID))
		return errutil.Internal("failed to apply license deactivation", err)
	}

	return nil
}

// ApplyExpiryExtension moves the paywall deadline without touching the
// subscription tier. Used when a bound license is upgraded in place.
func (s *Service) ApplyExpiryExtension(ctx context.Context, propertyID string, newExpiresAt time.Time) error {
	if _, err := s.GetProperty(ctx, propertyID); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, propertyID, map[string]interface{}{
		"license_expires_at": newExpiresAt,
		"updated_at":         time.Now(),
	}); err != nil {
		zap.L().Error("failed to apply expiry extension",
			zap.Error(err), zap.String("property_id", propertyID))
		return errutil.Internal("failed to apply expiry extension", err)
	}

	return nil
}

// mirrorLicense merges the license audit fields into the settings bag,
// preserving whatever else lives there.
func mirrorLicense(existing datatypes.JSON, fields map[string]interface{}) datatypes.JSON {
	bag := map[string]interface{}{}
	if len(existing) > 0 {
		_ = json.Unmarshal(existing, &bag)
	}
	for k, v := range fields {
		bag[k] = v
	}

	out, err := json.Marshal(bag)
	if err != nil {
		return existing
	}
	return datatypes.JSON(out)
}
