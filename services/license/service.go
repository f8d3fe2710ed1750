package license

import (
	"context"
	"fmt"
	"strings"
	"time"

	"zamora-controlplane/pkg/config"
	"zamora-controlplane/pkg/db/option"
	"zamora-controlplane/pkg/db/pagination"
	"zamora-controlplane/pkg/errutil"
	"zamora-controlplane/pkg/keygen"
	"zamora-controlplane/pkg/repository"
	"zamora-controlplane/pkg/task"
	"zamora-controlplane/services/plan"
	"zamora-controlplane/services/property"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const keyGenAttempts = 5

type Service struct {
	db         *gorm.DB
	node       *snowflake.Node
	config     *config.Config
	asynq      task.Enqueuer
	repo       repository.Repository[License]
	plans      *plan.Service
	properties *property.Service
}

type ServiceParams struct {
	fx.In
	DB         *gorm.DB
	Node       *snowflake.Node
	Config     *config.Config
	Asynq      task.Enqueuer
	Plans      *plan.Service
	Properties *property.Service
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:         p.DB,
		node:       p.Node,
		config:     p.Config,
		asynq:      p.Asynq,
		repo:       repository.ProvideStore[License](p.DB),
		plans:      p.Plans,
		properties: p.Properties,
	}
}

// PlanSelection names the license terms for Generate and Upgrade. Exactly one
// of PlanID, DurationDays or CustomEndDate must resolve.
type PlanSelection struct {
	PlanID        string `json:"plan_id"`
	DurationDays  int    `json:"duration_days"`
	CustomEndDate string `json:"custom_end_date"`
}

// resolveSelection turns a selection into (duration, label). A custom end
// date becomes max(1, days from today) with a "Custom (<n> Days)" label; a
// bare duration borrows the label of the first catalog plan sharing it.
func (s *Service) resolveSelection(ctx context.Context, sel PlanSelection) (int, string, error) {
	if sel.PlanID != "" {
		p, err := s.plans.GetPlan(ctx, sel.PlanID)
		if err != nil {
			return 0, "", err
		}
		return p.DurationDays, p.Name, nil
	}

	if sel.CustomEndDate != "" {
		end, err := parseEndDate(sel.CustomEndDate)
		if err != nil {
			return 0, "", errutil.ValidationFailed("invalid custom end date", err)
		}
		days := daysFromNow(end, time.Now())
		return days, fmt.Sprintf("Custom (%d Days)", days), nil
	}

	if sel.DurationDays >= 1 {
		if sel.DurationDays >= LifetimeDays {
			return sel.DurationDays, "Lifetime", nil
		}
		label := fmt.Sprintf("Custom (%d Days)", sel.DurationDays)
		if plans, err := s.plans.ListPlans(ctx, true); err == nil {
			for _, p := range plans {
				if p.DurationDays == sel.DurationDays {
					label = p.Name
					break
				}
			}
		}
		return sel.DurationDays, label, nil
	}

	return 0, "", errutil.ValidationFailed("no plan or duration could be resolved", nil)
}

func parseEndDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func daysFromNow(end, now time.Time) int {
	days := daysBetween(now, end)
	if days < 1 {
		return 1
	}
	return days
}

func daysBetween(from, to time.Time) int {
	d := to.Sub(from)
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// Generate mints unissued license stock. The key is checked for uniqueness
// before persisting; collisions are vanishingly rare but a duplicate key in
// the field would be unrecoverable, so the check is not optional.
func (s *Service) Generate(ctx context.Context, sel PlanSelection) (*License, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	days, label, err := s.resolveSelection(ctx, sel)
	if err != nil {
		return nil, err
	}

	key, err := s.uniqueKey(ctx)
	if err != nil {
		zapLog.Error("failed to generate license key", zap.Error(err))
		return nil, err
	}

	now := time.Now()
	lic := &License{
		ID:           s.node.Generate().String(),
		CreatedAt:    now,
		UpdatedAt:    now,
		Key:          key,
		Plan:         label,
		Status:       StatusUnused,
		DurationDays: days,
	}

	if err := s.repo.Create(ctx, lic); err != nil {
		zapLog.Error("failed to create license", zap.Error(err))
		return nil, errutil.Internal("failed to create license", err)
	}

	zapLog.Info("license generated",
		zap.String("license_id", lic.ID),
		zap.String("plan", lic.Plan),
		zap.Int("duration_days", lic.DurationDays),
	)

	return lic, nil
}

func (s *Service) uniqueKey(ctx context.Context) (string, error) {
	for i := 0; i < keyGenAttempts; i++ {
		key, err := keygen.NewKey(s.config.Licensing.KeyPrefix)
		if err != nil {
			return "", errutil.Internal("failed to generate key", err)
		}

		exist, err := s.repo.FindOne(ctx, &License{Key: key})
		if err != nil {
			return "", errutil.Internal("failed to check key uniqueness", err)
		}
		if exist == nil {
			return key, nil
		}
	}
	return "", errutil.Internal("failed to generate a unique key", nil)
}

func (s *Service) Get(ctx context.Context, licenseID string) (*License, error) {
	if strings.TrimSpace(licenseID) == "" {
		return nil, errutil.BadRequest("license_id is required", nil)
	}

	lic, err := s.repo.FindOne(ctx, &License{ID: licenseID})
	if err != nil {
		return nil, errutil.Internal("failed to get license", err)
	}
	if lic == nil {
		return nil, errutil.NotFound("license not found", nil)
	}

	return lic, nil
}

type ListQuery struct {
	Status Status `form:"status"`
	pagination.Pagination
}

// List pages through licenses newest first. The cursor pins created_at, so a
// row minted mid-iteration never shifts later pages.
func (s *Service) List(ctx context.Context, q ListQuery) ([]*License, *pagination.PageInfo, error) {
	query := &License{}
	if q.Status != "" {
		if !q.Status.Valid() {
			return nil, nil, errutil.BadRequest("unrecognized status filter", nil)
		}
		query.Status = q.Status
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}

	opts := []option.QueryOption{
		option.WithSortBy(option.QuerySortBy{
			SortBy:  "created_at",
			OrderBy: "desc",
			Allow:   map[string]bool{"created_at": true},
		}),
		option.ApplyPagination(pagination.Pagination{Limit: limit + 1}),
	}

	if q.Cursor != "" {
		cursor, err := pagination.DecodeCursor(q.Cursor)
		if err != nil {
			return nil, nil, errutil.BadRequest("invalid cursor", err)
		}
		before, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
		if err != nil {
			return nil, nil, errutil.BadRequest("invalid cursor", err)
		}
		opts = append(opts, option.ApplyOperator(option.Condition{
			Field:    "created_at",
			Operator: option.LT,
			Value:    before,
		}))
	}

	licenses, err := s.repo.Find(ctx, query, opts...)
	if err != nil {
		return nil, nil, errutil.Internal("failed to list licenses", err)
	}

	pageInfo := pagination.BuildCursorPageInfo(licenses, int32(limit), func(l *License) string {
		c, _ := pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: l.CreatedAt.Format(time.RFC3339Nano),
			ID:        l.ID,
		})
		return c
	})
	if len(licenses) > limit {
		licenses = licenses[:limit]
	}

	return licenses, pageInfo, nil
}

// claim is the single unused→used transition shared by Assign and Redeem.
// The conditional update closes the window where two callers both read
// status=unused: only one UPDATE matches, the loser sees zero rows.
func (s *Service) claim(ctx context.Context, lic *License, propertyID string, now time.Time) (time.Time, error) {
	expiresAt := now.AddDate(0, 0, lic.DurationDays)

	res := s.db.WithContext(ctx).Model(&License{}).
		Where("id = ? AND status = ?", lic.ID, StatusUnused).
		Updates(map[string]interface{}{
			"status":              StatusUsed,
			"used_at":             now,
			"expires_at":          expiresAt,
			"used_by_property_id": propertyID,
			"updated_at":          now,
		})
	if res.Error != nil {
		return time.Time{}, errutil.Internal("failed to claim license", res.Error)
	}
	if res.RowsAffected == 0 {
		return time.Time{}, errutil.UnprocessableEntity("license already used or revoked", nil)
	}

	return expiresAt, nil
}

// releaseClaim is the compensating write for claim: the property side failed,
// so the license returns to stock.
func (s *Service) releaseClaim(ctx context.Context, licenseID string) error {
	return s.db.WithContext(ctx).Model(&License{}).
		Where("id = ?", licenseID).
		Updates(map[string]interface{}{
			"status":              StatusUnused,
			"used_at":             nil,
			"expires_at":          nil,
			"used_by_property_id": nil,
			"updated_at":          time.Now(),
		}).Error
}

// activate performs the two-entity write: license claim, then property
// activation. The writes are sequential, not transactional: on a property
// failure the claim is compensated, and if even that fails the caller gets a
// PartialFailure so an operator knows the two rows disagree.
func (s *Service) activate(ctx context.Context, lic *License, propertyID string) (*License, error) {
	now := time.Now()

	expiresAt, err := s.claim(ctx, lic, propertyID, now)
	if err != nil {
		return nil, err
	}

	if err := s.properties.ApplyLicenseActivation(ctx, propertyID, lic.Key, lic.DurationDays, expiresAt); err != nil {
		zap.L().Error("property activation failed, releasing license claim",
			zap.Error(err),
			zap.String("license_id", lic.ID),
			zap.String("property_id", propertyID),
		)
		if rbErr := s.releaseClaim(ctx, lic.ID); rbErr != nil {
			return nil, errutil.PartialFailure(
				"license marked used but property activation failed; manual reconciliation required", rbErr)
		}
		return nil, err
	}

	s.notifyActivated(lic, propertyID, expiresAt)

	return s.repo.FindOne(ctx, &License{ID: lic.ID})
}

// Assign binds an unused license to a property (admin path).
func (s *Service) Assign(ctx context.Context, licenseID, propertyID string) (*License, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	lic, err := s.Get(ctx, licenseID)
	if err != nil {
		return nil, err
	}
	if lic.Status != StatusUnused {
		return nil, errutil.UnprocessableEntity("license already used or revoked", nil)
	}

	if _, err := s.properties.GetProperty(ctx, propertyID); err != nil {
		return nil, err
	}

	out, err := s.activate(ctx, lic, propertyID)
	if err != nil {
		zapLog.Error("failed to assign license",
			zap.Error(err),
			zap.String("license_id", licenseID),
			zap.String("property_id", propertyID),
		)
		return nil, err
	}

	zapLog.Info("license assigned",
		zap.String("license_id", licenseID),
		zap.String("property_id", propertyID),
	)

	return out, nil
}

// Upgrade rewrites the terms of an existing license. A used license keeps its
// original activation anchor: the new expiry is UsedAt + newDuration, not
// now + newDuration, so an upgrade never silently grants extra days.
func (s *Service) Upgrade(ctx context.Context, licenseID string, sel PlanSelection) (*License, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	lic, err := s.Get(ctx, licenseID)
	if err != nil {
		return nil, err
	}

	days, label, err := s.resolveSelection(ctx, sel)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	patch := map[string]interface{}{
		"duration_days": days,
		"plan":          label,
		"updated_at":    now,
	}

	var newExpiresAt *time.Time
	if lic.Status == StatusUsed && lic.UsedAt != nil {
		exp := lic.UsedAt.AddDate(0, 0, days)
		newExpiresAt = &exp
		patch["expires_at"] = exp
	}

	if err := s.repo.Update(ctx, lic.ID, patch); err != nil {
		zapLog.Error("failed to upgrade license", zap.Error(err), zap.String("license_id", licenseID))
		return nil, errutil.Internal("failed to upgrade license", err)
	}

	if newExpiresAt != nil && lic.UsedByPropertyID != nil {
		if err := s.properties.ApplyExpiryExtension(ctx, *lic.UsedByPropertyID, *newExpiresAt); err != nil {
			zapLog.Error("expiry propagation failed, restoring previous terms",
				zap.Error(err), zap.String("license_id", licenseID))
			restore := map[string]interface{}{
				"duration_days": lic.DurationDays,
				"plan":          lic.Plan,
				"expires_at":    lic.ExpiresAt,
				"updated_at":    time.Now(),
			}
			if rbErr := s.repo.Update(ctx, lic.ID, restore); rbErr != nil {
				return nil, errutil.PartialFailure(
					"license terms changed but property expiry not updated; manual reconciliation required", rbErr)
			}
			return nil, err
		}
	}

	return s.repo.FindOne(ctx, &License{ID: lic.ID})
}

// Revoke withdraws a license. The property binding is intentionally kept on
// the revoked row so admins can still see which property held the key.
func (s *Service) Revoke(ctx context.Context, licenseID string) (*License, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	lic, err := s.Get(ctx, licenseID)
	if err != nil {
		return nil, err
	}
	if lic.Status == StatusRevoked {
		return nil, errutil.UnprocessableEntity("license already revoked", nil)
	}

	wasBound := lic.Status == StatusUsed && lic.UsedByPropertyID != nil

	now := time.Now()
	if err := s.repo.Update(ctx, lic.ID, map[string]interface{}{
		"status":     StatusRevoked,
		"updated_at": now,
	}); err != nil {
		zapLog.Error("failed to revoke license", zap.Error(err), zap.String("license_id", licenseID))
		return nil, errutil.Internal("failed to revoke license", err)
	}

	if wasBound {
		if err := s.properties.ApplyLicenseDeactivation(ctx, *lic.UsedByPropertyID); err != nil {
			zapLog.Error("property deactivation failed, restoring license status",
				zap.Error(err), zap.String("license_id", licenseID))
			if rbErr := s.repo.Update(ctx, lic.ID, map[string]interface{}{
				"status":     lic.Status,
				"updated_at": time.Now(),
			}); rbErr != nil {
				return nil, errutil.PartialFailure(
					"license revoked but property still licensed; manual reconciliation required", rbErr)
			}
			return nil, err
		}
	}

	if wasBound {
		s.notifyRevoked(lic.Key, *lic.UsedByPropertyID)
	}

	zapLog.Info("license revoked", zap.String("license_id", licenseID))

	return s.repo.FindOne(ctx, &License{ID: lic.ID})
}

// Unassign frees a used license for reassignment: the bound property drops to
// trial exactly as in Revoke, but the license is wiped back to unused stock,
// binding and timestamps included.
func (s *Service) Unassign(ctx context.Context, licenseID string) (*License, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	lic, err := s.Get(ctx, licenseID)
	if err != nil {
		return nil, err
	}
	if lic.Status != StatusUsed || lic.UsedByPropertyID == nil {
		return nil, errutil.UnprocessableEntity("license is not assigned", nil)
	}

	propertyID := *lic.UsedByPropertyID

	if err := s.releaseClaim(ctx, lic.ID); err != nil {
		zapLog.Error("failed to unassign license", zap.Error(err), zap.String("license_id", licenseID))
		return nil, errutil.Internal("failed to unassign license", err)
	}

	if err := s.properties.ApplyLicenseDeactivation(ctx, propertyID); err != nil {
		zapLog.Error("property deactivation failed, restoring license binding",
			zap.Error(err), zap.String("license_id", licenseID))
		if rbErr := s.repo.Update(ctx, lic.ID, map[string]interface{}{
			"status":              StatusUsed,
			"used_at":             lic.UsedAt,
			"expires_at":          lic.ExpiresAt,
			"used_by_property_id": propertyID,
			"updated_at":          time.Now(),
		}); rbErr != nil {
			return nil, errutil.PartialFailure(
				"license unassigned but property still licensed; manual reconciliation required", rbErr)
		}
		return nil, err
	}

	zapLog.Info("license unassigned",
		zap.String("license_id", licenseID),
		zap.String("property_id", propertyID),
	)

	return s.repo.FindOne(ctx, &License{ID: lic.ID})
}

// Delete removes the license row. For a used license the property reset runs
// first; a delete failure after a successful reset leaves an orphaned used
// row pointing at a trial property, which is surfaced as PartialFailure.
func (s *Service) Delete(ctx context.Context, licenseID string) error {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	lic, err := s.Get(ctx, licenseID)
	if err != nil {
		return err
	}

	wasBound := lic.Status == StatusUsed && lic.UsedByPropertyID != nil
	if wasBound {
		if err := s.properties.ApplyLicenseDeactivation(ctx, *lic.UsedByPropertyID); err != nil {
			zapLog.Error("property deactivation failed, license untouched",
				zap.Error(err), zap.String("license_id", licenseID))
			return err
		}
	}

	if err := s.repo.Delete(ctx, &License{ID: lic.ID}); err != nil {
		zapLog.Error("failed to delete license", zap.Error(err), zap.String("license_id", licenseID))
		if wasBound {
			return errutil.PartialFailure(
				"property reset but license delete failed; manual reconciliation required", err)
		}
		return errutil.Internal("failed to delete license", err)
	}

	zapLog.Info("license deleted", zap.String("license_id", licenseID))

	return nil
}
