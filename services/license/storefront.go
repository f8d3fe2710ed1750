package license

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"zamora-controlplane/pkg/errutil"
	"zamora-controlplane/pkg/keygen"
	"zamora-controlplane/pkg/middleware"
	"zamora-controlplane/pkg/taskname"
	"zamora-controlplane/services/notify"
	"zamora-controlplane/services/plan"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Redeem lets a property owner burn a license key against their own property.
// Lookup misses and non-unused keys collapse into one error message so a
// caller probing random keys learns nothing about which keys exist.
func (s *Service) Redeem(ctx context.Context, id middleware.Identity, propertyID, rawKey string) (*License, error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	key := keygen.Normalize(rawKey)
	if !keygen.Valid(key) {
		return nil, errutil.UnprocessableEntity("invalid or already used license key", nil)
	}

	prop, err := s.properties.GetProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if id.Role != middleware.RoleAdmin && prop.OwnerID != id.UserID {
		return nil, errutil.Forbidden("property does not belong to the requester", nil)
	}

	lic, err := s.repo.FindOne(ctx, &License{Key: key})
	if err != nil {
		return nil, errutil.Internal("failed to look up license", err)
	}
	if lic == nil || lic.Status != StatusUnused {
		return nil, errutil.UnprocessableEntity("invalid or already used license key", nil)
	}

	out, err := s.activate(ctx, lic, propertyID)
	if err != nil {
		zapLog.Error("failed to redeem license",
			zap.Error(err),
			zap.String("property_id", propertyID),
		)
		return nil, err
	}

	zapLog.Info("license redeemed",
		zap.String("license_id", lic.ID),
		zap.String("property_id", propertyID),
	)

	return out, nil
}

// LicenseRequest is the storefront "I want a license" form.
type LicenseRequest struct {
	PropertyID    string `json:"property_id"`
	DurationDays  int    `json:"duration_days"`
	CustomEndDate string `json:"custom_end_date"`
	Feedback      string `json:"feedback"`
}

// RequestLicense quotes a price for the asked-for duration and relays the
// request to the support channel. Nothing is persisted; the admin issues the
// actual license out of band.
func (s *Service) RequestLicense(ctx context.Context, id middleware.Identity, req LicenseRequest) error {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	prop, err := s.properties.GetProperty(ctx, req.PropertyID)
	if err != nil {
		return err
	}
	if id.Role != middleware.RoleAdmin && prop.OwnerID != id.UserID {
		return errutil.Forbidden("property does not belong to the requester", nil)
	}

	days := req.DurationDays
	if req.CustomEndDate != "" {
		end, err := parseEndDate(req.CustomEndDate)
		if err != nil {
			return errutil.ValidationFailed("invalid custom end date", err)
		}
		days = daysFromNow(end, time.Now())
	}
	if days < 1 {
		return errutil.ValidationFailed("duration_days must be at least 1", nil)
	}

	price, currency := s.estimatePrice(ctx, days)

	payload := notify.LicenseRequestPayload{
		PropertyID:   prop.ID,
		PropertyName: prop.Name,
		RequesterID:  id.UserID,
		DurationDays: days,
		PriceCents:   price,
		Currency:     currency,
		Feedback:     req.Feedback,
		Message: fmt.Sprintf("License request: %s (%s) wants %d days, estimated %s %.2f",
			prop.Name, prop.ID, days, currency, float64(price)/100),
	}

	if err := s.enqueue(taskname.LicenseRequestNotify, payload); err != nil {
		zapLog.Error("failed to enqueue license request", zap.Error(err))
		return errutil.Internal("failed to submit license request", err)
	}

	zapLog.Info("license request submitted",
		zap.String("property_id", prop.ID),
		zap.Int("duration_days", days),
	)

	return nil
}

// estimatePrice prorates from the largest active plan not exceeding the asked
// duration; with nothing at or under it, the cheapest plan anchors the rate.
func (s *Service) estimatePrice(ctx context.Context, days int) (int64, string) {
	plans, err := s.plans.ListPlans(ctx, true)
	if err != nil || len(plans) == 0 {
		return 0, string(plan.USD)
	}

	var anchor *plan.LicensePlan
	for _, p := range plans {
		if p.DurationDays <= days && (anchor == nil || p.DurationDays > anchor.DurationDays) {
			anchor = p
		}
	}
	if anchor == nil {
		for _, p := range plans {
			if anchor == nil || p.PriceCents < anchor.PriceCents {
				anchor = p
			}
		}
	}
	if anchor.DurationDays <= 0 {
		return anchor.PriceCents, string(anchor.Currency)
	}

	return anchor.PriceCents * int64(days) / int64(anchor.DurationDays), string(anchor.Currency)
}

// notifyActivated is best-effort: a dropped notification never fails the
// activation that enqueued it.
func (s *Service) notifyActivated(lic *License, propertyID string, expiresAt time.Time) {
	until := fmt.Sprintf("until %s", expiresAt.Format(time.DateOnly))
	if lic.Lifetime() {
		until = "indefinitely"
	}
	payload := notify.LicenseActivatedPayload{
		PropertyID: propertyID,
		LicenseKey: lic.Key,
		ExpiresAt:  expiresAt.Format(time.RFC3339),
		Message:    fmt.Sprintf("License %s activated for property %s %s", lic.Key, propertyID, until),
	}
	if err := s.enqueue(taskname.LicenseActivatedNotify, payload); err != nil {
		zap.L().Warn("failed to enqueue activation notification",
			zap.Error(err),
			zap.String("property_id", propertyID),
		)
	}
}

func (s *Service) notifyRevoked(licenseKey, propertyID string) {
	payload := notify.LicenseRevokedPayload{
		PropertyID: propertyID,
		LicenseKey: licenseKey,
		Message:    fmt.Sprintf("License %s revoked; property %s dropped to trial", licenseKey, propertyID),
	}
	if err := s.enqueue(taskname.LicenseRevokedNotify, payload); err != nil {
		zap.L().Warn("failed to enqueue revocation notification",
			zap.Error(err),
			zap.String("property_id", propertyID),
		)
	}
}

func (s *Service) enqueue(name string, payload interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.asynq.Enqueue(asynq.NewTask(name, b))
	return err
}
