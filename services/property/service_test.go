package property

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"zamora-controlplane/pkg/config"
	"zamora-controlplane/services/testutil"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Licensing.KeyPrefix = "ZAMR"
	cfg.Licensing.TrialDays = 14
	cfg.Licensing.WarningDays = 3

	return NewService(ServiceParams{
		DB:     testutil.NewTestDB(t, &Property{}),
		Node:   node,
		Config: cfg,
	})
}

func TestCreateProperty(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProperty(ctx, CreatePropertyRequest{
		OwnerID: "user-1",
		Name:    "Victoria Falls Lodge",
	})
	require.NoError(t, err)
	require.Equal(t, "victoria-falls-lodge", p.Slug)
	require.Equal(t, PlanTrial, p.SubscriptionPlan)
	require.Equal(t, StatusTrial, p.SubscriptionStatus)
	require.Nil(t, p.LicenseExpiresAt)

	_, err = svc.CreateProperty(ctx, CreatePropertyRequest{
		OwnerID: "user-2",
		Name:    "Victoria Falls Lodge",
	})
	require.Error(t, err, "duplicate slug should conflict")
}

func TestCreatePropertyValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateProperty(ctx, CreatePropertyRequest{OwnerID: "user-1"})
	require.Error(t, err)

	_, err = svc.CreateProperty(ctx, CreatePropertyRequest{Name: "No Owner"})
	require.Error(t, err)
}

func TestApplyLicenseActivation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProperty(ctx, CreatePropertyRequest{OwnerID: "user-1", Name: "Lusaka Grand"})
	require.NoError(t, err)

	expiresAt := time.Now().AddDate(0, 0, 30)
	require.NoError(t, svc.ApplyLicenseActivation(ctx, p.ID, "ZAMR-AAAA-BBBB-CCCC", 30, expiresAt))

	got, err := svc.GetProperty(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, StatusActiveLicensed, got.SubscriptionStatus)
	require.Equal(t, PlanPro, got.SubscriptionPlan)
	require.NotNil(t, got.LicenseExpiresAt)
	require.WithinDuration(t, expiresAt, *got.LicenseExpiresAt, time.Second)

	var bag map[string]interface{}
	require.NoError(t, json.Unmarshal(got.Settings, &bag))
	require.Equal(t, "ZAMR-AAAA-BBBB-CCCC", bag["license_key"])
}

func TestApplyLicenseDeactivation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProperty(ctx, CreatePropertyRequest{OwnerID: "user-1", Name: "Kafue Camp"})
	require.NoError(t, err)

	require.NoError(t, svc.ApplyLicenseActivation(ctx, p.ID, "ZAMR-AAAA-BBBB-CCCC", 30, time.Now().AddDate(0, 0, 30)))
	require.NoError(t, svc.ApplyLicenseDeactivation(ctx, p.ID))

	got, err := svc.GetProperty(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, StatusTrial, got.SubscriptionStatus)
	require.Equal(t, PlanTrial, got.SubscriptionPlan)

	// The deadline lands in the past instead of being cleared, so the
	// paywall drops immediately instead of restarting the trial.
	require.NotNil(t, got.LicenseExpiresAt)
	eval, err := svc.Evaluate(ctx, p.ID, time.Now().Add(time.Second))
	require.NoError(t, err)
	require.True(t, eval.Expired)
}

func TestApplyExpiryExtension(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProperty(ctx, CreatePropertyRequest{OwnerID: "user-1", Name: "Ndola Suites"})
	require.NoError(t, err)

	require.NoError(t, svc.ApplyLicenseActivation(ctx, p.ID, "ZAMR-AAAA-BBBB-CCCC", 30, time.Now().AddDate(0, 0, 30)))

	extended := time.Now().AddDate(0, 0, 90)
	require.NoError(t, svc.ApplyExpiryExtension(ctx, p.ID, extended))

	got, err := svc.GetProperty(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, StatusActiveLicensed, got.SubscriptionStatus, "tier must not change on extension")
	require.WithinDuration(t, extended, *got.LicenseExpiresAt, time.Second)
}

func TestEvaluateThroughService(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProperty(ctx, CreatePropertyRequest{OwnerID: "user-1", Name: "Chipata Inn"})
	require.NoError(t, err)

	eval, err := svc.Evaluate(ctx, p.ID, time.Now())
	require.NoError(t, err)
	require.False(t, eval.Expired)
	require.Equal(t, 14, eval.DaysRemaining)

	eval, err = svc.Evaluate(ctx, p.ID, time.Now().AddDate(0, 0, 20))
	require.NoError(t, err)
	require.True(t, eval.Expired)
}
