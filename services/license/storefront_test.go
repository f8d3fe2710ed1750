package license

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"zamora-controlplane/pkg/middleware"
	"zamora-controlplane/pkg/taskname"
	"zamora-controlplane/services/notify"
	"zamora-controlplane/services/property"

	"github.com/stretchr/testify/require"
)

func ownerIdentity(userID string) middleware.Identity {
	return middleware.Identity{UserID: userID, Role: middleware.RoleOwner}
}

func TestRedeemHappyPath(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	prop := h.seedProperty(t, "user-1", "Livingstone Lodge")
	lic, err := h.licenses.Generate(ctx, PlanSelection{DurationDays: 30})
	require.NoError(t, err)

	redeemed, err := h.licenses.Redeem(ctx, ownerIdentity("user-1"), prop.ID, lic.Key)
	require.NoError(t, err)
	require.Equal(t, StatusUsed, redeemed.Status)
	require.Equal(t, prop.ID, *redeemed.UsedByPropertyID)

	got, err := h.properties.GetProperty(ctx, prop.ID)
	require.NoError(t, err)
	require.Equal(t, property.StatusActiveLicensed, got.SubscriptionStatus)
}

func TestRedeemNormalizesKey(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	prop := h.seedProperty(t, "user-1", "Livingstone Lodge")
	lic, err := h.licenses.Generate(ctx, PlanSelection{DurationDays: 30})
	require.NoError(t, err)

	sloppy := "  " + strings.ToLower(lic.Key) + " "
	redeemed, err := h.licenses.Redeem(ctx, ownerIdentity("user-1"), prop.ID, sloppy)
	require.NoError(t, err)
	require.Equal(t, lic.ID, redeemed.ID)
}

func TestRedeemRejectsForeignProperty(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	prop := h.seedProperty(t, "user-1", "Livingstone Lodge")
	lic, err := h.licenses.Generate(ctx, PlanSelection{DurationDays: 30})
	require.NoError(t, err)

	_, err = h.licenses.Redeem(ctx, ownerIdentity("intruder"), prop.ID, lic.Key)
	require.Error(t, err)

	got, err := h.licenses.Get(ctx, lic.ID)
	require.NoError(t, err)
	require.Equal(t, StatusUnused, got.Status)
}

func TestRedeemAdminBypassesOwnership(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	prop := h.seedProperty(t, "user-1", "Livingstone Lodge")
	lic, err := h.licenses.Generate(ctx, PlanSelection{DurationDays: 30})
	require.NoError(t, err)

	admin := middleware.Identity{UserID: "ops", Role: middleware.RoleAdmin}
	_, err = h.licenses.Redeem(ctx, admin, prop.ID, lic.Key)
	require.NoError(t, err)
}

func TestRedeemBadKeysAreIndistinguishable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	prop := h.seedProperty(t, "user-1", "Livingstone Lodge")
	other := h.seedProperty(t, "user-1", "Mongu Resort")
	lic, err := h.licenses.Generate(ctx, PlanSelection{DurationDays: 30})
	require.NoError(t, err)

	_, err = h.licenses.Redeem(ctx, ownerIdentity("user-1"), prop.ID, lic.Key)
	require.NoError(t, err)

	// An already-used key and a key that never existed produce the same
	// error, so probing leaks nothing.
	_, errUsed := h.licenses.Redeem(ctx, ownerIdentity("user-1"), other.ID, lic.Key)
	require.Error(t, errUsed)

	_, errMissing := h.licenses.Redeem(ctx, ownerIdentity("user-1"), other.ID, "ZAMR-AAAA-BBBB-CCCC")
	require.Error(t, errMissing)

	require.Equal(t, errMissing.Error(), errUsed.Error())

	_, errMangled := h.licenses.Redeem(ctx, ownerIdentity("user-1"), other.ID, "garbage")
	require.Error(t, errMangled)
	require.Equal(t, errMissing.Error(), errMangled.Error())
}

func TestRequestLicenseEnqueuesNotification(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.seedPlan(t, "Monthly", 30, 3000)
	prop := h.seedProperty(t, "user-1", "Livingstone Lodge")

	err := h.licenses.RequestLicense(ctx, ownerIdentity("user-1"), LicenseRequest{
		PropertyID:   prop.ID,
		DurationDays: 60,
		Feedback:     "please call in the morning",
	})
	require.NoError(t, err)

	require.Len(t, h.enqueuer.tasks, 1)
	task := h.enqueuer.tasks[0]
	require.Equal(t, taskname.LicenseRequestNotify, task.Type())

	var payload notify.LicenseRequestPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	require.Equal(t, prop.ID, payload.PropertyID)
	require.Equal(t, "user-1", payload.RequesterID)
	require.Equal(t, 60, payload.DurationDays)
	require.Equal(t, int64(6000), payload.PriceCents, "60 days prorated off the 30-day plan")
	require.Equal(t, "please call in the morning", payload.Feedback)
}

func TestRequestLicenseOwnershipAndValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	prop := h.seedProperty(t, "user-1", "Livingstone Lodge")

	err := h.licenses.RequestLicense(ctx, ownerIdentity("intruder"), LicenseRequest{
		PropertyID:   prop.ID,
		DurationDays: 30,
	})
	require.Error(t, err)

	err = h.licenses.RequestLicense(ctx, ownerIdentity("user-1"), LicenseRequest{
		PropertyID: prop.ID,
	})
	require.Error(t, err, "zero duration with no end date is invalid")

	require.Empty(t, h.enqueuer.tasks)
}

func TestEstimatePrice(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.seedPlan(t, "Monthly", 30, 3000)
	h.seedPlan(t, "Annual", 365, 29200)

	price, currency := h.licenses.estimatePrice(ctx, 60)
	require.Equal(t, int64(6000), price, "anchored on the 30-day plan")
	require.Equal(t, "USD", currency)

	price, _ = h.licenses.estimatePrice(ctx, 400)
	require.Equal(t, int64(32000), price, "anchored on the 365-day plan")

	// Shorter than every plan: the cheapest plan sets the rate.
	price, _ = h.licenses.estimatePrice(ctx, 15)
	require.Equal(t, int64(1500), price)
}

func TestEstimatePriceWithoutCatalog(t *testing.T) {
	h := newHarness(t)

	price, currency := h.licenses.estimatePrice(context.Background(), 30)
	require.Zero(t, price)
	require.Equal(t, "USD", currency)
}
