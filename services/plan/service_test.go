package plan

import (
	"context"
	"testing"

	"zamora-controlplane/services/testutil"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(ServiceParams{
		DB:   testutil.NewTestDB(t, &LicensePlan{}),
		Node: node,
	})
}

func seedPlan(t *testing.T, svc *Service, name string, days int, cents int64, active bool) *LicensePlan {
	t.Helper()

	p, err := svc.UpsertPlan(context.Background(), UpsertPlanRequest{
		Name:         name,
		DurationDays: days,
		PriceCents:   cents,
		Currency:     USD,
		IsActive:     &active,
	})
	require.NoError(t, err)
	return p
}

func TestUpsertPlanCreate(t *testing.T) {
	svc := newTestService(t)

	p := seedPlan(t, svc, "Monthly", 30, 4900, true)
	require.NotEmpty(t, p.ID)
	require.Equal(t, 30, p.DurationDays)
	require.Equal(t, int64(4900), p.PriceCents)
	require.True(t, p.IsActive)
}

func TestUpsertPlanValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cases := []UpsertPlanRequest{
		{Name: "", DurationDays: 30, Currency: USD},
		{Name: "Monthly", DurationDays: 0, Currency: USD},
		{Name: "Monthly", DurationDays: 30, PriceCents: -1, Currency: USD},
		{Name: "Monthly", DurationDays: 30, Currency: "EUR"},
	}
	for _, req := range cases {
		_, err := svc.UpsertPlan(ctx, req)
		require.Error(t, err)
	}
}

func TestUpsertPlanUpdate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p := seedPlan(t, svc, "Monthly", 30, 4900, true)

	inactive := false
	updated, err := svc.UpsertPlan(ctx, UpsertPlanRequest{
		ID:           p.ID,
		Name:         "Monthly Legacy",
		DurationDays: 30,
		PriceCents:   3900,
		Currency:     USD,
		IsActive:     &inactive,
	})
	require.NoError(t, err)
	require.Equal(t, "Monthly Legacy", updated.Name)
	require.Equal(t, int64(3900), updated.PriceCents)
	require.False(t, updated.IsActive)

	_, err = svc.UpsertPlan(ctx, UpsertPlanRequest{
		ID:           "missing",
		Name:         "Ghost",
		DurationDays: 30,
		Currency:     USD,
	})
	require.Error(t, err)
}

func TestListPlansOrderAndFilter(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	seedPlan(t, svc, "Annual", 365, 39900, true)
	seedPlan(t, svc, "Monthly", 30, 4900, true)
	seedPlan(t, svc, "Retired", 90, 9900, false)

	all, err := svc.ListPlans(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, 30, all[0].DurationDays)
	require.Equal(t, 365, all[2].DurationDays)

	active, err := svc.ListPlans(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 2)
	for _, p := range active {
		require.True(t, p.IsActive)
	}
}

func TestDedupeByDuration(t *testing.T) {
	a := &LicensePlan{ID: "a", DurationDays: 30}
	b := &LicensePlan{ID: "b", DurationDays: 30}
	c := &LicensePlan{ID: "c", DurationDays: 90}

	out := DedupeByDuration([]*LicensePlan{a, b, c})
	require.Len(t, out, 2)
	require.Equal(t, "a", out[0].ID)
	require.Equal(t, "c", out[1].ID)
}

func TestDeletePlan(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p := seedPlan(t, svc, "Monthly", 30, 4900, true)
	require.NoError(t, svc.DeletePlan(ctx, p.ID))

	_, err := svc.GetPlan(ctx, p.ID)
	require.Error(t, err)

	require.Error(t, svc.DeletePlan(ctx, "missing"))
}
