package property

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func evalFixture(status SubscriptionStatus, createdAt time.Time, expiresAt *time.Time) *Property {
	return &Property{
		ID:                 "prop-1",
		CreatedAt:          createdAt,
		SubscriptionStatus: status,
		LicenseExpiresAt:   expiresAt,
	}
}

func TestEvaluateTrialWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("fresh trial is not expired", func(t *testing.T) {
		p := evalFixture(StatusTrial, now.AddDate(0, 0, -1), nil)
		eval := Evaluate(p, now, 14, 3)
		require.False(t, eval.Expired)
		require.False(t, eval.ExpiringSoon)
		require.Equal(t, 13, eval.DaysRemaining)
	})

	t.Run("trial past its window is expired", func(t *testing.T) {
		p := evalFixture(StatusTrial, now.AddDate(0, 0, -15), nil)
		eval := Evaluate(p, now, 14, 3)
		require.True(t, eval.Expired)
		require.False(t, eval.ExpiringSoon)
		require.Equal(t, 0, eval.DaysRemaining)
	})

	t.Run("trial inside the warning window", func(t *testing.T) {
		p := evalFixture(StatusTrial, now.AddDate(0, 0, -12), nil)
		eval := Evaluate(p, now, 14, 3)
		require.False(t, eval.Expired)
		require.True(t, eval.ExpiringSoon)
		require.Equal(t, 2, eval.DaysRemaining)
	})
}

func TestEvaluateLicenseDeadline(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("license expiry overrides the trial window", func(t *testing.T) {
		exp := now.AddDate(0, 0, 30)
		p := evalFixture(StatusActiveLicensed, now.AddDate(0, 0, -100), &exp)
		eval := Evaluate(p, now, 14, 3)
		require.False(t, eval.Expired)
		require.Equal(t, 30, eval.DaysRemaining)
	})

	t.Run("past license expiry is expired even on trial status", func(t *testing.T) {
		exp := now.Add(-time.Minute)
		p := evalFixture(StatusTrial, now.AddDate(0, 0, -1), &exp)
		eval := Evaluate(p, now, 14, 3)
		require.True(t, eval.Expired)
		require.Equal(t, 0, eval.DaysRemaining)
	})

	t.Run("expiry exactly now counts as expired", func(t *testing.T) {
		exp := now
		p := evalFixture(StatusActiveLicensed, now.AddDate(0, 0, -1), &exp)
		eval := Evaluate(p, now, 14, 3)
		require.True(t, eval.Expired)
	})

	t.Run("partial day rounds up", func(t *testing.T) {
		exp := now.Add(36 * time.Hour)
		p := evalFixture(StatusActiveLicensed, now, &exp)
		eval := Evaluate(p, now, 14, 3)
		require.Equal(t, 2, eval.DaysRemaining)
	})
}

func TestEvaluateUnboundedSubscription(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	p := evalFixture(StatusActive, now.AddDate(-1, 0, 0), nil)
	eval := Evaluate(p, now, 14, 3)
	require.False(t, eval.Expired)
	require.False(t, eval.ExpiringSoon)
	require.Equal(t, 0, eval.DaysRemaining)
}
