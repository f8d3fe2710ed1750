package property

import "time"

// Evaluation is the paywall view of a property at a given instant. It is
// recomputed on every read; nothing here is stored.
type Evaluation struct {
	Expired       bool `json:"expired"`
	ExpiringSoon  bool `json:"expiring_soon"`
	DaysRemaining int  `json:"days_remaining"`
}

// Evaluate derives the paywall state from a property snapshot and "now".
// A set LicenseExpiresAt is the deadline regardless of status: deactivation
// writes an already-past timestamp there precisely so this reads as expired.
// With no override, properties still in trial expire trialDays after
// creation; non-trial properties without a deadline are left alone.
func Evaluate(p *Property, now time.Time, trialDays, warningDays int) Evaluation {
	deadline, bounded := deadlineFor(p, trialDays)

	eval := Evaluation{}
	if !bounded {
		return eval
	}

	eval.Expired = !deadline.After(now)
	eval.DaysRemaining = daysUntil(deadline, now)
	eval.ExpiringSoon = !eval.Expired && eval.DaysRemaining > 0 && eval.DaysRemaining <= warningDays

	return eval
}

func deadlineFor(p *Property, trialDays int) (time.Time, bool) {
	if p.LicenseExpiresAt != nil {
		return *p.LicenseExpiresAt, true
	}
	if p.SubscriptionStatus == StatusTrial {
		return p.CreatedAt.AddDate(0, 0, trialDays), true
	}
	return time.Time{}, false
}

// daysUntil is ceil((deadline - now) / 1 day), floored at zero.
func daysUntil(deadline, now time.Time) int {
	remaining := deadline.Sub(now)
	if remaining <= 0 {
		return 0
	}
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) != 0 {
		days++
	}
	return days
}
