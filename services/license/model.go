package license

import "time"

type Status string

var (
	StatusUnused  Status = "unused"
	StatusUsed    Status = "used"
	StatusRevoked Status = "revoked"
)

func (s Status) Valid() bool {
	switch s {
	case StatusUnused, StatusUsed, StatusRevoked:
		return true
	default:
		return false
	}
}

// LifetimeDays is the sentinel duration meaning "never expires in practice".
const LifetimeDays = 36500

// License is a time-bounded authorization key. Exactly one of the following
// holds at any time: it is unissued stock (unused, no binding), bound to one
// property (used), or withdrawn (revoked). Revoked licenses deliberately keep
// UsedByPropertyID as an audit trail; only Unassign clears the binding so the
// key can be handed to a different property.
type License struct {
	ID               string     `gorm:"column:id;primaryKey" json:"id"`
	CreatedAt        time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at" json:"updated_at"`
	Key              string     `gorm:"column:key;uniqueIndex" json:"key"`
	Plan             string     `gorm:"column:plan" json:"plan"`
	Status           Status     `gorm:"column:status" json:"status"`
	DurationDays     int        `gorm:"column:duration_days" json:"duration_days"`
	UsedAt           *time.Time `gorm:"column:used_at" json:"used_at"`
	ExpiresAt        *time.Time `gorm:"column:expires_at" json:"expires_at"`
	UsedByPropertyID *string    `gorm:"column:used_by_property_id" json:"used_by_property_id"`
}

func (License) TableName() string {
	return "licenses"
}

func (l *License) Lifetime() bool {
	return l.DurationDays >= LifetimeDays
}
