package plan

import "time"

type Currency string

var (
	USD Currency = "USD"
	ZMW Currency = "ZMW"
)

func (c Currency) Valid() bool {
	switch c {
	case USD, ZMW:
		return true
	default:
		return false
	}
}

func (c Currency) String() string {
	return string(c)
}

// LicensePlan is a (duration, price) template used to pre-fill license terms
// at issuance time. Issued licenses copy the plan name as free text, so rows
// here can be edited or deleted without touching licenses in the field.
type LicensePlan struct {
	ID           string    `gorm:"column:id;primaryKey" json:"id"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updated_at"`
	Name         string    `gorm:"column:name" json:"name"`
	DurationDays int       `gorm:"column:duration_days" json:"duration_days"`
	PriceCents   int64     `gorm:"column:price_cents" json:"price_cents"`
	Currency     Currency  `gorm:"column:currency" json:"currency"`
	IsActive     bool      `gorm:"column:is_active" json:"is_active"`
}

func (LicensePlan) TableName() string {
	return "license_plans"
}
