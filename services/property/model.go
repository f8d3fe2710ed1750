package property

import (
	"time"

	"gorm.io/datatypes"
)

type SubscriptionPlan string

var (
	PlanTrial      SubscriptionPlan = "trial"
	PlanBasic      SubscriptionPlan = "basic"
	PlanPro        SubscriptionPlan = "pro"
	PlanEnterprise SubscriptionPlan = "enterprise"
)

func (p SubscriptionPlan) Valid() bool {
	switch p {
	case PlanTrial, PlanBasic, PlanPro, PlanEnterprise:
		return true
	default:
		return false
	}
}

type SubscriptionStatus string

var (
	StatusTrial          SubscriptionStatus = "trial"
	StatusActive         SubscriptionStatus = "active"
	StatusActiveLicensed SubscriptionStatus = "active_licensed"
	StatusSuspended      SubscriptionStatus = "suspended"
	StatusCancelled      SubscriptionStatus = "cancelled"
)

func (s SubscriptionStatus) Valid() bool {
	switch s {
	case StatusTrial, StatusActive, StatusActiveLicensed, StatusSuspended, StatusCancelled:
		return true
	default:
		return false
	}
}

// Property is the subscription-relevant subset of a tenant (hotel or
// restaurant). CreatedAt anchors the trial window; LicenseExpiresAt is the
// single authoritative paywall deadline once a license is bound.
//
// Settings carries a best-effort audit mirror of the license fields written
// at activation time. It is never read back as a source of truth.
type Property struct {
	ID                 string             `gorm:"column:id;primaryKey" json:"id"`
	CreatedAt          time.Time          `gorm:"column:created_at" json:"created_at"`
	UpdatedAt          time.Time          `gorm:"column:updated_at" json:"updated_at"`
	OwnerID            string             `gorm:"column:owner_id" json:"owner_id"`
	Name               string             `gorm:"column:name" json:"name"`
	Slug               string             `gorm:"column:slug" json:"slug"`
	SubscriptionPlan   SubscriptionPlan   `gorm:"column:subscription_plan" json:"subscription_plan"`
	SubscriptionStatus SubscriptionStatus `gorm:"column:subscription_status" json:"subscription_status"`
	LicenseExpiresAt   *time.Time         `gorm:"column:license_expires_at" json:"license_expires_at"`
	Settings           datatypes.JSON     `gorm:"column:settings" json:"settings"`
}

func (Property) TableName() string {
	return "properties"
}
