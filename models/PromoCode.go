package models

import (
	"time"
)

type PromoCode struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	Code       string     `json:"code" gorm:"uniqueIndex;size:32;not null"`
	Amount     float64    `json:"amount" gorm:"not null"`      // wallet credit granted on redemption
	UsageLimit int        `json:"usageLimit" gorm:"default:0"` // 0 = unlimited
	UsageCount int        `json:"usageCount" gorm:"default:0"`
	ExpiresAt  *time.Time `json:"expiresAt"`
	IsActive   bool       `json:"isActive" gorm:"default:true"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// PromoRedemption: one row per (driver, code); a driver redeems a code once.
type PromoRedemption struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	PromoCodeID    uint      `json:"promoCodeID" gorm:"not null;uniqueIndex:idx_promo_driver"`
	DriverPhoneRef string    `json:"driverPhoneRef" gorm:"size:20;not null;uniqueIndex:idx_promo_driver"`
	Amount         float64   `json:"amount"`
	CreatedAt      time.Time `json:"createdAt"`
}
