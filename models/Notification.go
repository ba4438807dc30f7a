package models

import (
	"time"
)

type Notification struct {
	ID             uint   `json:"id" gorm:"primaryKey"`
	DriverPhoneRef string `json:"driverPhoneRef" gorm:"size:20;not null;index"`

	Type    string `json:"type" gorm:"size:32;index"` // kyc_decision, wallet_credit, ride_update, ...
	Title   string `json:"title" gorm:"size:100"`
	Message string `json:"message" gorm:"size:500"`

	// Reference data
	RefType string `json:"refType" gorm:"size:32"` // ride, wallet_transaction, verification_session
	RefID   string `json:"refID" gorm:"size:64"`

	IsRead    bool       `json:"isRead" gorm:"default:false"`
	CreatedAt time.Time  `json:"createdAt"`
	ReadAt    *time.Time `json:"readAt"`
}
