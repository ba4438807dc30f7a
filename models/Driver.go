package models

import (
	"time"
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Driver is keyed by phone number; the phone doubles as the natural key the
// rest of the store references (documents, wallet, rides).
type Driver struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	Phone           string         `json:"phone" gorm:"uniqueIndex;size:20;not null"`
	UserID          string         `json:"userID" gorm:"size:64;index"`
	Name            string         `json:"name" gorm:"size:256"`
	Email           string         `json:"email" gorm:"size:256"`
	LicenseNumber   string         `json:"licenseNumber" gorm:"size:64"`
	VehicleModel    string         `json:"vehicleModel" gorm:"size:128"`
	VehicleColor    string         `json:"vehicleColor" gorm:"size:64"`
	PlateNumber     string         `json:"plateNumber" gorm:"size:32"`
	ApprovedStatus  ApprovalStatus `json:"approvedStatus" gorm:"type:varchar(20);default:'pending';index"`
	WalletBalance   float64        `json:"walletBalance" gorm:"default:0"`
	IsOnline        bool           `json:"isOnline" gorm:"default:false"`
	RejectionReason string         `json:"rejectionReason" gorm:"type:text"`
	AdminNotes      string         `json:"adminNotes" gorm:"type:text"`
	ReviewedBy      string         `json:"reviewedBy" gorm:"size:64"`
	LastReviewedAt  *time.Time     `json:"lastReviewedAt"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}
