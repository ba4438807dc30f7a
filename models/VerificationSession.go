package models

import (
	"time"
)

type VerificationResult string

const (
	VerificationApproved       VerificationResult = "approved"
	VerificationRequiresReview VerificationResult = "requires_review"
)

// VerificationSession records one automated KYC verification attempt.
// The confidence score is written once at completion and never changed.
type VerificationSession struct {
	ID                  string             `json:"id" gorm:"primaryKey;size:36"`
	DriverPhoneRef      string             `json:"driverPhoneRef" gorm:"size:20;not null;index"`
	SessionStatus       string             `json:"sessionStatus" gorm:"size:20;default:'in_progress'"` // in_progress, completed
	LivenessCheckPassed bool               `json:"livenessCheckPassed"`
	AIConfidenceScore   float64            `json:"aiConfidenceScore"`
	VerificationResult  VerificationResult `json:"verificationResult" gorm:"size:20"`
	FailureReason       string             `json:"failureReason" gorm:"type:text"`
	CompletedAt         *time.Time         `json:"completedAt"`
	CreatedAt           time.Time          `json:"createdAt"`
	UpdatedAt           time.Time          `json:"updatedAt"`
}
