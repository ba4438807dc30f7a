package models

import (
	"time"
)

type DocumentType string

const (
	DocumentNationalID       DocumentType = "national_id"
	DocumentDriverLicense    DocumentType = "driver_license"
	DocumentVehiclePhoto     DocumentType = "vehicle_photo"
	DocumentOwnership        DocumentType = "ownership"
	DocumentSelfie           DocumentType = "selfie"
	DocumentProfilePhoto     DocumentType = "profile_photo"
	DocumentDigitalSignature DocumentType = "digital_signature"
)

// DriverDocument is the persisted half of an upload: one row per
// (driver phone, document type), overwritten by later uploads of the
// same type.
type DriverDocument struct {
	ID             uint         `json:"id" gorm:"primaryKey"`
	DriverPhoneRef string       `json:"driverPhoneRef" gorm:"size:20;not null;uniqueIndex:idx_driver_doc_type"`
	Type           DocumentType `json:"type" gorm:"size:32;not null;uniqueIndex:idx_driver_doc_type"`
	FileURL        string       `json:"fileURL" gorm:"size:512;not null"`
	Status         string       `json:"status" gorm:"size:20;default:'pending';index"` // pending, verified, rejected
	UploadedAt     time.Time    `json:"uploadedAt"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}
