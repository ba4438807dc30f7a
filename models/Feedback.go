package models

import "gorm.io/gorm"

// Feedback represents a driver-submitted support ticket or app feedback
type Feedback struct {
	gorm.Model
	DriverPhoneRef string `json:"driverPhoneRef" gorm:"size:20;index;not null"`
	Title          string `json:"title" gorm:"size:200"`
	Message        string `json:"message" gorm:"type:text;not null"`
	Rating         *int   `json:"rating" gorm:"index"`     // optional 1-5
	Context        string `json:"context" gorm:"size:200"` // e.g., screen/component
	AppVersion     string `json:"appVersion" gorm:"size:50"`
	DeviceInfo     string `json:"deviceInfo" gorm:"size:200"`
}
