package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuthUser is the credentials row behind the session adapter. The identifier
// is the synthetic email derived from the driver's phone number; the provider
// only accepts email-shaped logins.
type AuthUser struct {
	gorm.Model
	UserID         string         `json:"userID" gorm:"uniqueIndex;size:64;not null"`
	Identifier     string         `json:"identifier" gorm:"uniqueIndex;size:256;not null"`
	Password       string         `json:"-"`
	Metadata       datatypes.JSON `json:"metadata"`
	Role           string         `json:"role" gorm:"type:varchar(20);default:driver;index"` // driver, admin, super_admin
	EmailConfirmed bool           `json:"emailConfirmed" gorm:"default:true"`
}
