package models

import (
	"time"
)

type RideStatus string

const (
	RideRequested  RideStatus = "requested"
	RideAccepted   RideStatus = "accepted"
	RideInProgress RideStatus = "in_progress"
	RideCompleted  RideStatus = "completed"
	RideCancelled  RideStatus = "cancelled"
)

type Ride struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	DriverPhoneRef string     `json:"driverPhoneRef" gorm:"size:20;index"`
	PassengerName  string     `json:"passengerName" gorm:"size:256"`
	PassengerPhone string     `json:"passengerPhone" gorm:"size:20;index"`
	PickupAddress  string     `json:"pickupAddress" gorm:"size:512"`
	DropoffAddress string     `json:"dropoffAddress" gorm:"size:512"`
	Fare           float64    `json:"fare"`
	DriverEarnings float64    `json:"driverEarnings"`
	Status         RideStatus `json:"status" gorm:"type:varchar(20);default:'requested';index"`
	CancelReason   string     `json:"cancelReason" gorm:"size:256"`
	StartedAt      *time.Time `json:"startedAt"`
	CompletedAt    *time.Time `json:"completedAt"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}
