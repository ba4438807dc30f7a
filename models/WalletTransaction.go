package models

import (
	"time"
)

type WalletTxType string

const (
	WalletTxTopUp       WalletTxType = "topup"
	WalletTxRideEarning WalletTxType = "ride_earning"
	WalletTxPromoCredit WalletTxType = "promo_credit"
	WalletTxWithdrawal  WalletTxType = "withdrawal"
)

// WalletTransaction is the ledger entry; Driver.WalletBalance is only ever
// moved by applying one of these inside a single database transaction.
type WalletTransaction struct {
	ID             uint         `json:"id" gorm:"primaryKey"`
	DriverPhoneRef string       `json:"driverPhoneRef" gorm:"size:20;not null;index"`
	Type           WalletTxType `json:"type" gorm:"size:32;not null;index"`
	Amount         float64      `json:"amount" gorm:"not null"` // signed: credit > 0, debit < 0
	BalanceAfter   float64      `json:"balanceAfter"`
	Reference      string       `json:"reference" gorm:"size:64;index"` // ride id, promo code, ...
	Description    string       `json:"description" gorm:"size:256"`
	CreatedAt      time.Time    `json:"createdAt"`
}
