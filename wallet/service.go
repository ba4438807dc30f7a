package wallet

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taxiye-driver-server/models"
)

var (
	ErrDriverNotFound      = errors.New("wallet: driver not found")
	ErrInsufficientBalance = errors.New("wallet: insufficient balance")
	ErrZeroAmount          = errors.New("wallet: amount must be non-zero")
)

// Service moves driver wallet balances. Every balance change goes through
// Apply, which locks the driver row, writes the ledger entry and the new
// balance in one database transaction; the balance never goes negative.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Apply credits (amount > 0) or debits (amount < 0) the driver's wallet and
// returns the ledger entry carrying the balance after.
func (s *Service) Apply(ctx context.Context, phone string, amount float64, txType models.WalletTxType, reference, description string) (*models.WalletTransaction, error) {
	if amount == 0 {
		return nil, ErrZeroAmount
	}

	var entry models.WalletTransaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var driver models.Driver
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("phone = ?", phone).First(&driver).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrDriverNotFound
			}
			return err
		}

		newBalance := driver.WalletBalance + amount
		if newBalance < 0 {
			return ErrInsufficientBalance
		}

		if err := tx.Model(&models.Driver{}).Where("phone = ?", phone).
			Update("wallet_balance", newBalance).Error; err != nil {
			return err
		}

		entry = models.WalletTransaction{
			DriverPhoneRef: phone,
			Type:           txType,
			Amount:         amount,
			BalanceAfter:   newBalance,
			Reference:      reference,
			Description:    description,
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ApplyTx is Apply running inside an existing transaction, for callers that
// bundle the wallet move with other writes (promo redemption, ride
// completion).
func (s *Service) ApplyTx(tx *gorm.DB, phone string, amount float64, txType models.WalletTxType, reference, description string) (*models.WalletTransaction, error) {
	if amount == 0 {
		return nil, ErrZeroAmount
	}

	var driver models.Driver
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("phone = ?", phone).First(&driver).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrDriverNotFound
		}
		return nil, err
	}

	newBalance := driver.WalletBalance + amount
	if newBalance < 0 {
		return nil, ErrInsufficientBalance
	}

	if err := tx.Model(&models.Driver{}).Where("phone = ?", phone).
		Update("wallet_balance", newBalance).Error; err != nil {
		return nil, err
	}

	entry := models.WalletTransaction{
		DriverPhoneRef: phone,
		Type:           txType,
		Amount:         amount,
		BalanceAfter:   newBalance,
		Reference:      reference,
		Description:    description,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// History pages through a driver's ledger, newest first.
func (s *Service) History(ctx context.Context, phone string, page, perPage int) ([]models.WalletTransaction, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 || perPage > 100 {
		perPage = 25
	}

	q := s.db.WithContext(ctx).Model(&models.WalletTransaction{}).Where("driver_phone_ref = ?", phone)

	var total int64
	q.Count(&total)

	var entries []models.WalletTransaction
	err := q.Order("created_at DESC").Offset((page - 1) * perPage).Limit(perPage).Find(&entries).Error
	return entries, total, err
}
