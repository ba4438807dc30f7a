package drivers

import (
	"context"

	"gorm.io/gorm"

	"taxiye-driver-server/models"
)

// GormStore is the production Store over the drivers table.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetByUserID(ctx context.Context, userID string) (*models.Driver, error) {
	var driver models.Driver
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&driver).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &driver, nil
}

func (s *GormStore) GetByPhone(ctx context.Context, phone string) (*models.Driver, error) {
	var driver models.Driver
	err := s.db.WithContext(ctx).Where("phone = ?", phone).First(&driver).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &driver, nil
}

func (s *GormStore) UpdateByPhone(ctx context.Context, phone string, fields map[string]any) (*models.Driver, error) {
	var driver models.Driver
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Driver{}).Where("phone = ?", phone).Updates(fields).Error; err != nil {
			return err
		}
		return tx.Where("phone = ?", phone).First(&driver).Error
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &driver, nil
}
