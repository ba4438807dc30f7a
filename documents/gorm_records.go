package documents

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taxiye-driver-server/models"
)

// GormRecordStore persists document rows with upsert-on-(phone, type)
// semantics: a later upload of the same type overwrites the earlier row.
type GormRecordStore struct {
	db *gorm.DB
}

func NewGormRecordStore(db *gorm.DB) *GormRecordStore {
	return &GormRecordStore{db: db}
}

func (s *GormRecordStore) Upsert(ctx context.Context, rec *models.DriverDocument) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "driver_phone_ref"}, {Name: "type"}},
		DoUpdates: clause.AssignmentColumns([]string{"file_url", "status", "uploaded_at", "updated_at"}),
	}).Create(rec).Error
}

func (s *GormRecordStore) ListByPhone(ctx context.Context, phone string) ([]models.DriverDocument, error) {
	var docs []models.DriverDocument
	err := s.db.WithContext(ctx).Where("driver_phone_ref = ?", phone).Order("type").Find(&docs).Error
	return docs, err
}
