package drivers

import (
	"context"
	"sync"
	"time"

	"taxiye-driver-server/models"
)

// MemoryStore is an in-memory Store used by tests and local development,
// mirroring the production table keyed by phone.
type MemoryStore struct {
	mu      sync.Mutex
	byPhone map[string]*models.Driver
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byPhone: map[string]*models.Driver{}}
}

// Seed inserts or replaces a driver row.
func (s *MemoryStore) Seed(driver *models.Driver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *driver
	s.byPhone[driver.Phone] = &cp
}

func (s *MemoryStore) GetByUserID(ctx context.Context, userID string) (*models.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.byPhone {
		if d.UserID == userID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) GetByPhone(ctx context.Context, phone string) (*models.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.byPhone[phone]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, nil
}

func (s *MemoryStore) UpdateByPhone(ctx context.Context, phone string, fields map[string]any) (*models.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.byPhone[phone]
	if !ok {
		return nil, nil
	}
	for column, value := range fields {
		applyField(d, column, value)
	}
	d.UpdatedAt = time.Now()
	cp := *d
	return &cp, nil
}

func applyField(d *models.Driver, column string, value any) {
	switch column {
	case "name":
		d.Name, _ = value.(string)
	case "email":
		d.Email, _ = value.(string)
	case "license_number":
		d.LicenseNumber, _ = value.(string)
	case "vehicle_model":
		d.VehicleModel, _ = value.(string)
	case "vehicle_color":
		d.VehicleColor, _ = value.(string)
	case "plate_number":
		d.PlateNumber, _ = value.(string)
	case "is_online":
		d.IsOnline, _ = value.(bool)
	case "approved_status":
		switch v := value.(type) {
		case models.ApprovalStatus:
			d.ApprovedStatus = v
		case string:
			d.ApprovedStatus = models.ApprovalStatus(v)
		}
	case "reviewed_by":
		d.ReviewedBy, _ = value.(string)
	case "rejection_reason":
		d.RejectionReason, _ = value.(string)
	case "admin_notes":
		d.AdminNotes, _ = value.(string)
	case "wallet_balance":
		d.WalletBalance, _ = value.(float64)
	case "last_reviewed_at":
		switch v := value.(type) {
		case time.Time:
			d.LastReviewedAt = &v
		case *time.Time:
			d.LastReviewedAt = v
		}
	}
}
