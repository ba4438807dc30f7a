package verification

import (
	"context"
	"sync"

	"gorm.io/gorm"

	"taxiye-driver-server/models"
)

// GormSessionStore persists verification attempts in the
// verification_sessions table.
type GormSessionStore struct {
	db *gorm.DB
}

func NewGormSessionStore(db *gorm.DB) *GormSessionStore {
	return &GormSessionStore{db: db}
}

func (s *GormSessionStore) Create(ctx context.Context, sess *models.VerificationSession) error {
	return s.db.WithContext(ctx).Create(sess).Error
}

func (s *GormSessionStore) Complete(ctx context.Context, sess *models.VerificationSession) error {
	return s.db.WithContext(ctx).Model(&models.VerificationSession{}).
		Where("id = ?", sess.ID).
		Updates(map[string]any{
			"session_status":        sess.SessionStatus,
			"liveness_check_passed": sess.LivenessCheckPassed,
			"ai_confidence_score":   sess.AIConfidenceScore,
			"verification_result":   sess.VerificationResult,
			"failure_reason":        sess.FailureReason,
			"completed_at":          sess.CompletedAt,
		}).Error
}

// ListByPhone returns the attempt history for a driver, newest first.
func (s *GormSessionStore) ListByPhone(ctx context.Context, phone string) ([]models.VerificationSession, error) {
	var sessions []models.VerificationSession
	err := s.db.WithContext(ctx).Where("driver_phone_ref = ?", phone).Order("created_at DESC").Find(&sessions).Error
	return sessions, err
}

// MemorySessionStore keeps attempts in memory for tests.
type MemorySessionStore struct {
	mu       sync.Mutex
	Sessions []*models.VerificationSession
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

func (s *MemorySessionStore) Create(ctx context.Context, sess *models.VerificationSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sess
	s.Sessions = append(s.Sessions, &cp)
	return nil
}

func (s *MemorySessionStore) Complete(ctx context.Context, sess *models.VerificationSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.Sessions {
		if existing.ID == sess.ID {
			cp := *sess
			s.Sessions[i] = &cp
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// Count reports how many sessions were created.
func (s *MemorySessionStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Sessions)
}
