package drivers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxiye-driver-server/models"
)

func seededStore() *MemoryStore {
	store := NewMemoryStore()
	store.Seed(&models.Driver{
		Phone:          "911234567",
		UserID:         "user-1",
		Name:           "Test Driver",
		ApprovedStatus: models.ApprovalPending,
	})
	return store
}

func TestFetchByUserID(t *testing.T) {
	repo := NewRepository(seededStore())

	driver, err := repo.FetchByUserID(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, driver)
	assert.Equal(t, "911234567", driver.Phone)
	assert.Equal(t, models.ApprovalPending, driver.ApprovedStatus)
	assert.Equal(t, float64(0), driver.WalletBalance)
}

func TestFetchByUserIDMissingResolvesNil(t *testing.T) {
	repo := NewRepository(seededStore())

	driver, err := repo.FetchByUserID(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, driver)
}

type blockingStore struct{}

func (blockingStore) GetByUserID(ctx context.Context, userID string) (*models.Driver, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingStore) UpdateByPhone(ctx context.Context, phone string, fields map[string]any) (*models.Driver, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestFetchByUserIDTimeoutIsDistinguishable(t *testing.T) {
	repo := NewRepositoryWithTimeout(blockingStore{}, 30*time.Millisecond)

	driver, err := repo.FetchByUserID(context.Background(), "user-1")
	assert.Nil(t, driver)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestPatchByPhone(t *testing.T) {
	store := seededStore()
	repo := NewRepository(store)

	driver, err := repo.Patch(context.Background(), "911234567", map[string]any{
		"vehicle_model": "Corolla",
		"is_online":     true,
	})
	require.NoError(t, err)
	require.NotNil(t, driver)
	assert.Equal(t, "Corolla", driver.VehicleModel)
	assert.True(t, driver.IsOnline)
	// unrelated fields survive the partial update
	assert.Equal(t, "Test Driver", driver.Name)
}

func TestPatchUnknownPhoneResolvesNil(t *testing.T) {
	repo := NewRepository(seededStore())

	driver, err := repo.Patch(context.Background(), "900000000", map[string]any{"is_online": true})
	require.NoError(t, err)
	assert.Nil(t, driver)
}

func TestPatchEmptyRejected(t *testing.T) {
	repo := NewRepository(seededStore())

	_, err := repo.Patch(context.Background(), "911234567", nil)
	assert.Error(t, err)
}

func TestNormalizeDefaults(t *testing.T) {
	d := Normalize(&models.Driver{Phone: "911", WalletBalance: -12})
	assert.Equal(t, float64(0), d.WalletBalance)
	assert.Equal(t, models.ApprovalPending, d.ApprovedStatus)
	assert.Nil(t, Normalize(nil))
}
