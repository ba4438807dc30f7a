package drivers

import (
	"context"
	"errors"
	"time"

	"taxiye-driver-server/models"
)

// ErrTimeout distinguishes "the store did not answer in time" from "the row
// does not exist"; both still resolve the driver itself to nil so callers
// that do not care keep the simple nil check.
var ErrTimeout = errors.New("drivers: store did not answer within the fetch budget")

const defaultFetchTimeout = 8 * time.Second

// Store is the contract the repository needs from the driver table.
type Store interface {
	// GetByUserID resolves a driver by its auth identity; (nil, nil) when absent.
	GetByUserID(ctx context.Context, userID string) (*models.Driver, error)
	// UpdateByPhone applies a partial update and returns the updated row.
	UpdateByPhone(ctx context.Context, phone string, fields map[string]any) (*models.Driver, error)
}

// Repository maps store rows to normalized Driver entities and guards every
// fetch with a timeout so a stalled store never blocks the caller.
type Repository struct {
	store        Store
	fetchTimeout time.Duration
}

func NewRepository(store Store) *Repository {
	return &Repository{store: store, fetchTimeout: defaultFetchTimeout}
}

// NewRepositoryWithTimeout overrides the fetch budget; used by callers with
// tighter startup deadlines.
func NewRepositoryWithTimeout(store Store, timeout time.Duration) *Repository {
	return &Repository{store: store, fetchTimeout: timeout}
}

// FetchByUserID races the store query against the fetch budget. A timeout
// resolves to (nil, ErrTimeout); a missing row to (nil, nil).
func (r *Repository) FetchByUserID(ctx context.Context, userID string) (*models.Driver, error) {
	ctx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
	defer cancel()

	type result struct {
		driver *models.Driver
		err    error
	}
	ch := make(chan result, 1)
	go func() {
		driver, err := r.store.GetByUserID(ctx, userID)
		ch <- result{driver, err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return nil, res.err
		}
		return Normalize(res.driver), nil
	case <-ctx.Done():
		return nil, ErrTimeout
	}
}

// Patch applies a partial update keyed by phone and returns the updated,
// normalized row.
func (r *Repository) Patch(ctx context.Context, phone string, fields map[string]any) (*models.Driver, error) {
	if len(fields) == 0 {
		return nil, errors.New("drivers: empty patch")
	}
	driver, err := r.store.UpdateByPhone(ctx, phone, fields)
	if err != nil {
		return nil, err
	}
	return Normalize(driver), nil
}

// Normalize coerces a store row into a well-formed Driver: wallet balance
// defaults to 0 and never goes negative in the view, approval status falls
// back to pending.
func Normalize(d *models.Driver) *models.Driver {
	if d == nil {
		return nil
	}
	if d.WalletBalance < 0 {
		d.WalletBalance = 0
	}
	if d.ApprovedStatus == "" {
		d.ApprovedStatus = models.ApprovalPending
	}
	return d
}

// PatchableFields is the whitelist of columns the profile-update paths may
// touch; approval fields are reserved for the verification orchestrator and
// the admin console.
var PatchableFields = map[string]bool{
	"name":           true,
	"email":          true,
	"license_number": true,
	"vehicle_model":  true,
	"vehicle_color":  true,
	"plate_number":   true,
	"is_online":      true,
}
