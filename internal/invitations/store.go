package invitations

import (
	"context"
	"errors"
	"time"

	"wayfarer-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListFilters narrows and pages List results. Status filters on the derived
// lifecycle state (pending/accepted/expired), never on a stored column.
type ListFilters struct {
	Status  string
	Email   string
	TripID  *uuid.UUID
	Page    int
	PerPage int
}

// Stats is the derived lifecycle breakdown for the dashboard.
type Stats struct {
	Pending  int64 `json:"pending"`
	Accepted int64 `json:"accepted"`
	Expired  int64 `json:"expired"`
}

// Store is the persistence contract for invitations. ConsumeAtomic is the one
// operation that needs a compare-and-swap guarantee; everything else is plain
// read-committed CRUD.
type Store interface {
	Insert(ctx context.Context, inv *domain.Invitation) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Invitation, error)
	FindByEmail(ctx context.Context, email string) ([]domain.Invitation, error)
	List(ctx context.Context, f ListFilters) ([]domain.Invitation, int64, error)
	ConsumeAtomic(ctx context.Context, id uuid.UUID, usedBy string) (*domain.Invitation, error)
	Rotate(ctx context.Context, id uuid.UUID, tokenHash, salt string, expiresAt time.Time) (*domain.Invitation, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (Stats, error)
	CountExpiredPending(ctx context.Context) (int64, error)
}

// GormStore implements Store on GORM (Postgres in production, sqlite in tests).
type GormStore struct {
	DB *gorm.DB
}

// Insert persists a new invitation after checking for an active duplicate on
// the (email, role, trip_id) scope. Active means unused and unexpired.
func (s *GormStore) Insert(ctx context.Context, inv *domain.Invitation) error {
	q := s.DB.WithContext(ctx).Model(&domain.Invitation{}).
		Where("email = ? AND role = ? AND used = ? AND expires_at > ?", inv.Email, inv.Role, false, time.Now())
	if inv.TripID == nil {
		q = q.Where("trip_id IS NULL")
	} else {
		q = q.Where("trip_id = ?", *inv.TripID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateActive
	}
	return s.DB.WithContext(ctx).Create(inv).Error
}

func (s *GormStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Invitation, error) {
	var inv domain.Invitation
	if err := s.DB.WithContext(ctx).Where("invite_id = ?", id).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func (s *GormStore) FindByEmail(ctx context.Context, email string) ([]domain.Invitation, error) {
	var out []domain.Invitation
	if err := s.DB.WithContext(ctx).Where("email = ?", email).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GormStore) List(ctx context.Context, f ListFilters) ([]domain.Invitation, int64, error) {
	now := time.Now()
	q := s.DB.WithContext(ctx).Model(&domain.Invitation{})
	switch f.Status {
	case "pending":
		q = q.Where("used = ? AND expires_at > ?", false, now)
	case "accepted":
		q = q.Where("used = ?", true)
	case "expired":
		q = q.Where("used = ? AND expires_at <= ?", false, now)
	}
	if f.Email != "" {
		q = q.Where("email = ?", f.Email)
	}
	if f.TripID != nil {
		q = q.Where("trip_id = ?", *f.TripID)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	perPage := f.PerPage
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	var out []domain.Invitation
	if err := q.Order("created_at DESC").Offset((page - 1) * perPage).Limit(perPage).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ConsumeAtomic flips used=false to used=true in a single conditional update.
// Two concurrent callers on the same id see exactly one RowsAffected=1; the
// loser re-reads the row to learn why it lost.
func (s *GormStore) ConsumeAtomic(ctx context.Context, id uuid.UUID, usedBy string) (*domain.Invitation, error) {
	now := time.Now()
	res := s.DB.WithContext(ctx).Model(&domain.Invitation{}).
		Where("invite_id = ? AND used = ? AND expires_at > ?", id, false, now).
		Updates(map[string]interface{}{"used": true, "used_at": now, "used_by": usedBy})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		var inv domain.Invitation
		err := s.DB.WithContext(ctx).Where("invite_id = ?", id).First(&inv).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		if inv.Used {
			return nil, ErrAlreadyUsed
		}
		if !inv.ExpiresAt.After(now) {
			return nil, ErrExpired
		}
		return nil, ErrNotFound
	}

	var inv domain.Invitation
	if err := s.DB.WithContext(ctx).Where("invite_id = ?", id).First(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// Rotate replaces the token hash, salt and expiry of a pending invitation.
// Overwriting the pair invalidates the previously issued token.
func (s *GormStore) Rotate(ctx context.Context, id uuid.UUID, tokenHash, salt string, expiresAt time.Time) (*domain.Invitation, error) {
	res := s.DB.WithContext(ctx).Model(&domain.Invitation{}).
		Where("invite_id = ? AND used = ?", id, false).
		Updates(map[string]interface{}{"token_hash": tokenHash, "salt": salt, "expires_at": expiresAt})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		var inv domain.Invitation
		err := s.DB.WithContext(ctx).Where("invite_id = ?", id).First(&inv).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		return nil, ErrInvalidState
	}

	var inv domain.Invitation
	if err := s.DB.WithContext(ctx).Where("invite_id = ?", id).First(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// Delete tombstones a pending invitation (admin cancellation). Deleting a
// missing invitation is a no-op; a consumed one reports InvalidState.
func (s *GormStore) Delete(ctx context.Context, id uuid.UUID) error {
	var inv domain.Invitation
	err := s.DB.WithContext(ctx).Where("invite_id = ?", id).First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if inv.Used {
		return ErrInvalidState
	}
	return s.DB.WithContext(ctx).Delete(&inv).Error
}

func (s *GormStore) Stats(ctx context.Context) (Stats, error) {
	now := time.Now()
	var out Stats
	if err := s.DB.WithContext(ctx).Model(&domain.Invitation{}).
		Where("used = ? AND expires_at > ?", false, now).Count(&out.Pending).Error; err != nil {
		return Stats{}, err
	}
	if err := s.DB.WithContext(ctx).Model(&domain.Invitation{}).
		Where("used = ?", true).Count(&out.Accepted).Error; err != nil {
		return Stats{}, err
	}
	if err := s.DB.WithContext(ctx).Model(&domain.Invitation{}).
		Where("used = ? AND expires_at <= ?", false, now).Count(&out.Expired).Error; err != nil {
		return Stats{}, err
	}
	return out, nil
}

func (s *GormStore) CountExpiredPending(ctx context.Context) (int64, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&domain.Invitation{}).
		Where("used = ? AND expires_at <= ?", false, time.Now()).
		Count(&count).Error
	return count, err
}
