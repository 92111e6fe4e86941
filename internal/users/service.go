package users

import (
	"context"
	"errors"

	"wayfarer-backend/internal/domain"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var ErrEmailTaken = errors.New("A user with this email already exists")

// Service provisions and reads user accounts. Account creation only happens
// downstream of a consumed invitation.
type Service struct {
	DB *gorm.DB
}

// CreateInvitedUser creates the account for a consumed invitation and returns
// the new user id. The invitation service has already validated the profile.
func (s *Service) CreateInvitedUser(ctx context.Context, email, fullname, password, role string) (string, error) {
	var existing domain.User
	err := s.DB.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return "", ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	u := &domain.User{
		Fullname:     fullname,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.DB.WithContext(ctx).Create(u).Error; err != nil {
		return "", err
	}
	return u.UserID.String(), nil
}

// FindByEmail returns the user with the given normalized email, or nil.
func (s *Service) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := s.DB.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
