package users

import (
	"context"
	"testing"

	"wayfarer-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func setupUsersTest(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.User{}))
	return &Service{DB: db}, db
}

func TestCreateInvitedUser(t *testing.T) {
	svc, db := setupUsersTest(t)
	ctx := context.Background()

	userID, err := svc.CreateInvitedUser(ctx, "member@test.com", "New Member", "Str0ng!pass", "editor")
	require.NoError(t, err)
	assert.NotEmpty(t, userID)

	var u domain.User
	require.NoError(t, db.Where("email = ?", "member@test.com").First(&u).Error)
	assert.Equal(t, "New Member", u.Fullname)
	assert.Equal(t, "editor", u.Role)
	// password stored as a bcrypt hash, never plaintext
	assert.NotEqual(t, "Str0ng!pass", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("Str0ng!pass")))
}

func TestCreateInvitedUser_DuplicateEmail(t *testing.T) {
	svc, _ := setupUsersTest(t)
	ctx := context.Background()

	_, err := svc.CreateInvitedUser(ctx, "taken@test.com", "First", "Str0ng!pass", "viewer")
	require.NoError(t, err)
	_, err = svc.CreateInvitedUser(ctx, "taken@test.com", "Second", "Str0ng!pass", "viewer")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestFindByEmail(t *testing.T) {
	svc, _ := setupUsersTest(t)
	ctx := context.Background()

	_, err := svc.CreateInvitedUser(ctx, "find@test.com", "Findable", "Str0ng!pass", "viewer")
	require.NoError(t, err)

	u, err := svc.FindByEmail(ctx, "find@test.com")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "Findable", u.Fullname)

	missing, err := svc.FindByEmail(ctx, "nobody@test.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
