package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@test.com", NormalizeEmail("  User@Test.COM "))
	assert.Equal(t, "a@b.co", NormalizeEmail("a@b.co"))
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("user@test.com"))
	assert.True(t, IsValidEmail("first.last+tag@sub.example.org"))
	assert.False(t, IsValidEmail("no-at-sign"))
	assert.False(t, IsValidEmail("user@nodot"))
	assert.False(t, IsValidEmail("sp ace@test.com"))
	assert.False(t, IsValidEmail(""))
}

func TestEmailDomain(t *testing.T) {
	assert.Equal(t, "test.com", EmailDomain("user@Test.com"))
	assert.Equal(t, "", EmailDomain("user@"))
	assert.Equal(t, "", EmailDomain("no-at"))
}

func TestIsValidPassword(t *testing.T) {
	assert.True(t, IsValidPassword("Str0ng!pass"))
	assert.False(t, IsValidPassword("short1!"))
	assert.False(t, IsValidPassword("nodigits!!"))
	assert.False(t, IsValidPassword("nospecial12"))
	assert.False(t, IsValidPassword("12345678!"))
}

func TestIsValidFullname(t *testing.T) {
	assert.True(t, IsValidFullname("Mary Anne O'Neil-Smith"))
	assert.False(t, IsValidFullname(""))
	assert.False(t, IsValidFullname("Robert; DROP TABLE"))
	assert.False(t, IsValidFullname("user123"))
}
