package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)
	token, err := tokens.Issue(models.User{ID: "u-1", Email: "ann@shop.test", Role: models.RoleAdmin})
	require.NoError(t, err)

	id, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: "u-1", Email: "ann@shop.test", Role: models.RoleAdmin}, id)
	assert.True(t, id.IsAdmin())
}

func TestParseRejectsExpiredToken(t *testing.T) {
	tokens := NewTokens("test-secret", time.Minute)
	issuedAt := time.Now().Add(-2 * time.Hour)
	tokens.now = func() time.Time { return issuedAt }
	token, err := tokens.Issue(models.User{ID: "u-1", Role: models.RoleCustomer})
	require.NoError(t, err)

	tokens.now = time.Now
	_, err = tokens.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsForeignSecretAndAlgorithm(t *testing.T) {
	other := NewTokens("other-secret", time.Hour)
	token, err := other.Issue(models.User{ID: "u-1"})
	require.NoError(t, err)

	_, err = NewTokens("test-secret", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u-1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = NewTokens("test-secret", time.Hour).Parse(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseDefaultsRoleToCustomer(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)
	token, err := tokens.Issue(models.User{ID: "u-2"})
	require.NoError(t, err)

	id, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, id.Role)
	assert.False(t, id.IsAdmin())
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)
	assert.True(t, CheckPassword(hash, "hunter22"))
	assert.False(t, CheckPassword(hash, "hunter23"))
	assert.False(t, CheckPassword("not-a-bcrypt-hash", "hunter22"))
}
