package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentorhub/mentor-idm/pkg/account"
	"github.com/mentorhub/mentor-idm/pkg/kvstore"
)

const testJwtSecret = "test-secret"

func setupProvider(t *testing.T) (*LocalProvider, *account.Service) {
	accounts := account.NewService(account.NewKVRepository(kvstore.NewMemoryStore()))
	provider := NewLocalProvider(accounts, testJwtSecret, WithIssuer("test-idm"))
	return provider, accounts
}

func createAccount(t *testing.T, provider *LocalProvider, accounts *account.Service, email, password string, role account.Role) account.Account {
	hash, err := provider.Hasher().Hash(password)
	require.NoError(t, err)

	acct, err := accounts.CreateAccount(context.Background(), email, role, hash)
	require.NoError(t, err)
	return acct
}

func TestBcryptHasher(t *testing.T) {
	hasher := &BcryptHasher{}

	hash, err := hasher.Hash("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hash)

	match, err := hasher.Verify("password123", hash)
	require.NoError(t, err)
	assert.True(t, match)

	match, err = hasher.Verify("wrong", hash)
	require.NoError(t, err)
	assert.False(t, match)

	_, err = hasher.Hash("")
	assert.Error(t, err)
}

func TestVerifyPassword(t *testing.T) {
	ctx := context.Background()
	provider, accounts := setupProvider(t)
	created := createAccount(t, provider, accounts, "m1@example.com", "password123", account.RoleMentor)

	acct, err := provider.VerifyPassword(ctx, "m1@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, created.ID, acct.ID)

	// Wrong password and unknown email fail the same way
	_, wrongPwd := provider.VerifyPassword(ctx, "m1@example.com", "nope")
	_, unknown := provider.VerifyPassword(ctx, "ghost@example.com", "password123")
	assert.ErrorIs(t, wrongPwd, ErrInvalidCredentials)
	assert.ErrorIs(t, unknown, ErrInvalidCredentials)
	assert.Equal(t, wrongPwd.Error(), unknown.Error())
}

func TestIssueSession(t *testing.T) {
	ctx := context.Background()
	provider, accounts := setupProvider(t)
	acct := createAccount(t, provider, accounts, "m1@example.com", "password123", account.RoleMentor)

	signed, err := provider.IssueSession(ctx, acct)
	require.NoError(t, err)

	token, err := jwt.Parse(signed, func(token *jwt.Token) (any, error) {
		return []byte(testJwtSecret), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, acct.ID.String(), claims["sub"])
	assert.Equal(t, "m1@example.com", claims["email"])
	assert.Equal(t, "mentor", claims["role"])
	assert.Equal(t, "test-idm", claims["iss"])
}

func TestTempToken_RoundTrip(t *testing.T) {
	ctx := context.Background()
	provider, accounts := setupProvider(t)
	acct := createAccount(t, provider, accounts, "m1@example.com", "password123", account.RoleMentor)

	tempToken, err := provider.IssueTempToken(ctx, acct)
	require.NoError(t, err)

	accountID, err := provider.VerifyTempToken(ctx, tempToken)
	require.NoError(t, err)
	assert.Equal(t, acct.ID, accountID)
}

func TestVerifyTempToken_Rejections(t *testing.T) {
	ctx := context.Background()
	provider, accounts := setupProvider(t)
	acct := createAccount(t, provider, accounts, "m1@example.com", "password123", account.RoleMentor)

	t.Run("garbage", func(t *testing.T) {
		_, err := provider.VerifyTempToken(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidTempToken)
		_, err = provider.VerifyTempToken(ctx, "")
		assert.ErrorIs(t, err, ErrInvalidTempToken)
	})

	t.Run("session token is not a temp token", func(t *testing.T) {
		sessionToken, err := provider.IssueSession(ctx, acct)
		require.NoError(t, err)
		_, err = provider.VerifyTempToken(ctx, sessionToken)
		assert.ErrorIs(t, err, ErrInvalidTempToken)
	})

	t.Run("expired", func(t *testing.T) {
		expired := NewLocalProvider(accounts, testJwtSecret,
			WithIssuer("test-idm"),
			WithTempTokenExpiry(-1*time.Minute),
		)
		tempToken, err := expired.IssueTempToken(ctx, acct)
		require.NoError(t, err)
		_, err = provider.VerifyTempToken(ctx, tempToken)
		assert.ErrorIs(t, err, ErrInvalidTempToken)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other := NewLocalProvider(accounts, "other-secret", WithIssuer("test-idm"))
		tempToken, err := other.IssueTempToken(ctx, acct)
		require.NoError(t, err)
		_, err = provider.VerifyTempToken(ctx, tempToken)
		assert.ErrorIs(t, err, ErrInvalidTempToken)
	})
}
