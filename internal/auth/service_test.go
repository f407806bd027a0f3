package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutriweek/nutriweek/internal/auth"
)

func newTestService(t *testing.T, bootstrap auth.AccountBootstrapper) *auth.Service {
	t.Helper()
	return auth.NewService(auth.ServiceConfig{
		JWTService: auth.NewJWTService(auth.JWTConfig{
			SigningKey: "test-secret-key-for-testing-only",
			Issuer:     "https://api.nutriweek.app",
			Audience:   "nutriweek-api",
		}),
		UserRepo:    auth.NewInMemoryUserRepository(),
		RefreshRepo: auth.NewInMemoryRefreshTokenRepository(),
		Bootstrap:   bootstrap,
		Logger:      zerolog.Nop(),
	})
}

type recordingBootstrapper struct {
	userIDs []string
	err     error
}

func (b *recordingBootstrapper) CreateDefault(_ context.Context, userID string) error {
	b.userIDs = append(b.userIDs, userID)
	return b.err
}

func TestService_RegisterAndLogin(t *testing.T) {
	boot := &recordingBootstrapper{}
	svc := newTestService(t, boot)

	resp, err := svc.Register(context.Background(), &auth.RegisterRequest{
		Email:    "Alex@Example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, "alex@example.com", resp.User.Email)
	require.Len(t, boot.userIDs, 1)
	assert.Equal(t, resp.User.ID, boot.userIDs[0])

	// Login with original casing succeeds against the normalized account.
	login, err := svc.Login(context.Background(), &auth.LoginRequest{
		Email:    "alex@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)
}

func TestService_RegisterDuplicateEmail(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.Register(context.Background(), &auth.RegisterRequest{
		Email:    "alex@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), &auth.RegisterRequest{
		Email:    "alex@example.com",
		Password: "differentpassword",
	})
	assert.ErrorIs(t, err, auth.ErrEmailTaken)
}

func TestService_RegisterBootstrapFailureIsNonFatal(t *testing.T) {
	boot := &recordingBootstrapper{err: errors.New("db down")}
	svc := newTestService(t, boot)

	resp, err := svc.Register(context.Background(), &auth.RegisterRequest{
		Email:    "alex@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestService_LoginWrongPassword(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.Register(context.Background(), &auth.RegisterRequest{
		Email:    "alex@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), &auth.LoginRequest{
		Email:    "alex@example.com",
		Password: "wrong-password",
	})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestService_LoginUnknownEmail(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.Login(context.Background(), &auth.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever1",
	})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestService_RefreshRotation(t *testing.T) {
	svc := newTestService(t, nil)

	resp, err := svc.Register(context.Background(), &auth.RegisterRequest{
		Email:    "alex@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	refreshed, err := svc.RefreshAccessToken(context.Background(), resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEqual(t, resp.RefreshToken, refreshed.RefreshToken)

	// The old refresh token was revoked by rotation.
	_, err = svc.RefreshAccessToken(context.Background(), resp.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
}

func TestService_RevokeAllTokens(t *testing.T) {
	svc := newTestService(t, nil)

	resp, err := svc.Register(context.Background(), &auth.RegisterRequest{
		Email:    "alex@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	require.NoError(t, svc.RevokeAllTokens(context.Background(), resp.User.ID))

	_, err = svc.RefreshAccessToken(context.Background(), resp.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
}

func TestRegisterRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     auth.RegisterRequest
		wantErr bool
	}{
		{"valid", auth.RegisterRequest{Email: "a@b.com", Password: "12345678"}, false},
		{"missing email", auth.RegisterRequest{Password: "12345678"}, true},
		{"bad email", auth.RegisterRequest{Email: "not-an-email", Password: "12345678"}, true},
		{"short password", auth.RegisterRequest{Email: "a@b.com", Password: "1234567"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := tt.req.Validate()
			if tt.wantErr {
				assert.NotEmpty(t, errs)
			} else {
				assert.Empty(t, errs)
			}
		})
	}
}
