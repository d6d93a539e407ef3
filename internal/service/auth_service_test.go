package service

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/qy-8/gamechat-app/internal/config"
	"github.com/qy-8/gamechat-app/pkg/errcode"
	"github.com/qy-8/gamechat-app/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	repos := newTestRepos(t)
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpireHours = 1
	return NewAuthService(repos.User, cfg, nil)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthService(t)

	info, err := svc.Register(t.Context(), &RegisterRequest{Username: "alice", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, "alice", info.Username)
	assert.NotEmpty(t, info.Id)

	resp, err := svc.Login(t.Context(), &LoginRequest{Username: "alice", Password: "hunter22", PlatformId: 1})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, info.Id, resp.UserInfo.Id)

	claims, err := jwt.ParseToken(resp.Token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, info.Id, claims.UserId)
	assert.Equal(t, 1, claims.PlatformId)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Register(t.Context(), &RegisterRequest{Username: "alice", Password: "pw"})
	require.NoError(t, err)

	_, err = svc.Register(t.Context(), &RegisterRequest{Username: "alice", Password: "other"})
	assert.ErrorIs(t, err, errcode.ErrUserExists)
}

func TestRegisterValidation(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Register(t.Context(), &RegisterRequest{Username: "  ", Password: "pw"})
	assert.ErrorIs(t, err, errcode.ErrInvalidParam)

	_, err = svc.Register(t.Context(), &RegisterRequest{Username: "alice", Password: ""})
	assert.ErrorIs(t, err, errcode.ErrInvalidParam)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Register(t.Context(), &RegisterRequest{Username: "alice", Password: "correct"})
	require.NoError(t, err)

	_, err = svc.Login(t.Context(), &LoginRequest{Username: "alice", Password: "wrong"})
	assert.ErrorIs(t, err, errcode.ErrPasswordWrong)

	_, err = svc.Login(t.Context(), &LoginRequest{Username: "nobody", Password: "whatever"})
	assert.ErrorIs(t, err, errcode.ErrUserNotFound)
}

func TestValidateTokenRoundTrip(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Register(t.Context(), &RegisterRequest{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	resp, err := svc.Login(t.Context(), &LoginRequest{Username: "alice", Password: "pw", PlatformId: 2})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(t.Context(), resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.UserInfo.Id, claims.UserId)
	assert.Equal(t, 2, claims.PlatformId)

	_, err = svc.ValidateToken(t.Context(), "not-a-token")
	assert.Error(t, err)
}

func TestValidateTokenExternalFallback(t *testing.T) {
	repos := newTestRepos(t)
	cfg := &config.Config{}
	cfg.JWT.Secret = "internal-secret"
	cfg.JWT.ExpireHours = 1
	cfg.ExternalJWT.Enabled = true
	cfg.ExternalJWT.Secret = "partner-secret"
	cfg.ExternalJWT.DefaultPlatformId = 7
	svc := NewAuthService(repos.User, cfg, nil)

	ext := jwt.ExternalClaims{
		UserId: "ext-user",
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, ext).SignedString([]byte("partner-secret"))
	require.NoError(t, err)

	claims, err := svc.ValidateToken(t.Context(), token)
	require.NoError(t, err)
	assert.Equal(t, "ext-user", claims.UserId)
	assert.Equal(t, 7, claims.PlatformId)
}
