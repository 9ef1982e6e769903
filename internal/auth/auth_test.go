package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/asset-maintenance/internal/config"
	"github.com/ukydev/asset-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var issuedAt = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) *Service {
	t.Helper()
	service, err := NewService(&config.Config{JWTSecret: "test-secret", JWTExpiry: time.Hour})
	require.NoError(t, err)
	service.now = func() time.Time { return issuedAt }
	return service
}

func planner() *models.User {
	return &models.User{ID: primitive.NewObjectID(), Username: "planner", Role: models.RoleManager}
}

func TestNewService(t *testing.T) {
	service, err := NewService(&config.Config{JWTSecret: "s"})
	require.NoError(t, err)
	assert.Equal(t, defaultTokenTTL, service.ttl)

	_, err = NewService(&config.Config{})
	assert.Error(t, err)
}

func TestService_IssueAndVerify(t *testing.T) {
	service := newTestService(t)
	user := planner()

	token, expires, err := service.Issue(user)
	require.NoError(t, err)
	assert.True(t, expires.Equal(issuedAt.Add(time.Hour)))

	for _, header := range []string{token, "Bearer " + token} {
		claims, err := service.Verify(header)
		require.NoError(t, err)
		assert.Equal(t, user.ID.Hex(), claims.UserID)
		assert.Equal(t, "planner", claims.Username)
		assert.Equal(t, models.RoleManager, claims.Role)
		assert.Equal(t, expires.Unix(), claims.Exp)
		assert.True(t, claims.Role.Can(models.ActionImportAssets))
	}
}

func TestService_Verify_Rejects(t *testing.T) {
	service := newTestService(t)
	valid, _, err := service.Issue(planner())
	require.NoError(t, err)

	other, err := NewService(&config.Config{JWTSecret: "other-secret"})
	require.NoError(t, err)

	sign := func(method jwt.SigningMethod, claims tokenClaims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		return s
	}
	base := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   "abc",
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"bare scheme", "Bearer "},
		{"garbage", "not-a-token"},
		{"wrong secret", mustIssue(t, other)},
		{"other algorithm", sign(jwt.SigningMethodHS512, tokenClaims{Role: models.RoleAdmin, RegisteredClaims: base})},
		{"unknown role", sign(jwt.SigningMethodHS256, tokenClaims{Role: "superuser", RegisteredClaims: base})},
		{"foreign issuer", sign(jwt.SigningMethodHS256, tokenClaims{Role: models.RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "someone-else", Subject: "abc", ExpiresAt: base.ExpiresAt,
		}})},
		{"no expiry", sign(jwt.SigningMethodHS256, tokenClaims{Role: models.RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{
			Issuer: issuer, Subject: "abc",
		}})},
		{"tampered", valid + "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Verify(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestService_Verify_Expired(t *testing.T) {
	service := newTestService(t)
	token, _, err := service.Issue(planner())
	require.NoError(t, err)

	service.now = func() time.Time { return issuedAt.Add(2 * time.Hour) }
	_, err = service.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestService_HashAndCheckPassword(t *testing.T) {
	service := newTestService(t)

	hash, err := service.HashPassword("pump-room-7")
	require.NoError(t, err)
	assert.NotEqual(t, "pump-room-7", hash)
	assert.True(t, service.CheckPassword("pump-room-7", hash))
	assert.False(t, service.CheckPassword("pump-room-8", hash))
}

func TestValidateRegistration(t *testing.T) {
	ok := models.RegisterRequest{Username: "tech.one", Email: "tech@plant.example", Password: "longenough"}
	assert.NoError(t, ValidateRegistration(ok))

	tests := []struct {
		name   string
		mutate func(r *models.RegisterRequest)
		want   string
	}{
		{"short username", func(r *models.RegisterRequest) { r.Username = "ab" }, "username"},
		{"username with spaces", func(r *models.RegisterRequest) { r.Username = "tech one" }, "username"},
		{"email without at", func(r *models.RegisterRequest) { r.Email = "tech.plant.example" }, "invalid email"},
		{"email with display name", func(r *models.RegisterRequest) { r.Email = "Tech <tech@plant.example>" }, "invalid email"},
		{"short password", func(r *models.RegisterRequest) { r.Password = "short" }, "at least 8 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ok
			tt.mutate(&r)
			assert.ErrorContains(t, ValidateRegistration(r), tt.want)
		})
	}
}

func TestValidatePassword_CountsCharacters(t *testing.T) {
	assert.NoError(t, ValidatePassword("ééééééééé"))
	assert.Error(t, ValidatePassword("éééé"))
}

func mustIssue(t *testing.T, s *Service) string {
	t.Helper()
	token, _, err := s.Issue(planner())
	require.NoError(t, err)
	return token
}
