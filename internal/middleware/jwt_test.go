package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/greenlake-gma/progress-api/internal/models"
	"github.com/greenlake-gma/progress-api/internal/service"
)

type stubUserRepo struct {
	user models.User
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user := s.user
	return &user, nil
}

func (s *stubUserRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	user := s.user
	return &user, nil
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id int64, ts time.Time) error {
	return nil
}

func (s *stubUserRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	return nil
}

func setupAuth(t *testing.T) (*service.AuthService, string) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &stubUserRepo{user: models.User{
		ID:           9,
		Email:        "coach@example.com",
		PasswordHash: string(hash),
		Role:         "instructor",
		Active:       true,
	}}
	authSvc := service.NewAuthService(repo, nil, validator.New(), zap.NewNop(), service.AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: time.Hour,
		Issuer:             "gma-progress-api",
	})
	result, err := authSvc.Login(context.Background(), models.LoginRequest{Email: "coach@example.com", Password: "secret123"})
	require.NoError(t, err)
	return authSvc, result.AccessToken
}

func newProtectedRouter(authSvc *service.AuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", JWT(authSvc), func(c *gin.Context) {
		claims := c.MustGet(ContextUserKey).(*models.JWTClaims)
		c.JSON(http.StatusOK, gin.H{"uid": claims.UserID})
	})
	return r
}

func TestJWTAllowsValidToken(t *testing.T) {
	authSvc, token := setupAuth(t)
	r := newProtectedRouter(authSvc)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"uid":9`)
}

func TestJWTRejectsMissingHeader(t *testing.T) {
	authSvc, _ := setupAuth(t)
	r := newProtectedRouter(authSvc)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTRejectsMalformedHeader(t *testing.T) {
	authSvc, token := setupAuth(t)
	r := newProtectedRouter(authSvc)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTRejectsInvalidToken(t *testing.T) {
	authSvc, token := setupAuth(t)
	r := newProtectedRouter(authSvc)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token+"x")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func newOptionalRouter(authSvc *service.AuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/reports", OptionalJWT(authSvc), func(c *gin.Context) {
		if claims, ok := c.Get(ContextUserKey); ok {
			c.JSON(http.StatusOK, gin.H{"uid": claims.(*models.JWTClaims).UserID})
			return
		}
		c.JSON(http.StatusOK, gin.H{"uid": nil})
	})
	return r
}

func TestOptionalJWTAttachesClaimsWhenPresent(t *testing.T) {
	authSvc, token := setupAuth(t)
	r := newOptionalRouter(authSvc)

	req := httptest.NewRequest(http.MethodGet, "/reports", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"uid":9`)
}

func TestOptionalJWTAllowsAnonymous(t *testing.T) {
	authSvc, _ := setupAuth(t)
	r := newOptionalRouter(authSvc)

	req := httptest.NewRequest(http.MethodGet, "/reports", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"uid":null`)
}

func TestOptionalJWTIgnoresInvalidToken(t *testing.T) {
	authSvc, token := setupAuth(t)
	r := newOptionalRouter(authSvc)

	req := httptest.NewRequest(http.MethodGet, "/reports", nil)
	req.Header.Set("Authorization", "Bearer "+token+"x")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"uid":null`)
}
