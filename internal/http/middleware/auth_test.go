package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/flytster-backend/internal/config"
	"github.com/ignatzorin/flytster-backend/internal/models"
	"github.com/ignatzorin/flytster-backend/internal/repository"
	"github.com/ignatzorin/flytster-backend/internal/service"
)

// stubTokenRepository хранит сессионные токены в памяти. Методы токенов
// подтверждения не используются аутентификацией и отвечают «не найдено».
type stubTokenRepository struct {
	authByValue map[string]*models.AuthToken
	usersByID   map[uuid.UUID]*models.User
}

func newStubTokenRepository() *stubTokenRepository {
	return &stubTokenRepository{
		authByValue: make(map[string]*models.AuthToken),
		usersByID:   make(map[uuid.UUID]*models.User),
	}
}

func (s *stubTokenRepository) CreateAuthToken(_ context.Context, token *models.AuthToken) error {
	token.ID = uuid.New()
	s.authByValue[token.Value] = token
	return nil
}

func (s *stubTokenRepository) GetAuthTokenWithUser(_ context.Context, value string) (*models.AuthToken, *models.User, error) {
	token, ok := s.authByValue[value]
	if !ok {
		return nil, nil, repository.ErrTokenNotFound
	}
	user, ok := s.usersByID[token.UserID]
	if !ok {
		return nil, nil, repository.ErrTokenNotFound
	}
	return token, user, nil
}

func (s *stubTokenRepository) DeleteAuthTokenByValue(_ context.Context, value string) error {
	delete(s.authByValue, value)
	return nil
}

func (s *stubTokenRepository) ReplaceEmailToken(context.Context, *models.EmailToken) error {
	return nil
}

func (s *stubTokenRepository) GetEmailTokenByUser(context.Context, uuid.UUID) (*models.EmailToken, error) {
	return nil, repository.ErrTokenNotFound
}

func (s *stubTokenRepository) DeleteEmailTokenByID(context.Context, uuid.UUID) error { return nil }

func (s *stubTokenRepository) DeleteEmailTokenByUser(context.Context, uuid.UUID) error { return nil }

func (s *stubTokenRepository) ReplacePhoneToken(context.Context, *models.PhoneToken) error {
	return nil
}

func (s *stubTokenRepository) GetPhoneTokenByUser(context.Context, uuid.UUID) (*models.PhoneToken, error) {
	return nil, repository.ErrTokenNotFound
}

func (s *stubTokenRepository) DeletePhoneTokenByID(context.Context, uuid.UUID) error { return nil }

func (s *stubTokenRepository) DeletePhoneTokenByUser(context.Context, uuid.UUID) error { return nil }

func (s *stubTokenRepository) ReplacePasswordToken(context.Context, *models.PasswordToken) error {
	return nil
}

func (s *stubTokenRepository) GetPasswordTokenByValue(context.Context, string) (*models.PasswordToken, error) {
	return nil, repository.ErrTokenNotFound
}

func (s *stubTokenRepository) DeletePasswordTokenByID(context.Context, uuid.UUID) error { return nil }

func authTestConfig() config.TokenConfig {
	return config.TokenConfig{
		SessionTTL:           168 * time.Hour,
		UnverifiedSessionTTL: 24 * time.Hour,
		VerificationTTL:      168 * time.Hour,
	}
}

// seedSession кладёт в хранилище токен с заданным возрастом.
func seedSession(repo *stubTokenRepository, value string, verified bool, age time.Duration) *models.User {
	user := &models.User{
		ID:            uuid.New(),
		Email:         "dabbin@gmail.com",
		EmailVerified: verified,
		IsActive:      true,
	}
	repo.usersByID[user.ID] = user
	repo.authByValue[value] = &models.AuthToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Value:     value,
		CreatedAt: time.Now().Add(-age),
	}
	return user
}

func newAuthTestRouter(repo *stubTokenRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	tokens := service.NewTokenService(repo, authTestConfig())

	r := gin.New()
	r.GET("/protected", AuthMiddleware(tokens), func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "нет пользователя в контексте"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"email": user.Email})
	})
	return r
}

func doProtected(r *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	repo := newStubTokenRepository()
	value := strings.Repeat("ab", 16)
	seedSession(repo, value, true, time.Hour)
	r := newAuthTestRouter(repo)

	w := doProtected(r, value)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dabbin@gmail.com")
}

func TestAuthMiddleware_UniformForbidden(t *testing.T) {
	repo := newStubTokenRepository()
	value := strings.Repeat("ab", 16)
	seedSession(repo, value, true, time.Hour)
	r := newAuthTestRouter(repo)

	// Отсутствие заголовка, префикс схемы, мусор и неизвестное значение
	// дают один и тот же ответ.
	cases := []string{
		"",
		"Bearer " + value,
		"not-a-token",
		strings.Repeat("cd", 16),
	}

	var bodies []string
	for _, header := range cases {
		w := doProtected(r, header)
		assert.Equal(t, http.StatusForbidden, w.Code, "заголовок %q", header)
		bodies = append(bodies, w.Body.String())
	}
	for _, body := range bodies[1:] {
		assert.Equal(t, bodies[0], body, "тела отказов не должны различаться")
	}
}

func TestAuthMiddleware_ExpiredTokenEvicted(t *testing.T) {
	repo := newStubTokenRepository()
	value := strings.Repeat("ab", 16)
	seedSession(repo, value, true, 169*time.Hour)
	r := newAuthTestRouter(repo)

	w := doProtected(r, value)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NotContains(t, repo.authByValue, value, "истёкший токен удаляется при проверке")

	// Повторный запрос после вытеснения ведёт себя так же.
	w = doProtected(r, value)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuthMiddleware_UnverifiedSessionShorter(t *testing.T) {
	repo := newStubTokenRepository()

	verifiedValue := strings.Repeat("ab", 16)
	seedSession(repo, verifiedValue, true, 48*time.Hour)
	unverifiedValue := strings.Repeat("cd", 16)
	seedSession(repo, unverifiedValue, false, 48*time.Hour)

	r := newAuthTestRouter(repo)

	assert.Equal(t, http.StatusOK, doProtected(r, verifiedValue).Code)
	assert.Equal(t, http.StatusForbidden, doProtected(r, unverifiedValue).Code)
}

func TestAuthMiddleware_InactiveUser(t *testing.T) {
	repo := newStubTokenRepository()
	value := strings.Repeat("ab", 16)
	user := seedSession(repo, value, true, time.Hour)
	user.IsActive = false
	r := newAuthTestRouter(repo)

	assert.Equal(t, http.StatusForbidden, doProtected(r, value).Code)
}
