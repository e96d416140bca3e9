package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/flytster-backend/internal/config"
	"github.com/ignatzorin/flytster-backend/internal/models"
	"github.com/ignatzorin/flytster-backend/internal/pkg/apperror"
	"github.com/ignatzorin/flytster-backend/internal/repository"
)

// Длины значений токенов. Сессионный токен — 32 hex-символа,
// токены подтверждения короче: SMS-код вводится вручную.
const (
	sessionTokenLength      = 32
	verificationTokenLength = 20
	phoneTokenLength        = 6
)

// verificationAlphabet не содержит символов i, l, o, 0 и 1,
// которые путаются при ручном вводе.
const verificationAlphabet = "abcdefghjkmnpqrstuvwxyz23456789"

// Попыток перегенерации значения при коллизии уникального индекса.
const tokenIssueAttempts = 5

// Формы значений по видам токенов. Проверяются до похода в базу:
// значение не той формы не может существовать в хранилище.
var (
	sessionTokenRegex      = regexp.MustCompile(`^[0-9a-f]{32}$`)
	verificationTokenRegex = regexp.MustCompile(`^[` + verificationAlphabet + `]{20}$`)
	phoneTokenRegex        = regexp.MustCompile(`^[` + verificationAlphabet + `]{6}$`)
)

// TokenRepository описывает зависимости TokenService от слоя хранилища.
type TokenRepository interface {
	CreateAuthToken(ctx context.Context, token *models.AuthToken) error
	GetAuthTokenWithUser(ctx context.Context, value string) (*models.AuthToken, *models.User, error)
	DeleteAuthTokenByValue(ctx context.Context, value string) error

	ReplaceEmailToken(ctx context.Context, token *models.EmailToken) error
	GetEmailTokenByUser(ctx context.Context, userID uuid.UUID) (*models.EmailToken, error)
	DeleteEmailTokenByID(ctx context.Context, id uuid.UUID) error
	DeleteEmailTokenByUser(ctx context.Context, userID uuid.UUID) error

	ReplacePhoneToken(ctx context.Context, token *models.PhoneToken) error
	GetPhoneTokenByUser(ctx context.Context, userID uuid.UUID) (*models.PhoneToken, error)
	DeletePhoneTokenByID(ctx context.Context, id uuid.UUID) error
	DeletePhoneTokenByUser(ctx context.Context, userID uuid.UUID) error

	ReplacePasswordToken(ctx context.Context, token *models.PasswordToken) error
	GetPasswordTokenByValue(ctx context.Context, value string) (*models.PasswordToken, error)
	DeletePasswordTokenByID(ctx context.Context, id uuid.UUID) error
}

// TokenService управляет жизненным циклом непрозрачных токенов:
// выпуск, проверка с ленивым вытеснением просроченных, аутентификация
// по сессионному токену. Срок жизни нигде не хранится в базе — он
// вычисляется из created_at и настроек при каждой проверке.
type TokenService struct {
	repo TokenRepository
	cfg  config.TokenConfig

	// now подменяется в тестах.
	now func() time.Time
}

// NewTokenService создаёт сервис токенов.
func NewTokenService(repo TokenRepository, cfg config.TokenConfig) *TokenService {
	return &TokenService{
		repo: repo,
		cfg:  cfg,
		now:  time.Now,
	}
}

// generateSessionValue возвращает 32 шестнадцатеричных символа.
func generateSessionValue() (string, error) {
	buf := make([]byte, sessionTokenLength/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("token service: не удалось сгенерировать значение: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// generateVerificationValue возвращает строку заданной длины из
// алфавита без неоднозначных символов.
func generateVerificationValue(length int) (string, error) {
	max := big.NewInt(int64(len(verificationAlphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("token service: не удалось сгенерировать значение: %w", err)
		}
		buf[i] = verificationAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// ValidateValueShape проверяет, что значение по форме соответствует
// виду токена. Значение не той формы отклоняется до обращения к базе.
func ValidateValueShape(kind models.TokenKind, value string) error {
	var ok bool
	switch kind {
	case models.TokenKindSession:
		ok = sessionTokenRegex.MatchString(value)
	case models.TokenKindPhone:
		ok = phoneTokenRegex.MatchString(value)
	case models.TokenKindEmail, models.TokenKindPassword:
		ok = verificationTokenRegex.MatchString(value)
	}
	if !ok {
		return apperror.New(apperror.ErrCodeValidation, "некорректный формат токена")
	}
	return nil
}

// sessionTTL возвращает срок жизни сессии владельца: пользователи без
// подтверждённого email получают укороченную сессию.
func (s *TokenService) sessionTTL(user *models.User) time.Duration {
	if user.EmailVerified {
		return s.cfg.SessionTTL
	}
	return s.cfg.UnverifiedSessionTTL
}

// Токен жив строго меньше TTL: ровно на границе он уже просрочен.
func (s *TokenService) expired(createdAt time.Time, ttl time.Duration) bool {
	return !s.now().Before(createdAt.Add(ttl))
}

// IssueAuthToken выпускает новый сессионный токен. Старые сессии не
// трогаются: пользователь может быть залогинен с нескольких устройств.
// При коллизии значения генерация повторяется.
func (s *TokenService) IssueAuthToken(ctx context.Context, user *models.User) (*models.AuthToken, error) {
	for attempt := 0; attempt < tokenIssueAttempts; attempt++ {
		value, err := generateSessionValue()
		if err != nil {
			return nil, err
		}
		token := &models.AuthToken{UserID: user.ID, Value: value}
		err = s.repo.CreateAuthToken(ctx, token)
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, repository.ErrDuplicateTokenValue) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("token service: превышено число попыток выпуска сессионного токена")
}

// IssueEmailToken выпускает токен подтверждения email. Предыдущий токен
// пользователя, если был, вытесняется в той же транзакции.
func (s *TokenService) IssueEmailToken(ctx context.Context, userID uuid.UUID, pendingEmail string) (*models.EmailToken, error) {
	for attempt := 0; attempt < tokenIssueAttempts; attempt++ {
		value, err := generateVerificationValue(verificationTokenLength)
		if err != nil {
			return nil, err
		}
		token := &models.EmailToken{UserID: userID, PendingEmail: pendingEmail, Value: value}
		err = s.repo.ReplaceEmailToken(ctx, token)
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, repository.ErrDuplicateTokenValue) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("token service: превышено число попыток выпуска email-токена")
}

// IssuePhoneToken выпускает SMS-код подтверждения телефона, вытесняя
// предыдущий код пользователя.
func (s *TokenService) IssuePhoneToken(ctx context.Context, userID uuid.UUID, pendingPhone string) (*models.PhoneToken, error) {
	for attempt := 0; attempt < tokenIssueAttempts; attempt++ {
		value, err := generateVerificationValue(phoneTokenLength)
		if err != nil {
			return nil, err
		}
		token := &models.PhoneToken{UserID: userID, PendingPhone: pendingPhone, Value: value}
		err = s.repo.ReplacePhoneToken(ctx, token)
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, repository.ErrDuplicateTokenValue) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("token service: превышено число попыток выпуска SMS-кода")
}

// IssuePasswordToken выпускает токен сброса пароля, вытесняя предыдущий.
func (s *TokenService) IssuePasswordToken(ctx context.Context, userID uuid.UUID) (*models.PasswordToken, error) {
	for attempt := 0; attempt < tokenIssueAttempts; attempt++ {
		value, err := generateVerificationValue(verificationTokenLength)
		if err != nil {
			return nil, err
		}
		token := &models.PasswordToken{UserID: userID, Value: value}
		err = s.repo.ReplacePasswordToken(ctx, token)
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, repository.ErrDuplicateTokenValue) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("token service: превышено число попыток выпуска токена сброса")
}

// Authenticate разрешает сессионный токен в пользователя. Любой сбой —
// неверная форма, неизвестное значение, истёкшая сессия, заблокированный
// пользователь — отдаётся одной и той же ошибкой, чтобы ответ не
// подсказывал, какие токены существуют. Истёкшая сессия при этом
// удаляется из базы.
func (s *TokenService) Authenticate(ctx context.Context, value string) (*models.User, error) {
	if !sessionTokenRegex.MatchString(value) {
		return nil, apperror.ErrAuthenticationFailed
	}

	token, user, err := s.repo.GetAuthTokenWithUser(ctx, value)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, apperror.ErrAuthenticationFailed
		}
		return nil, err
	}

	if s.expired(token.CreatedAt, s.sessionTTL(user)) {
		// Ленивое вытеснение: удаление идемпотентно, конкурентные
		// запросы с тем же токеном одинаково получат отказ.
		if err := s.repo.DeleteAuthTokenByValue(ctx, value); err != nil {
			return nil, err
		}
		return nil, apperror.ErrAuthenticationFailed
	}

	if !user.IsActive {
		return nil, apperror.ErrAuthenticationFailed
	}

	return user, nil
}

// RevokeAuthToken завершает сессию. Удаление идемпотентно.
func (s *TokenService) RevokeAuthToken(ctx context.Context, value string) error {
	return s.repo.DeleteAuthTokenByValue(ctx, value)
}

// LiveEmailToken возвращает живой email-токен пользователя или nil.
// Просроченный токен удаляется по пути.
func (s *TokenService) LiveEmailToken(ctx context.Context, userID uuid.UUID) (*models.EmailToken, error) {
	token, err := s.repo.GetEmailTokenByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if s.expired(token.CreatedAt, s.cfg.VerificationTTL) {
		if err := s.repo.DeleteEmailTokenByID(ctx, token.ID); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return token, nil
}

// LivePhoneToken возвращает живой SMS-код пользователя или nil.
// Просроченный код удаляется по пути.
func (s *TokenService) LivePhoneToken(ctx context.Context, userID uuid.UUID) (*models.PhoneToken, error) {
	token, err := s.repo.GetPhoneTokenByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if s.expired(token.CreatedAt, s.cfg.VerificationTTL) {
		if err := s.repo.DeletePhoneTokenByID(ctx, token.ID); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return token, nil
}

// CheckEmailToken сверяет предъявленное значение с email-токеном
// пользователя. Отсутствующий или чужой токен неотличимы от невалидного;
// просроченный удаляется и отдаёт отдельное сообщение.
func (s *TokenService) CheckEmailToken(ctx context.Context, userID uuid.UUID, value string) (*models.EmailToken, error) {
	if err := ValidateValueShape(models.TokenKindEmail, value); err != nil {
		return nil, err
	}
	token, err := s.repo.GetEmailTokenByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, apperror.ErrTokenInvalid
		}
		return nil, err
	}
	if s.expired(token.CreatedAt, s.cfg.VerificationTTL) {
		if err := s.repo.DeleteEmailTokenByID(ctx, token.ID); err != nil {
			return nil, err
		}
		return nil, apperror.ErrTokenExpired
	}
	if token.Value != value {
		return nil, apperror.ErrTokenInvalid
	}
	return token, nil
}

// CheckPhoneToken сверяет предъявленный SMS-код с кодом пользователя.
func (s *TokenService) CheckPhoneToken(ctx context.Context, userID uuid.UUID, value string) (*models.PhoneToken, error) {
	if err := ValidateValueShape(models.TokenKindPhone, value); err != nil {
		return nil, err
	}
	token, err := s.repo.GetPhoneTokenByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, apperror.ErrTokenInvalid
		}
		return nil, err
	}
	if s.expired(token.CreatedAt, s.cfg.VerificationTTL) {
		if err := s.repo.DeletePhoneTokenByID(ctx, token.ID); err != nil {
			return nil, err
		}
		return nil, apperror.ErrTokenExpired
	}
	if token.Value != value {
		return nil, apperror.ErrTokenInvalid
	}
	return token, nil
}

// CheckPasswordToken находит токен сброса по значению. Сброс анонимный,
// владельца заранее не знаем, поэтому поиск идёт по самому значению.
func (s *TokenService) CheckPasswordToken(ctx context.Context, value string) (*models.PasswordToken, error) {
	if err := ValidateValueShape(models.TokenKindPassword, value); err != nil {
		return nil, err
	}
	token, err := s.repo.GetPasswordTokenByValue(ctx, value)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, apperror.ErrTokenInvalid
		}
		return nil, err
	}
	if s.expired(token.CreatedAt, s.cfg.VerificationTTL) {
		if err := s.repo.DeletePasswordTokenByID(ctx, token.ID); err != nil {
			return nil, err
		}
		return nil, apperror.ErrTokenExpired
	}
	return token, nil
}

// DropEmailToken отменяет ожидающее подтверждение email пользователя.
func (s *TokenService) DropEmailToken(ctx context.Context, userID uuid.UUID) error {
	return s.repo.DeleteEmailTokenByUser(ctx, userID)
}

// DropPhoneToken отменяет ожидающее подтверждение телефона пользователя.
func (s *TokenService) DropPhoneToken(ctx context.Context, userID uuid.UUID) error {
	return s.repo.DeletePhoneTokenByUser(ctx, userID)
}
