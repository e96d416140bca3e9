package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/google/uuid"

	"github.com/ignatzorin/flytster-backend/internal/goroutine"
	"github.com/ignatzorin/flytster-backend/internal/logger"
	"github.com/ignatzorin/flytster-backend/internal/models"
	"github.com/ignatzorin/flytster-backend/internal/notifier"
	"github.com/ignatzorin/flytster-backend/internal/pkg/apperror"
	"github.com/ignatzorin/flytster-backend/internal/repository"
	"github.com/ignatzorin/flytster-backend/internal/validation"
)

// AuthRepository описывает зависимости AuthService от слоя хранилища.
type AuthRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error
}

// AuthService инкапсулирует регистрацию, вход и выход.
type AuthService struct {
	repo     AuthRepository
	tokens   *TokenService
	notifier notifier.Notifier
}

// RegisterInput содержит данные пользователя при регистрации.
type RegisterInput struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// LoginInput содержит данные для входа.
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult возвращает итог регистрации или входа: пользователя и
// выпущенный сессионный токен.
type AuthResult struct {
	User  *models.User
	Token *models.AuthToken
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(repo AuthRepository, tokens *TokenService, n notifier.Notifier) *AuthService {
	return &AuthService{
		repo:     repo,
		tokens:   tokens,
		notifier: n,
	}
}

// Register создаёт пользователя, выпускает токен подтверждения email и
// сразу логинит: клиент получает сессионный токен в ответе.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateName("имя", in.FirstName); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateName("фамилия", in.LastName); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось захешировать пароль")
	}

	user := &models.User{
		Email:        validation.NormalizeEmail(in.Email),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: string(passHash),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, apperror.ErrEmailTaken
		}
		return nil, err
	}

	// Email сохранён сразу, но считается неподтверждённым, пока
	// пользователь не предъявит токен.
	emailToken, err := s.tokens.IssueEmailToken(ctx, user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	authToken, err := s.tokens.IssueAuthToken(ctx, user)
	if err != nil {
		return nil, err
	}

	s.dispatch(func(ctx context.Context) {
		if err := s.notifier.SendWelcome(ctx, user); err != nil {
			logger.Component("auth").WithError(err).Warn("Не удалось отправить приветственное письмо")
		}
		if err := s.notifier.SendEmailVerification(ctx, user, emailToken); err != nil {
			logger.Component("auth").WithError(err).Warn("Не удалось отправить письмо подтверждения email")
		}
	})

	return &AuthResult{User: user, Token: authToken}, nil
}

// Login проверяет учётные данные и выпускает новый сессионный токен.
// Несуществующий email и неверный пароль неразличимы в ответе.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if in.Email == "" || in.Password == "" {
		return nil, apperror.New(apperror.ErrCodeAuthentication, "неверный email или пароль")
	}

	user, err := s.repo.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.New(apperror.ErrCodeAuthentication, "неверный email или пароль")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, apperror.New(apperror.ErrCodeAuthentication, "неверный email или пароль")
	}

	if !user.IsActive {
		return nil, apperror.New(apperror.ErrCodeAuthentication, "неверный email или пароль")
	}

	if err := s.repo.UpdateLastLoginAt(ctx, user.ID); err != nil {
		return nil, err
	}

	authToken, err := s.tokens.IssueAuthToken(ctx, user)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Token: authToken}, nil
}

// Logout завершает текущую сессию. Остальные сессии пользователя
// продолжают жить.
func (s *AuthService) Logout(ctx context.Context, tokenValue string) error {
	return s.tokens.RevokeAuthToken(ctx, tokenValue)
}

// dispatch отправляет уведомления вне запроса: сбой доставки не должен
// портить ответ клиенту.
func (s *AuthService) dispatch(fn func(context.Context)) {
	goroutine.SafeGoWithContext(context.Background(), fn)
}
