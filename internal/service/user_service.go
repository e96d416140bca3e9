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

// UserRepository описывает зависимости UserService от слоя хранилища.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePasswordHash(ctx context.Context, userID uuid.UUID, hash string) error
	VerifiedPhoneExists(ctx context.Context, phone string, exceptUserID uuid.UUID) (bool, error)
	ConsumeEmailToken(ctx context.Context, tokenID, userID uuid.UUID, pendingEmail string) error
	ConsumePhoneToken(ctx context.Context, tokenID, userID uuid.UUID, pendingPhone string) error
	ConsumePasswordToken(ctx context.Context, tokenID, userID uuid.UUID, passwordHash string) error
}

// UserService отвечает за профиль и сценарии подтверждения: смена email
// и телефона через одноразовые токены, смена и сброс пароля.
type UserService struct {
	repo     UserRepository
	tokens   *TokenService
	notifier notifier.Notifier
}

// Profile — пользователь вместе с ожидающими подтверждения контактами.
// PendingEmail и PendingPhone заполнены, только пока жив соответствующий токен.
type Profile struct {
	User         *models.User
	PendingEmail *string
	PendingPhone *string
}

// UpdateInput — частичное обновление профиля. nil означает
// «поле не менять».
type UpdateInput struct {
	FirstName            *string
	LastName             *string
	Email                *string
	ReceiveNotifications *bool
	// PhoneSet различает отсутствие поля phone в запросе и явный null:
	// null отменяет ожидающее подтверждение и снимает текущий номер.
	PhoneSet bool
	Phone    *string
}

// NewUserService создаёт сервис профиля.
func NewUserService(repo UserRepository, tokens *TokenService, n notifier.Notifier) *UserService {
	return &UserService{
		repo:     repo,
		tokens:   tokens,
		notifier: n,
	}
}

// GetProfile собирает профиль пользователя. Просроченные токены
// подтверждения удаляются по пути, и ожидающие поля гаснут сами.
func (s *UserService) GetProfile(ctx context.Context, user *models.User) (*Profile, error) {
	profile := &Profile{User: user}

	emailToken, err := s.tokens.LiveEmailToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if emailToken != nil {
		profile.PendingEmail = &emailToken.PendingEmail
	}

	phoneToken, err := s.tokens.LivePhoneToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if phoneToken != nil {
		profile.PendingPhone = &phoneToken.PendingPhone
	}

	return profile, nil
}

// Update применяет частичное обновление профиля. Смена email и телефона
// не применяется сразу: выпускается токен подтверждения, а до его
// потребления контакт висит в ожидающих.
func (s *UserService) Update(ctx context.Context, user *models.User, in UpdateInput) (*Profile, error) {
	if in.FirstName != nil {
		if err := validation.ValidateName("имя", *in.FirstName); err != nil {
			return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
		}
		user.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		if err := validation.ValidateName("фамилия", *in.LastName); err != nil {
			return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
		}
		user.LastName = *in.LastName
	}
	if in.ReceiveNotifications != nil {
		user.ReceiveNotifications = *in.ReceiveNotifications
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	if in.Email != nil {
		if err := s.requestEmailChange(ctx, user, *in.Email); err != nil {
			return nil, err
		}
	}

	if in.PhoneSet {
		if err := s.requestPhoneChange(ctx, user, in.Phone); err != nil {
			return nil, err
		}
	}

	return s.GetProfile(ctx, user)
}

// requestEmailChange выпускает токен подтверждения нового адреса.
// Возврат к текущему подтверждённому адресу просто отменяет ожидающую
// смену; свой же неподтверждённый адрес получает свежий токен.
func (s *UserService) requestEmailChange(ctx context.Context, user *models.User, email string) error {
	if err := validation.ValidateEmail(email); err != nil {
		return apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	email = validation.NormalizeEmail(email)

	if email == user.Email {
		if user.EmailVerified {
			return s.tokens.DropEmailToken(ctx, user.ID)
		}
		// Свой адрес занятым быть не может, проверка не нужна.
	} else if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return apperror.ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return err
	}

	token, err := s.tokens.IssueEmailToken(ctx, user.ID, email)
	if err != nil {
		return err
	}

	s.dispatch(func(ctx context.Context) {
		if err := s.notifier.SendEmailVerification(ctx, user, token); err != nil {
			logger.Component("users").WithError(err).Warn("Не удалось отправить письмо подтверждения email")
		}
	})
	return nil
}

// requestPhoneChange выпускает SMS-код для нового номера. nil снимает
// номер целиком: и ожидающий, и уже подтверждённый.
func (s *UserService) requestPhoneChange(ctx context.Context, user *models.User, phone *string) error {
	if phone == nil {
		if err := s.tokens.DropPhoneToken(ctx, user.ID); err != nil {
			return err
		}
		if user.Phone != nil || user.PhoneVerified {
			user.Phone = nil
			user.PhoneVerified = false
			return s.repo.Update(ctx, user)
		}
		return nil
	}

	if err := validation.ValidatePhone(*phone); err != nil {
		return apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	// Повторная установка уже подтверждённого номера отменяет
	// ожидающую смену.
	if user.PhoneVerified && user.Phone != nil && *user.Phone == *phone {
		return s.tokens.DropPhoneToken(ctx, user.ID)
	}

	taken, err := s.repo.VerifiedPhoneExists(ctx, *phone, user.ID)
	if err != nil {
		return err
	}
	if taken {
		return apperror.ErrPhoneTaken
	}

	token, err := s.tokens.IssuePhoneToken(ctx, user.ID, *phone)
	if err != nil {
		return err
	}

	s.dispatch(func(ctx context.Context) {
		if err := s.notifier.SendPhoneVerification(ctx, token); err != nil {
			logger.Component("users").WithError(err).Warn("Не удалось отправить SMS-код подтверждения")
		}
	})
	return nil
}

// VerifyEmail потребляет токен подтверждения и переносит ожидающий
// адрес в подтверждённый. Токен одноразовый: из двух конкурентных
// запросов успеет только один.
func (s *UserService) VerifyEmail(ctx context.Context, user *models.User, value string) error {
	token, err := s.tokens.CheckEmailToken(ctx, user.ID, value)
	if err != nil {
		return err
	}

	err = s.repo.ConsumeEmailToken(ctx, token.ID, user.ID, token.PendingEmail)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return apperror.ErrTokenInvalid
		}
		if errors.Is(err, repository.ErrEmailExists) {
			return apperror.ErrEmailTaken
		}
		return err
	}

	user.Email = validation.NormalizeEmail(token.PendingEmail)
	user.EmailVerified = true
	return nil
}

// VerifyPhone потребляет SMS-код и закрепляет номер за пользователем.
// Гонка с другим владельцем того же номера разрешается в транзакции.
func (s *UserService) VerifyPhone(ctx context.Context, user *models.User, value string) error {
	token, err := s.tokens.CheckPhoneToken(ctx, user.ID, value)
	if err != nil {
		return err
	}

	err = s.repo.ConsumePhoneToken(ctx, token.ID, user.ID, token.PendingPhone)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return apperror.ErrTokenInvalid
		}
		if errors.Is(err, repository.ErrPhoneConflict) {
			return apperror.ErrPhoneTaken
		}
		return err
	}

	phone := token.PendingPhone
	user.Phone = &phone
	user.PhoneVerified = true
	return nil
}

// ChangePassword меняет пароль аутентифицированного пользователя после
// проверки текущего.
func (s *UserService) ChangePassword(ctx context.Context, user *models.User, currentPassword, newPassword string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return apperror.New(apperror.ErrCodeValidation, "текущий пароль указан неверно")
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось захешировать пароль")
	}

	if err := s.repo.UpdatePasswordHash(ctx, user.ID, string(hash)); err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	return nil
}

// RequestPasswordReset выпускает токен сброса и отправляет его на email.
// Для неизвестного адреса возвращается 404: ссылку сброса запрашивает
// сам владелец адреса, скрывать существование аккаунта здесь не от кого.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperror.ErrUserNotFound
		}
		return err
	}

	token, err := s.tokens.IssuePasswordToken(ctx, user.ID)
	if err != nil {
		return err
	}

	s.dispatch(func(ctx context.Context) {
		if err := s.notifier.SendPasswordReset(ctx, user, token); err != nil {
			logger.Component("users").WithError(err).Warn("Не удалось отправить письмо сброса пароля")
		}
	})
	return nil
}

// ResetPassword потребляет токен сброса, ставит новый пароль и сразу
// логинит пользователя новым сессионным токеном.
func (s *UserService) ResetPassword(ctx context.Context, value, newPassword string) (*AuthResult, error) {
	if err := validation.ValidatePassword(newPassword); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	token, err := s.tokens.CheckPasswordToken(ctx, value)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrTokenInvalid
		}
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось захешировать пароль")
	}

	if err := s.repo.ConsumePasswordToken(ctx, token.ID, user.ID, string(hash)); err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, apperror.ErrTokenInvalid
		}
		return nil, err
	}
	user.PasswordHash = string(hash)

	authToken, err := s.tokens.IssueAuthToken(ctx, user)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Token: authToken}, nil
}

func (s *UserService) dispatch(fn func(context.Context)) {
	goroutine.SafeGoWithContext(context.Background(), fn)
}
