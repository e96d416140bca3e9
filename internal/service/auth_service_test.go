package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/flytster-backend/internal/models"
	"github.com/ignatzorin/flytster-backend/internal/pkg/apperror"
	"github.com/ignatzorin/flytster-backend/internal/repository"
)

// mockAuthRepository реализует AuthRepository для тестов.
type mockAuthRepository struct {
	usersByEmail map[string]*models.User
	usersByID    map[uuid.UUID]*models.User
}

func newMockAuthRepository() *mockAuthRepository {
	return &mockAuthRepository{
		usersByEmail: make(map[string]*models.User),
		usersByID:    make(map[uuid.UUID]*models.User),
	}
}

func (m *mockAuthRepository) Create(_ context.Context, user *models.User) error {
	if _, exists := m.usersByEmail[user.Email]; exists {
		return repository.ErrEmailExists
	}
	user.ID = uuid.New()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.IsActive = true
	m.usersByEmail[user.Email] = user
	m.usersByID[user.ID] = user
	return nil
}

func (m *mockAuthRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if user, ok := m.usersByEmail[strings.ToLower(email)]; ok {
		return user, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockAuthRepository) UpdateLastLoginAt(_ context.Context, userID uuid.UUID) error {
	if user, ok := m.usersByID[userID]; ok {
		now := time.Now()
		user.LastLoginAt = &now
	}
	return nil
}

// mockNotifier считает отправленные уведомления. Отправка идёт из
// фоновых горутин, поэтому счётчики под мьютексом.
type mockNotifier struct {
	mu        sync.Mutex
	welcome   int
	email     int
	phone     int
	passReset int
}

func (m *mockNotifier) SendWelcome(_ context.Context, _ *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.welcome++
	return nil
}

func (m *mockNotifier) SendEmailVerification(_ context.Context, _ *models.User, _ *models.EmailToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.email++
	return nil
}

func (m *mockNotifier) SendPhoneVerification(_ context.Context, _ *models.PhoneToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phone++
	return nil
}

func (m *mockNotifier) SendPasswordReset(_ context.Context, _ *models.User, _ *models.PasswordToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passReset++
	return nil
}

func newAuthServiceForTest() (*AuthService, *mockAuthRepository, *mockTokenRepository) {
	authRepo := newMockAuthRepository()
	tokenRepo := newMockTokenRepository()
	tokens := NewTokenService(tokenRepo, testTokenConfig())
	svc := NewAuthService(authRepo, tokens, &mockNotifier{})
	return svc, authRepo, tokenRepo
}

func TestAuthService_Register(t *testing.T) {
	svc, authRepo, tokenRepo := newAuthServiceForTest()

	ctx := context.Background()
	res, err := svc.Register(ctx, RegisterInput{
		Email:     "DABBIN@gmail.com",
		FirstName: "Дмитрий",
		LastName:  "Аббин",
		Password:  "password1",
	})
	if err != nil {
		t.Fatalf("регистрация вернула ошибку: %v", err)
	}

	if res.User.ID == uuid.Nil {
		t.Fatalf("user ID должен быть установлен")
	}
	if res.User.Email != "dabbin@gmail.com" {
		t.Fatalf("email должен храниться в нижнем регистре, получили %q", res.User.Email)
	}
	if res.User.EmailVerified {
		t.Fatalf("email не может быть подтверждён сразу после регистрации")
	}
	if res.Token == nil || res.Token.Value == "" {
		t.Fatalf("регистрация должна сразу выдавать сессионный токен")
	}

	tokenRepo.addUser(res.User)
	if _, err := svc.tokens.Authenticate(ctx, res.Token.Value); err != nil {
		t.Fatalf("выданный токен должен проходить аутентификацию: %v", err)
	}

	// Токен подтверждения указывает на зарегистрированный адрес.
	emailToken, ok := tokenRepo.emailByUser[res.User.ID]
	if !ok {
		t.Fatalf("регистрация должна выпустить токен подтверждения email")
	}
	if emailToken.PendingEmail != "dabbin@gmail.com" {
		t.Fatalf("токен подтверждения указывает не на тот адрес: %q", emailToken.PendingEmail)
	}

	if _, ok := authRepo.usersByEmail["dabbin@gmail.com"]; !ok {
		t.Fatalf("пользователь должен находиться по нижнерегистровому email")
	}
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthServiceForTest()

	ctx := context.Background()
	in := RegisterInput{
		Email:     "dabbin@gmail.com",
		FirstName: "Дмитрий",
		LastName:  "Аббин",
		Password:  "password1",
	}
	if _, err := svc.Register(ctx, in); err != nil {
		t.Fatalf("первая регистрация вернула ошибку: %v", err)
	}

	// Тот же адрес в другом регистре — тот же аккаунт.
	in.Email = "Dabbin@GMAIL.com"
	if _, err := svc.Register(ctx, in); !apperror.IsConflict(err) {
		t.Fatalf("повторная регистрация должна давать конфликт, получили %v", err)
	}
}

func TestAuthService_Register_InvalidInput(t *testing.T) {
	svc, _, _ := newAuthServiceForTest()
	ctx := context.Background()

	cases := []struct {
		name string
		in   RegisterInput
	}{
		{"некорректный email", RegisterInput{Email: "not-an-email", FirstName: "А", LastName: "Б", Password: "password1"}},
		{"короткий пароль", RegisterInput{Email: "a@example.com", FirstName: "А", LastName: "Б", Password: "pass1"}},
		{"пароль без цифры", RegisterInput{Email: "a@example.com", FirstName: "А", LastName: "Б", Password: "passwords"}},
		{"пустое имя", RegisterInput{Email: "a@example.com", FirstName: "", LastName: "Б", Password: "password1"}},
	}

	for _, tc := range cases {
		if _, err := svc.Register(ctx, tc.in); !apperror.IsValidation(err) {
			t.Fatalf("%s: ожидалась ошибка валидации, получили %v", tc.name, err)
		}
	}
}

func TestAuthService_Login(t *testing.T) {
	svc, authRepo, tokenRepo := newAuthServiceForTest()

	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.DefaultCost)
	user := &models.User{
		ID:           uuid.New(),
		Email:        "dabbin@gmail.com",
		FirstName:    "Дмитрий",
		LastName:     "Аббин",
		PasswordHash: string(hash),
		IsActive:     true,
	}
	authRepo.usersByEmail[user.Email] = user
	authRepo.usersByID[user.ID] = user
	tokenRepo.addUser(user)

	res, err := svc.Login(ctx, LoginInput{Email: "DABBIN@gmail.com", Password: "password1"})
	if err != nil {
		t.Fatalf("вход вернул ошибку: %v", err)
	}
	if res.Token == nil || res.Token.Value == "" {
		t.Fatalf("вход должен выдавать сессионный токен")
	}
	if user.LastLoginAt == nil {
		t.Fatalf("вход должен фиксировать время последнего входа")
	}

	// Неверный пароль и несуществующий адрес дают один и тот же отказ.
	_, errWrongPass := svc.Login(ctx, LoginInput{Email: "dabbin@gmail.com", Password: "wrongpass1"})
	_, errNoUser := svc.Login(ctx, LoginInput{Email: "ghost@gmail.com", Password: "password1"})
	if !apperror.IsAuthentication(errWrongPass) || !apperror.IsAuthentication(errNoUser) {
		t.Fatalf("ожидался единый отказ аутентификации, получили %v и %v", errWrongPass, errNoUser)
	}
	if errWrongPass.Error() != errNoUser.Error() {
		t.Fatalf("сообщения отказов не должны различаться")
	}
}

func TestAuthService_Logout(t *testing.T) {
	svc, _, tokenRepo := newAuthServiceForTest()

	ctx := context.Background()
	res, err := svc.Register(ctx, RegisterInput{
		Email:     "dabbin@gmail.com",
		FirstName: "Дмитрий",
		LastName:  "Аббин",
		Password:  "password1",
	})
	if err != nil {
		t.Fatalf("регистрация вернула ошибку: %v", err)
	}
	tokenRepo.addUser(res.User)

	if err := svc.Logout(ctx, res.Token.Value); err != nil {
		t.Fatalf("выход вернул ошибку: %v", err)
	}

	if _, err := svc.tokens.Authenticate(ctx, res.Token.Value); !apperror.IsAuthentication(err) {
		t.Fatalf("после выхода токен должен быть недействителен, получили %v", err)
	}

	// Повторный выход с тем же токеном безвреден.
	if err := svc.Logout(ctx, res.Token.Value); err != nil {
		t.Fatalf("повторный выход вернул ошибку: %v", err)
	}
}
