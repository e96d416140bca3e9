package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/flytster-backend/internal/models"
	"github.com/ignatzorin/flytster-backend/internal/repository/common"
)

// ErrUserNotFound возвращается, когда запись пользователя не найдена.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailExists возвращается при попытке занять уже существующий email.
var ErrEmailExists = errors.New("email already exists")

// ErrPhoneConflict возвращается, когда подтверждаемый телефон уже
// закреплён за другим пользователем.
var ErrPhoneConflict = errors.New("phone already verified by another user")

const userColumns = `id, email, first_name, last_name, password_hash, email_verified,
	phone, phone_verified, receive_notifications, is_active, last_login_at, created_at, updated_at`

// UserRepository отвечает за таблицу users и транзакционные операции
// потребления одноразовых токенов: удаление токена и мутация пользователя
// обязаны фиксироваться вместе, иначе токен можно потратить дважды.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository создаёт экземпляр репозитория.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create создаёт нового пользователя. Email приводится к нижнему регистру
// на этом уровне, чтобы уникальный индекс работал без citext.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, first_name, last_name, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email_verified, phone_verified, receive_notifications, is_active, created_at, updated_at
	`
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if err := r.db.QueryRowxContext(ctx, query,
		user.Email, user.FirstName, user.LastName, user.PasswordHash,
	).Scan(&user.ID, &user.EmailVerified, &user.PhoneVerified,
		&user.ReceiveNotifications, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if isUniqueViolation(err, "email") {
			return ErrEmailExists
		}
		return fmt.Errorf("user repository: create %w", err)
	}
	return nil
}

// GetByEmail возвращает пользователя по email (без учёта регистра).
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	if err := r.db.GetContext(ctx, &user, query, strings.ToLower(strings.TrimSpace(email))); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by email %w", err)
	}
	return &user, nil
}

// GetByID возвращает пользователя по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by id %w", err)
	}
	return &user, nil
}

// Update сохраняет редактируемые поля профиля.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET first_name = $1, last_name = $2, phone = $3, phone_verified = $4,
			receive_notifications = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		user.FirstName, user.LastName, user.Phone, user.PhoneVerified,
		user.ReceiveNotifications, user.ID,
	).Scan(&user.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("user repository: update %w", err)
	}
	return nil
}

// UpdateLastLoginAt фиксирует время последнего входа.
func (r *UserRepository) UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = NOW() WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("user repository: update last login %w", err)
	}
	return nil
}

// UpdatePasswordHash меняет пароль аутентифицированного пользователя.
func (r *UserRepository) UpdatePasswordHash(ctx context.Context, userID uuid.UUID, hash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, hash, userID)
	if err != nil {
		return fmt.Errorf("user repository: update password %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// VerifiedPhoneExists проверяет, закреплён ли телефон за другим пользователем.
func (r *UserRepository) VerifiedPhoneExists(ctx context.Context, phone string, exceptUserID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM users WHERE phone = $1 AND phone_verified AND id <> $2
		)
	`, phone, exceptUserID)
	if err != nil {
		return false, fmt.Errorf("user repository: verified phone exists %w", err)
	}
	return exists, nil
}

// ConsumeEmailToken потребляет email-токен: удаляет его и переносит
// ожидающий email в подтверждённый — в одной транзакции. Удаление с
// проверкой числа строк гарантирует не более одного успешного
// потребления на выпущенный токен при конкурентных попытках.
func (r *UserRepository) ConsumeEmailToken(ctx context.Context, tokenID uuid.UUID, userID uuid.UUID, pendingEmail string) error {
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM email_tokens WHERE id = $1`, tokenID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			// Конкурентное потребление или ленивая очистка успели раньше.
			return ErrTokenNotFound
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE users SET email = $1, email_verified = TRUE, updated_at = NOW() WHERE id = $2
		`, strings.ToLower(pendingEmail), userID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return ErrTokenNotFound
		}
		if isUniqueViolation(err, "email") {
			return ErrEmailExists
		}
		return fmt.Errorf("user repository: consume email token %w", err)
	}
	return nil
}

// ConsumePhoneToken потребляет SMS-код: проверяет, что телефон не
// подтверждён другим пользователем, удаляет токен и закрепляет номер —
// всё в одной транзакции.
func (r *UserRepository) ConsumePhoneToken(ctx context.Context, tokenID uuid.UUID, userID uuid.UUID, pendingPhone string) error {
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var taken bool
		if err := tx.QueryRowxContext(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM users WHERE phone = $1 AND phone_verified AND id <> $2
			)
		`, pendingPhone, userID).Scan(&taken); err != nil {
			return err
		}
		if taken {
			return ErrPhoneConflict
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM phone_tokens WHERE id = $1`, tokenID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrTokenNotFound
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE users SET phone = $1, phone_verified = TRUE, updated_at = NOW() WHERE id = $2
		`, pendingPhone, userID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) || errors.Is(err, ErrPhoneConflict) {
			return err
		}
		return fmt.Errorf("user repository: consume phone token %w", err)
	}
	return nil
}

// ConsumePasswordToken потребляет токен сброса и ставит новый хэш пароля
// в одной транзакции.
func (r *UserRepository) ConsumePasswordToken(ctx context.Context, tokenID uuid.UUID, userID uuid.UUID, passwordHash string) error {
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM password_tokens WHERE id = $1`, tokenID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrTokenNotFound
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2
		`, passwordHash, userID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return ErrTokenNotFound
		}
		return fmt.Errorf("user repository: consume password token %w", err)
	}
	return nil
}
