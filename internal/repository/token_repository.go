package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/flytster-backend/internal/models"
	"github.com/ignatzorin/flytster-backend/internal/repository/common"
)

// ErrTokenNotFound возвращается, когда токен не найден или уже удалён.
var ErrTokenNotFound = errors.New("token not found")

// ErrDuplicateTokenValue возвращается при коллизии значения токена.
// Вероятность астрономически мала, но сервис обязан перегенерировать
// значение, а не отдавать ошибку наружу.
var ErrDuplicateTokenValue = errors.New("token value already exists")

// TokenRepository отвечает за таблицы auth_tokens, email_tokens,
// phone_tokens и password_tokens. Значение токена уникально в каждой
// таблице; для одноразовых видов уникален и user_id — это ограничение
// хранилища, а не проверка в коде, несёт инвариант "не более одного
// живого токена на пользователя" под конкурентными запросами.
type TokenRepository struct {
	db *sqlx.DB
}

// NewTokenRepository создаёт экземпляр репозитория.
func NewTokenRepository(db *sqlx.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// pqUniqueViolation — код ошибки PostgreSQL для нарушения уникальности.
const pqUniqueViolation = "23505"

// isUniqueViolation определяет, нарушена ли уникальность указанной колонки.
func isUniqueViolation(err error, column string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != pqUniqueViolation {
		return false
	}
	if column == "" {
		return true
	}
	// Имена констрейнтов постгрес формирует как <table>_<column>_key.
	return pqErr.Constraint == "" || strings.Contains(pqErr.Constraint, column)
}

// CreateAuthToken сохраняет новый сессионный токен. Предыдущие сессии не
// трогаем: пользователь может быть залогинен с нескольких устройств.
func (r *TokenRepository) CreateAuthToken(ctx context.Context, token *models.AuthToken) error {
	query := `
		INSERT INTO auth_tokens (user_id, value)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query, token.UserID, token.Value).
		Scan(&token.ID, &token.CreatedAt); err != nil {
		if isUniqueViolation(err, "value") {
			return ErrDuplicateTokenValue
		}
		return fmt.Errorf("token repository: create auth token %w", err)
	}
	return nil
}

// GetAuthTokenWithUser находит сессионный токен по значению вместе с его
// владельцем. Один индексный запрос — горячий путь аутентификации.
func (r *TokenRepository) GetAuthTokenWithUser(ctx context.Context, value string) (*models.AuthToken, *models.User, error) {
	query := `
		SELECT t.id, t.user_id, t.value, t.created_at,
			u.id AS "user.id", u.email AS "user.email",
			u.first_name AS "user.first_name", u.last_name AS "user.last_name",
			u.password_hash AS "user.password_hash",
			u.email_verified AS "user.email_verified",
			u.phone AS "user.phone", u.phone_verified AS "user.phone_verified",
			u.receive_notifications AS "user.receive_notifications",
			u.is_active AS "user.is_active", u.last_login_at AS "user.last_login_at",
			u.created_at AS "user.created_at", u.updated_at AS "user.updated_at"
		FROM auth_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.value = $1
	`

	var row struct {
		models.AuthToken
		User models.User `db:"user"`
	}
	if err := r.db.GetContext(ctx, &row, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrTokenNotFound
		}
		return nil, nil, fmt.Errorf("token repository: get auth token %w", err)
	}

	token := row.AuthToken
	user := row.User
	return &token, &user, nil
}

// DeleteAuthTokenByValue удаляет сессионный токен. Идемпотентна: удаление
// уже отсутствующего токена не является ошибкой, конкурентная ленивая
// очистка могла успеть раньше.
func (r *TokenRepository) DeleteAuthTokenByValue(ctx context.Context, value string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM auth_tokens WHERE value = $1`, value); err != nil {
		return fmt.Errorf("token repository: delete auth token %w", err)
	}
	return nil
}

// ReplaceEmailToken атомарно вытесняет предыдущий email-токен пользователя
// и вставляет новый: удаление и вставка идут в одной транзакции, чтобы два
// конкурентных запроса не оставили два живых токена.
func (r *TokenRepository) ReplaceEmailToken(ctx context.Context, token *models.EmailToken) error {
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM email_tokens WHERE user_id = $1`, token.UserID); err != nil {
			return err
		}
		return tx.QueryRowxContext(ctx, `
			INSERT INTO email_tokens (user_id, pending_email, value)
			VALUES ($1, $2, $3)
			RETURNING id, created_at
		`, token.UserID, token.PendingEmail, token.Value).Scan(&token.ID, &token.CreatedAt)
	})
	if err != nil {
		if isUniqueViolation(err, "value") {
			return ErrDuplicateTokenValue
		}
		return fmt.Errorf("token repository: replace email token %w", err)
	}
	return nil
}

// GetEmailTokenByUser возвращает живой email-токен пользователя.
func (r *TokenRepository) GetEmailTokenByUser(ctx context.Context, userID uuid.UUID) (*models.EmailToken, error) {
	var token models.EmailToken
	err := r.db.GetContext(ctx, &token, `
		SELECT id, user_id, pending_email, value, created_at
		FROM email_tokens
		WHERE user_id = $1
	`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("token repository: get email token %w", err)
	}
	return &token, nil
}

// DeleteEmailTokenByID удаляет email-токен. Идемпотентна.
func (r *TokenRepository) DeleteEmailTokenByID(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM email_tokens WHERE id = $1`, id); err != nil {
		return fmt.Errorf("token repository: delete email token %w", err)
	}
	return nil
}

// DeleteEmailTokenByUser снимает ожидающую смену email без подтверждения.
func (r *TokenRepository) DeleteEmailTokenByUser(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM email_tokens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("token repository: delete email token by user %w", err)
	}
	return nil
}

// ReplacePhoneToken атомарно вытесняет предыдущий SMS-код и вставляет новый.
func (r *TokenRepository) ReplacePhoneToken(ctx context.Context, token *models.PhoneToken) error {
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM phone_tokens WHERE user_id = $1`, token.UserID); err != nil {
			return err
		}
		return tx.QueryRowxContext(ctx, `
			INSERT INTO phone_tokens (user_id, pending_phone, value)
			VALUES ($1, $2, $3)
			RETURNING id, created_at
		`, token.UserID, token.PendingPhone, token.Value).Scan(&token.ID, &token.CreatedAt)
	})
	if err != nil {
		if isUniqueViolation(err, "value") {
			return ErrDuplicateTokenValue
		}
		return fmt.Errorf("token repository: replace phone token %w", err)
	}
	return nil
}

// GetPhoneTokenByUser возвращает живой SMS-код пользователя.
func (r *TokenRepository) GetPhoneTokenByUser(ctx context.Context, userID uuid.UUID) (*models.PhoneToken, error) {
	var token models.PhoneToken
	err := r.db.GetContext(ctx, &token, `
		SELECT id, user_id, pending_phone, value, created_at
		FROM phone_tokens
		WHERE user_id = $1
	`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("token repository: get phone token %w", err)
	}
	return &token, nil
}

// DeletePhoneTokenByID удаляет SMS-код. Идемпотентна.
func (r *TokenRepository) DeletePhoneTokenByID(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM phone_tokens WHERE id = $1`, id); err != nil {
		return fmt.Errorf("token repository: delete phone token %w", err)
	}
	return nil
}

// DeletePhoneTokenByUser снимает ожидающую смену телефона.
func (r *TokenRepository) DeletePhoneTokenByUser(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM phone_tokens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("token repository: delete phone token by user %w", err)
	}
	return nil
}

// ReplacePasswordToken атомарно вытесняет предыдущий токен сброса пароля.
// Повторный запрос сброса инвалидирует ранее высланную ссылку.
func (r *TokenRepository) ReplacePasswordToken(ctx context.Context, token *models.PasswordToken) error {
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM password_tokens WHERE user_id = $1`, token.UserID); err != nil {
			return err
		}
		return tx.QueryRowxContext(ctx, `
			INSERT INTO password_tokens (user_id, value)
			VALUES ($1, $2)
			RETURNING id, created_at
		`, token.UserID, token.Value).Scan(&token.ID, &token.CreatedAt)
	})
	if err != nil {
		if isUniqueViolation(err, "value") {
			return ErrDuplicateTokenValue
		}
		return fmt.Errorf("token repository: replace password token %w", err)
	}
	return nil
}

// GetPasswordTokenByValue находит токен сброса по значению: на этом пути
// пользователь анонимен, искать по владельцу не по чему.
func (r *TokenRepository) GetPasswordTokenByValue(ctx context.Context, value string) (*models.PasswordToken, error) {
	var token models.PasswordToken
	err := r.db.GetContext(ctx, &token, `
		SELECT id, user_id, value, created_at
		FROM password_tokens
		WHERE value = $1
	`, value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("token repository: get password token %w", err)
	}
	return &token, nil
}

// DeletePasswordTokenByID удаляет токен сброса. Идемпотентна.
func (r *TokenRepository) DeletePasswordTokenByID(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM password_tokens WHERE id = $1`, id); err != nil {
		return fmt.Errorf("token repository: delete password token %w", err)
	}
	return nil
}
