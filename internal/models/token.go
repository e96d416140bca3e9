package models

import (
	"time"

	"github.com/google/uuid"
)

// TokenKind различает четыре вида непрозрачных токенов.
type TokenKind string

const (
	TokenKindSession  TokenKind = "session"
	TokenKindEmail    TokenKind = "email"
	TokenKindPhone    TokenKind = "phone"
	TokenKindPassword TokenKind = "password"
)

// AuthToken — сессионный токен. Пользователь может держать несколько живых
// сессий одновременно (несколько устройств). Значение уникально глобально.
type AuthToken struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Value     string    `db:"value" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// EmailToken — одноразовый токен подтверждения email. На пользователя
// существует не более одного: выпуск нового вытесняет предыдущий.
type EmailToken struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	PendingEmail string    `db:"pending_email" json:"pending_email"`
	Value        string    `db:"value" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// PhoneToken — одноразовый SMS-код подтверждения телефона; короткое значение
// выбрано под ручной ввод. Не более одного на пользователя.
type PhoneToken struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	PendingPhone string    `db:"pending_phone" json:"pending_phone"`
	Value        string    `db:"value" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// PasswordToken — одноразовый токен сброса пароля. Не более одного на пользователя.
type PasswordToken struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Value     string    `db:"value" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
