package models

import (
	"time"

	"github.com/google/uuid"
)

// User описывает пользователя сервиса бронирования.
// Email сохраняется сразу при регистрации в нижнем регистре; флаг
// EmailVerified поднимается только после подтверждения токеном.
// Phone появляется у пользователя только после подтверждения SMS-кодом,
// до этого номер живёт в PhoneToken как ожидающий.
type User struct {
	ID                   uuid.UUID  `db:"id" json:"id"`
	Email                string     `db:"email" json:"email"`
	FirstName            string     `db:"first_name" json:"first_name"`
	LastName             string     `db:"last_name" json:"last_name"`
	PasswordHash         string     `db:"password_hash" json:"-"`
	EmailVerified        bool       `db:"email_verified" json:"email_verified"`
	Phone                *string    `db:"phone" json:"phone"`
	PhoneVerified        bool       `db:"phone_verified" json:"phone_verified"`
	ReceiveNotifications bool       `db:"receive_notifications" json:"receive_notifications"`
	IsActive             bool       `db:"is_active" json:"is_active"`
	LastLoginAt          *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName возвращает полное имя пользователя для писем и SMS.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
