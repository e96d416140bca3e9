package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeValidation     ErrorCode = "VALIDATION_ERROR"
	ErrCodeAuthentication ErrorCode = "AUTHENTICATION_FAILED"
	ErrCodeInvalidToken   ErrorCode = "INVALID_TOKEN"
	ErrCodeNotFound       ErrorCode = "NOT_FOUND"
	ErrCodeConflict       ErrorCode = "CONFLICT"
	ErrCodeInternal       ErrorCode = "INTERNAL_ERROR"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeAuthentication:
		// Сессионный путь намеренно не различает "нет токена" / "не найден" / "истёк".
		return http.StatusForbidden
	case ErrCodeInvalidToken, ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func IsValidation(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeValidation
}

func IsAuthentication(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeAuthentication
}

func IsInvalidToken(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeInvalidToken
}

func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeNotFound
}

func IsConflict(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeConflict
}

var (
	// ErrAuthenticationFailed — единый ответ на любой сбой сессионной аутентификации.
	ErrAuthenticationFailed = New(ErrCodeAuthentication, "требуется авторизация")
	// ErrTokenInvalid и ErrTokenExpired различаются в тексте: вызывающий
	// verify-эндпоинты пользователь уже аутентифицирован, утечки данных нет.
	ErrTokenInvalid = New(ErrCodeInvalidToken, "токен подтверждения недействителен")
	ErrTokenExpired = New(ErrCodeInvalidToken, "срок действия токена подтверждения истёк")

	ErrUserNotFound     = New(ErrCodeNotFound, "пользователь не найден")
	ErrEmailTaken       = New(ErrCodeConflict, "пользователь с таким email уже существует")
	ErrPhoneTaken       = New(ErrCodeConflict, "этот номер телефона уже подтверждён другим пользователем")
	ErrTripNotFound     = New(ErrCodeNotFound, "поездка не найдена")
	ErrSearchNotFound   = New(ErrCodeNotFound, "поиск не найден")
	ErrSearchExpired    = New(ErrCodeConflict, "цена поиска устарела, повторите поиск")
	ErrSearchBooked     = New(ErrCodeConflict, "по этому поиску уже оформлена поездка")
	ErrPassengerExists  = New(ErrCodeConflict, "такой пассажир уже добавлен в поездку")
	ErrPassengerMissing = New(ErrCodeNotFound, "пассажир не найден")
)
