package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/flytster-backend/internal/dto"
	"github.com/ignatzorin/flytster-backend/internal/http/handlers/common"
	"github.com/ignatzorin/flytster-backend/internal/service"
)

// UserHandler предоставляет HTTP слой профиля и сценариев подтверждения.
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler создаёт хэндлер.
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) respondProfile(c *gin.Context, statusCode int, profile *service.Profile) {
	common.RespondJSON(c, statusCode, dto.NewUserResponse(profile.User, profile.PendingEmail, profile.PendingPhone))
}

// GetProfile обрабатывает GET /api/v1/user.
func (h *UserHandler) GetProfile(c *gin.Context) {
	user, err := common.CurrentUser(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	profile, err := h.users.GetProfile(c.Request.Context(), user)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	h.respondProfile(c, http.StatusOK, profile)
}

// Update обрабатывает PATCH /api/v1/user. Смена email и телефона не
// применяется сразу, а запускает подтверждение токеном.
func (h *UserHandler) Update(c *gin.Context) {
	user, err := common.CurrentUser(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	var req dto.UpdateUserRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}

	profile, err := h.users.Update(c.Request.Context(), user, service.UpdateInput{
		FirstName:            req.FirstName,
		LastName:             req.LastName,
		Email:                req.Email,
		ReceiveNotifications: req.ReceiveNotifications,
		PhoneSet:             req.Phone.Set,
		Phone:                req.Phone.Value,
	})
	if err != nil {
		common.RespondError(c, err)
		return
	}
	h.respondProfile(c, http.StatusOK, profile)
}

// VerifyEmail обрабатывает POST /api/v1/user/verify-email.
func (h *UserHandler) VerifyEmail(c *gin.Context) {
	user, err := common.CurrentUser(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	var req dto.VerifyTokenRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}

	if err := h.users.VerifyEmail(c.Request.Context(), user, req.Token); err != nil {
		common.RespondError(c, err)
		return
	}

	profile, err := h.users.GetProfile(c.Request.Context(), user)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	h.respondProfile(c, http.StatusOK, profile)
}

// VerifyPhone обрабатывает POST /api/v1/user/verify-phone.
func (h *UserHandler) VerifyPhone(c *gin.Context) {
	user, err := common.CurrentUser(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	var req dto.VerifyTokenRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}

	if err := h.users.VerifyPhone(c.Request.Context(), user, req.Token); err != nil {
		common.RespondError(c, err)
		return
	}

	profile, err := h.users.GetProfile(c.Request.Context(), user)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	h.respondProfile(c, http.StatusOK, profile)
}

// ChangePassword обрабатывает POST /api/v1/user/change-password.
func (h *UserHandler) ChangePassword(c *gin.Context) {
	user, err := common.CurrentUser(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	var req dto.ChangePasswordRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}

	if err := h.users.ChangePassword(c.Request.Context(), user, req.CurrentPassword, req.NewPassword); err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondNoContent(c)
}

// RequestPassword обрабатывает POST /api/v1/user/request-password.
// Маршрут анонимный: пароль сбрасывает тот, кто в аккаунт попасть не может.
func (h *UserHandler) RequestPassword(c *gin.Context) {
	var req dto.RequestPasswordRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}

	if err := h.users.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondNoContent(c)
}

// ResetPassword обрабатывает POST /api/v1/user/reset-password. Успешный
// сброс сразу логинит: в ответе новый сессионный токен.
func (h *UserHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}

	result, err := h.users.ResetPassword(c.Request.Context(), req.Token, req.Password)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	resp := dto.NewUserResponse(result.User, nil, nil)
	resp.Token = result.Token.Value
	common.RespondJSON(c, http.StatusOK, resp)
}
