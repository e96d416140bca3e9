package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/flytster-backend/internal/dto"
	"github.com/ignatzorin/flytster-backend/internal/http/handlers/common"
	"github.com/ignatzorin/flytster-backend/internal/http/middleware"
	"github.com/ignatzorin/flytster-backend/internal/service"
)

// AuthHandler предоставляет HTTP слой для регистрации, входа и выхода.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler создаёт хэндлер.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register обрабатывает POST /api/v1/user/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}

	result, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		common.RespondError(c, err)
		return
	}

	// Свежезарегистрированный пользователь всегда имеет ожидающий email.
	resp := dto.NewUserResponse(result.User, &result.User.Email, nil)
	resp.Token = result.Token.Value
	common.RespondJSON(c, http.StatusCreated, resp)
}

// Login обрабатывает POST /api/v1/user/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		common.RespondError(c, err)
		return
	}

	resp := dto.NewUserResponse(result.User, nil, nil)
	resp.Token = result.Token.Value
	common.RespondJSON(c, http.StatusOK, resp)
}

// Logout обрабатывает DELETE /api/v1/user/logout. Завершает только
// текущую сессию; повторный запрос с тем же токеном получит 403 ещё
// на аутентификации.
func (h *AuthHandler) Logout(c *gin.Context) {
	value, ok := middleware.CurrentTokenValue(c)
	if !ok {
		common.RespondNoContent(c)
		return
	}

	if err := h.auth.Logout(c.Request.Context(), value); err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondNoContent(c)
}
