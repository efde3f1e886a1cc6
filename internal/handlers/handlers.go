package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"solace/internal/domain"
	"solace/internal/repository"
	"solace/internal/services"
	"solace/pkg/response"
)

// UserHandler is the auth + user-profile surface, adapted from the
// teacher's UserHandler/UserService — same login-then-JWT flow, rewired to
// AuthService/domain.User.
type UserHandler struct {
	auth  *services.AuthService
	users *repository.UserRepository
}

func NewUserHandler(auth *services.AuthService, users *repository.UserRepository) *UserHandler {
	return &UserHandler{auth: auth, users: users}
}

// Login handles POST {prefix}/auth/login.
func (h *UserHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Detail(c, http.StatusBadRequest, "email and password are required")
		return
	}

	user, token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Detail(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
}

// Me handles GET {prefix}/auth/me.
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := c.Get("user_id")
	if !ok {
		response.Detail(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), userID.(string))
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to load user")
		return
	}
	if user == nil {
		response.Detail(c, http.StatusNotFound, "user not found")
		return
	}
	c.JSON(http.StatusOK, user)
}

// List handles GET {prefix}/users.
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to list users")
		return
	}
	c.JSON(http.StatusOK, users)
}

// Create handles POST {prefix}/users.
func (h *UserHandler) Create(c *gin.Context) {
	var body struct {
		Email       string `json:"email" binding:"required"`
		Username    string `json:"username" binding:"required"`
		Password    string `json:"password" binding:"required"`
		DisplayName string `json:"display_name"`
		Role        string `json:"role"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Detail(c, http.StatusBadRequest, "invalid body")
		return
	}

	role := domain.UserRole(body.Role)
	if role == "" {
		role = domain.RoleUser
	}
	user := &domain.User{
		Email:       body.Email,
		Username:    body.Username,
		DisplayName: body.DisplayName,
		Role:        role,
		IsActive:    true,
	}

	if err := h.users.Create(c.Request.Context(), user, body.Password); err != nil {
		response.Detail(c, http.StatusBadRequest, "email or username already in use")
		return
	}
	c.JSON(http.StatusCreated, user)
}
