package controllers

import (
	"context"
	"net/http"
	"strings"

	"diwan-api/models"
	"diwan-api/services"

	"github.com/gin-gonic/gin"
)

// Accounts is the user-management surface.
type Accounts interface {
	Register(ctx context.Context, input services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, login, password string) (*services.LoginResult, error)
	Profile(ctx context.Context, actor services.Actor) (*services.Profile, error)
	UpdateProfile(ctx context.Context, actor services.Actor, patch services.ProfilePatch) (*models.User, error)
	ChangePassword(ctx context.Context, actor services.Actor, current, next string) error
	ListUsers(ctx context.Context, actor services.Actor, filter services.UserFilter, page, limit int) ([]models.User, int64, error)
	GetUser(ctx context.Context, actor services.Actor, userID uint) (*services.Profile, error)
	ChangeRole(ctx context.Context, actor services.Actor, userID uint, role string) (*models.User, error)
	Delete(ctx context.Context, actor services.Actor, userID uint) error
}

type AuthController struct {
	accounts Accounts
}

func NewAuthController(accounts Accounts) *AuthController {
	return &AuthController{accounts: accounts}
}

type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token   string      `json:"token"`
	User    models.User `json:"user"`
	Message string      `json:"message"`
}

// Login handles user authentication
func (h *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.accounts.Login(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:   result.Token,
		User:    result.User,
		Message: "Login successful",
	})
}

// Register handles self-service sign-up
func (h *AuthController) Register(c *gin.Context) {
	var req services.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.accounts.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, user)
}

// GetProfile returns current user profile
func (h *AuthController) GetProfile(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	profile, err := h.accounts.Profile(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, profile)
}

// UpdateProfile edits the caller's name and bio
func (h *AuthController) UpdateProfile(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req services.ProfilePatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.accounts.UpdateProfile(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, user)
}

// ChangePassword handles password change
func (h *AuthController) ChangePassword(c *gin.Context) {
	type PasswordChangeRequest struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required"`
	}

	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req PasswordChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.accounts.ChangePassword(c.Request.Context(), actor, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password changed successfully"})
}

// ListUsers handles GET /admin/users
func (h *AuthController) ListUsers(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	page, limit := pageQuery(c)
	filter := services.UserFilter{
		Role:   models.Role(strings.TrimSpace(c.Query("role"))),
		Status: strings.TrimSpace(c.Query("status")),
		Search: c.Query("search"),
	}
	users, total, err := h.accounts.ListUsers(c.Request.Context(), actor, filter, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	paginated(c, users, total, page, limit)
}

// GetUser handles GET /admin/users/:id
func (h *AuthController) GetUser(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	profile, err := h.accounts.GetUser(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, profile)
}

// ChangeRole handles PUT /admin/users/:id/role
func (h *AuthController) ChangeRole(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.accounts.ChangeRole(c.Request.Context(), actor, id, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, user)
}

// DeleteUser handles DELETE /admin/users/:id
func (h *AuthController) DeleteUser(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.accounts.Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User deleted"})
}
