package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"diwan-api/models"
	"diwan-api/utils"

	"github.com/rs/zerolog"
)

// RegisterInput is a self-service sign-up.
type RegisterInput struct {
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	FullName string  `json:"full_name"`
	Bio      *string `json:"bio"`
}

// ProfilePatch edits the caller's own profile.
type ProfilePatch struct {
	FullName *string `json:"full_name"`
	Bio      *string `json:"bio"`
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

// Profile is a user with their activity counters.
type Profile struct {
	User       models.User    `json:"user"`
	Statistics UserStatistics `json:"statistics"`
}

// UserService manages accounts, credentials and roles.
type UserService struct {
	store  UserStore
	tokens *TokenIssuer
	logger zerolog.Logger
	now    func() time.Time
}

func NewUserService(store UserStore, tokens *TokenIssuer, logger zerolog.Logger) *UserService {
	return &UserService{store: store, tokens: tokens, logger: logger, now: time.Now}
}

// Register creates an active contributor account.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	fullName := utils.SanitizeInput(input.FullName)

	problems := validationErrors{}
	if !utils.ValidateUsername(username) {
		problems.add("username", "username must be 3-50 letters, digits, dots, dashes or underscores")
	}
	if !utils.ValidateEmail(email) {
		problems.add("email", "email address is not valid")
	}
	if ok, msg := utils.ValidatePassword(input.Password); !ok {
		problems.add("password", msg)
	}
	if fullName == "" || utils.RuneLength(fullName) > 255 {
		problems.add("full_name", "full name is required")
	}
	if err := problems.err(); err != nil {
		return nil, err
	}

	exists, err := s.store.UserExists(ctx, username, email)
	if err != nil {
		return nil, internal("check user", err)
	}
	if exists {
		return nil, conflict("username or email is already registered")
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, internal("hash password", err)
	}
	now := s.now()
	user := &models.User{
		Username:  username,
		Email:     email,
		Password:  hashed,
		FullName:  fullName,
		Role:      models.RoleContributor,
		Status:    models.UserStatusActive,
		Bio:       trimmedPtr(input.Bio),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, internal("create user", err)
	}
	s.logger.Info().Uint("user_id", user.UserID).Str("username", user.Username).Msg("user registered")
	return user, nil
}

// Login checks credentials and issues an access token. Email or username may
// be used as the login.
func (s *UserService) Login(ctx context.Context, login, password string) (*LoginResult, error) {
	user, err := s.store.GetUserByLogin(ctx, strings.TrimSpace(login))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, unauthenticated("invalid login or password")
		}
		return nil, internal("load user", err)
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, unauthenticated("invalid login or password")
	}
	if !user.IsActive() {
		return nil, forbidden("account is %s", user.Status)
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, internal("issue token", err)
	}
	now := s.now()
	if err := s.store.UpdateUser(ctx, user.UserID, map[string]interface{}{"last_login": now}); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", user.UserID).Msg("failed to record last login")
	}
	user.LastLogin = &now
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: *user}, nil
}

// Authenticate resolves a bearer token to an active account.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, unauthenticated("invalid or expired token")
	}
	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, unauthenticated("user not found")
		}
		return nil, internal("load user", err)
	}
	if !user.IsActive() {
		return nil, forbidden("account is %s", user.Status)
	}
	return user, nil
}

func (s *UserService) Profile(ctx context.Context, actor Actor) (*Profile, error) {
	user, err := s.store.GetUser(ctx, actor.ID)
	if err != nil {
		return nil, internal("load user", err)
	}
	stats, err := s.store.UserStatistics(ctx, actor.ID)
	if err != nil {
		return nil, internal("load user statistics", err)
	}
	return &Profile{User: *user, Statistics: *stats}, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, actor Actor, patch ProfilePatch) (*models.User, error) {
	updates := map[string]interface{}{}
	if patch.FullName != nil {
		name := utils.SanitizeInput(*patch.FullName)
		if name == "" || utils.RuneLength(name) > 255 {
			return nil, invalid("full_name", "full name is required")
		}
		updates["full_name"] = name
	}
	if patch.Bio != nil {
		updates["bio"] = trimmedPtr(patch.Bio)
	}
	if len(updates) > 0 {
		updates["updated_at"] = s.now()
		if err := s.store.UpdateUser(ctx, actor.ID, updates); err != nil {
			return nil, internal("update profile", err)
		}
	}
	user, err := s.store.GetUser(ctx, actor.ID)
	if err != nil {
		return nil, internal("load user", err)
	}
	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, actor Actor, current, next string) error {
	if ok, msg := utils.ValidatePassword(next); !ok {
		return invalid("new_password", msg)
	}
	user, err := s.store.GetUser(ctx, actor.ID)
	if err != nil {
		return internal("load user", err)
	}
	if !utils.CheckPasswordHash(current, user.Password) {
		return invalid("current_password", "current password is incorrect")
	}
	hashed, err := utils.HashPassword(next)
	if err != nil {
		return internal("hash password", err)
	}
	if err := s.store.UpdateUser(ctx, actor.ID, map[string]interface{}{
		"password":   hashed,
		"updated_at": s.now(),
	}); err != nil {
		return internal("update password", err)
	}
	s.logger.Info().Uint("user_id", actor.ID).Msg("password changed")
	return nil
}

// ListUsers is the admin directory.
func (s *UserService) ListUsers(ctx context.Context, actor Actor, filter UserFilter, page, limit int) ([]models.User, int64, error) {
	if err := Authorize(actor, PermManageUsers, Resource{}); err != nil {
		return nil, 0, err
	}
	if filter.Role != "" {
		role, ok := models.ParseRole(string(filter.Role))
		if !ok {
			return nil, 0, invalid("role", "unknown role")
		}
		filter.Role = role
	}
	filter.Limit, filter.Offset = pageWindow(page, limit)
	users, total, err := s.store.ListUsers(ctx, filter)
	if err != nil {
		return nil, 0, internal("list users", err)
	}
	return users, total, nil
}

// GetUser is the admin view of one account with its activity counters.
func (s *UserService) GetUser(ctx context.Context, actor Actor, userID uint) (*Profile, error) {
	if err := Authorize(actor, PermManageUsers, Resource{}); err != nil {
		return nil, err
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, internal("load user", err)
	}
	stats, err := s.store.UserStatistics(ctx, userID)
	if err != nil {
		return nil, internal("load user statistics", err)
	}
	return &Profile{User: *user, Statistics: *stats}, nil
}

// ChangeRole reassigns a user's role. An admin cannot demote themself.
func (s *UserService) ChangeRole(ctx context.Context, actor Actor, userID uint, rawRole string) (*models.User, error) {
	if err := Authorize(actor, PermManageUsers, Resource{}); err != nil {
		return nil, err
	}
	role, ok := models.ParseRole(rawRole)
	if !ok {
		return nil, invalid("role", "role must be contributor, content_auditor, technical_auditor or admin")
	}
	if userID == actor.ID && role != models.RoleAdmin {
		return nil, forbidden("administrators cannot demote themselves")
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, internal("load user", err)
	}
	if err := s.store.UpdateUser(ctx, userID, map[string]interface{}{
		"role":       role,
		"updated_at": s.now(),
	}); err != nil {
		return nil, internal("update role", err)
	}
	s.logger.Info().Uint("user_id", userID).Uint("actor_id", actor.ID).Str("role", string(role)).Msg("role changed")
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, internal("load user", err)
	}
	return user, nil
}

// Delete soft-deletes an account. An admin cannot delete themself.
func (s *UserService) Delete(ctx context.Context, actor Actor, userID uint) error {
	if err := Authorize(actor, PermManageUsers, Resource{}); err != nil {
		return err
	}
	if userID == actor.ID {
		return forbidden("administrators cannot delete their own account")
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return internal("load user", err)
	}
	if err := s.store.UpdateUser(ctx, userID, map[string]interface{}{
		"status":     models.UserStatusDeleted,
		"updated_at": s.now(),
	}); err != nil {
		return internal("delete user", err)
	}
	s.logger.Info().Uint("user_id", userID).Uint("actor_id", actor.ID).Msg("user deleted")
	return nil
}
