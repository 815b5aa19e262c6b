package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/KakraGeek/churchsuitegh/internal/models"
	"github.com/danielgtaylor/huma/v2"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// AuthInput is embedded in every protected operation's input.
type AuthInput struct {
	Cookie string `header:"Cookie"`
	APIKey string `header:"X-API-KEY"`
}

// Authorize resolves the caller from, in order, a user already placed in ctx
// by AuthMiddleware, a kiosk API key, and the session cookie.
func (h *AuthHandler) Authorize(ctx context.Context, in AuthInput) (uint, error) {
	if userID, ok := ctx.Value(UserIDKey).(uint); ok && userID != 0 {
		return userID, nil
	}

	if in.APIKey != "" {
		userID, err := h.userFromAPIKey(in.APIKey)
		switch {
		case err == nil:
			return userID, nil
		case errors.Is(err, errExpiredAPIKey):
			return 0, huma.Error401Unauthorized("API key expired")
		case !errors.Is(err, errUnknownAPIKey):
			slog.Error("api key lookup failed", "error", err)
			return 0, huma.Error500InternalServerError("Failed to check API key")
		}
	}

	if in.Cookie == "" {
		return 0, huma.Error401Unauthorized("Not signed in")
	}
	cookies, err := http.ParseCookie(in.Cookie)
	if err != nil {
		return 0, huma.Error400BadRequest("Malformed cookie header")
	}
	for _, c := range cookies {
		if c.Name != CookieName {
			continue
		}
		userID, _, err := h.parseToken(c.Value)
		if err != nil {
			return 0, huma.Error401Unauthorized("Invalid session")
		}
		return userID, nil
	}
	return 0, huma.Error401Unauthorized("Not signed in")
}

// RequireStaff allows users flagged as staff or holding the staff role in
// the church's Discord server.
func (h *AuthHandler) RequireStaff(ctx context.Context, userID uint) error {
	var user models.User
	if err := h.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return huma.Error401Unauthorized("User not found")
	}
	if user.Staff {
		return nil
	}
	if h.cfg.StaffRole == "" {
		return huma.Error403Forbidden("Staff access required")
	}

	ok, err := h.CheckRole(user.DiscordID, h.cfg.StaffRole)
	if err != nil {
		slog.Error("staff role check failed", "user_id", userID, "error", err)
		return huma.Error500InternalServerError("Failed to check role")
	}
	if !ok {
		return huma.Error403Forbidden("Staff access required")
	}
	return nil
}

type MeOutput struct {
	Body struct {
		ID       uint   `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Avatar   string `json:"avatar"`
		Staff    bool   `json:"staff"`
	}
}

func (h *AuthHandler) HandleMe(ctx context.Context, input *AuthInput) (*MeOutput, error) {
	userID, err := h.Authorize(ctx, *input)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := h.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, huma.Error404NotFound("User not found")
	}

	out := &MeOutput{}
	out.Body.ID = user.ID
	out.Body.Username = user.Username
	out.Body.Email = user.Email
	out.Body.Avatar = user.Avatar
	out.Body.Staff = h.RequireStaff(ctx, userID) == nil
	return out, nil
}
