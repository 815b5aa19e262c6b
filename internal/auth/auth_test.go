package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/KakraGeek/churchsuitegh/internal/config"
	"github.com/KakraGeek/churchsuitegh/internal/database"
	"github.com/KakraGeek/churchsuitegh/internal/models"
	"github.com/bwmarrin/discordgo"
	"github.com/danielgtaylor/huma/v2"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	return db
}

func statusOf(err error) int {
	var se huma.StatusError
	if errors.As(err, &se) {
		return se.GetStatus()
	}
	return 0
}

func TestHandleMe(t *testing.T) {
	db := setupDB(t)

	user := models.User{
		DiscordID: "123456",
		Username:  "usher",
		Email:     "usher@example.com",
		Avatar:    "avatar_url",
		Staff:     true,
	}
	db.Create(&user)

	cfg := &config.Config{JWTSecret: "test-secret"}
	handler := NewAuthHandler(cfg, db, nil)

	t.Run("Authenticated", func(t *testing.T) {
		token, _ := handler.GenerateToken(user.ID)
		input := &AuthInput{
			Cookie: "theme=dark; auth_token=" + token,
		}
		resp, err := handler.HandleMe(context.Background(), input)
		if err != nil {
			t.Fatalf("HandleMe returned error: %v", err)
		}

		if resp.Body.Username != user.Username {
			t.Errorf("expected username %s, got %s", user.Username, resp.Body.Username)
		}
		if !resp.Body.Staff {
			t.Error("expected staff flag")
		}
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		_, err := handler.HandleMe(context.Background(), &AuthInput{})
		if statusOf(err) != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %v", err)
		}
	})

	t.Run("ForgedToken", func(t *testing.T) {
		other := NewAuthHandler(&config.Config{JWTSecret: "other-secret"}, db, nil)
		token, _ := other.GenerateToken(user.ID)
		_, err := handler.HandleMe(context.Background(), &AuthInput{Cookie: "auth_token=" + token})
		if statusOf(err) != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %v", err)
		}
	})
}

func TestAuthorize_APIKey(t *testing.T) {
	db := setupDB(t)
	user := models.User{DiscordID: "42", Username: "kiosk-owner"}
	db.Create(&user)

	past := time.Now().Add(-time.Hour)
	db.Create(&models.APIKey{UserID: user.ID, Key: "live-key", Name: "Lobby kiosk"})
	db.Create(&models.APIKey{UserID: user.ID, Key: "old-key", Name: "Retired kiosk", ExpiresAt: &past})

	handler := NewAuthHandler(&config.Config{JWTSecret: "test-secret"}, db, nil)

	userID, err := handler.Authorize(context.Background(), AuthInput{APIKey: "live-key"})
	if err != nil {
		t.Fatalf("Authorize returned error: %v", err)
	}
	if userID != user.ID {
		t.Errorf("expected user %d, got %d", user.ID, userID)
	}

	var key models.APIKey
	db.Where("key = ?", "live-key").First(&key)
	if key.LastUsedAt == nil {
		t.Error("expected last_used_at to be stamped")
	}

	if _, err := handler.Authorize(context.Background(), AuthInput{APIKey: "old-key"}); statusOf(err) != http.StatusUnauthorized {
		t.Errorf("expected 401 for expired key, got %v", err)
	}
	if _, err := handler.Authorize(context.Background(), AuthInput{APIKey: "nope"}); statusOf(err) != http.StatusUnauthorized {
		t.Errorf("expected 401 for unknown key, got %v", err)
	}
}

func TestAuthorize_ContextUser(t *testing.T) {
	handler := NewAuthHandler(&config.Config{JWTSecret: "test-secret"}, nil, nil)
	ctx := context.WithValue(context.Background(), UserIDKey, uint(7))

	userID, err := handler.Authorize(ctx, AuthInput{})
	if err != nil || userID != 7 {
		t.Fatalf("expected user 7, got %d, %v", userID, err)
	}
}

type fakeGuild struct {
	memberRoles []string
	roles       []*discordgo.Role
	err         error
}

func (f fakeGuild) GuildMember(guildID, userID string, _ ...discordgo.RequestOption) (*discordgo.Member, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &discordgo.Member{Roles: f.memberRoles}, nil
}

func (f fakeGuild) GuildRoles(guildID string, _ ...discordgo.RequestOption) ([]*discordgo.Role, error) {
	return f.roles, nil
}

func TestRequireStaff(t *testing.T) {
	db := setupDB(t)
	flagged := models.User{DiscordID: "1", Staff: true}
	volunteer := models.User{DiscordID: "2"}
	db.Create(&flagged)
	db.Create(&volunteer)

	cfg := &config.Config{JWTSecret: "test-secret", DiscordGuildID: "guild", StaffRole: "staff"}
	roles := []*discordgo.Role{{ID: "r1", Name: "member"}, {ID: "r2", Name: "staff"}}

	tests := []struct {
		name   string
		user   uint
		guild  RoleChecker
		status int
	}{
		{"flagged staff", flagged.ID, nil, 0},
		{"discord staff role", volunteer.ID, fakeGuild{memberRoles: []string{"r2"}, roles: roles}, 0},
		{"no staff role", volunteer.ID, fakeGuild{memberRoles: []string{"r1"}, roles: roles}, http.StatusForbidden},
		{"no discord session", volunteer.ID, nil, http.StatusForbidden},
		{"discord down", volunteer.ID, fakeGuild{err: errors.New("503")}, http.StatusInternalServerError},
		{"unknown user", 999, nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewAuthHandler(cfg, db, tt.guild)
			err := handler.RequireStaff(context.Background(), tt.user)
			if got := statusOf(err); got != tt.status {
				t.Errorf("expected status %d, got %d (%v)", tt.status, got, err)
			}
		})
	}
}
