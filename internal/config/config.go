package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port                          string        `mapstructure:"PORT"`
	DatabasePath                  string        `mapstructure:"DATABASE_PATH"`
	LogLevel                      string        `mapstructure:"LOG_LEVEL"`
	DiscordClientID               string        `mapstructure:"DISCORD_CLIENT_ID"`
	DiscordClientSecret           string        `mapstructure:"DISCORD_CLIENT_SECRET"`
	DiscordRedirectURL            string        `mapstructure:"DISCORD_REDIRECT_URL"`
	DiscordGuildID                string        `mapstructure:"DISCORD_GUILD_ID"`
	DiscordBotToken               string        `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordNotificationsChannelID string        `mapstructure:"DISCORD_NOTIFICATIONS_CHANNEL_ID"`
	StaffRole                     string        `mapstructure:"STAFF_ROLE"`
	JWTSecret                     string        `mapstructure:"JWT_SECRET"`
	FrontendURL                   string        `mapstructure:"FRONTEND_URL"`
	EnableCORS                    bool          `mapstructure:"ENABLE_CORS"`
	CORSOrigins                   []string      `mapstructure:"CORS_ORIGINS"`
	ChildCodePrefix               string        `mapstructure:"CHILD_CODE_PREFIX"`
	DisplayRefreshInterval        time.Duration `mapstructure:"DISPLAY_REFRESH_INTERVAL"`
	ValidationDebounce            time.Duration `mapstructure:"VALIDATION_DEBOUNCE"`
}

func LoadConfig() *Config {
	v := viper.New()
	setDefaults(v)

	v.BindEnv("DISCORD_CLIENT_ID")
	v.BindEnv("DISCORD_CLIENT_SECRET")
	v.BindEnv("DISCORD_GUILD_ID")
	v.BindEnv("DISCORD_BOT_TOKEN")
	v.BindEnv("DISCORD_NOTIFICATIONS_CHANNEL_ID")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("FRONTEND_URL")
	v.BindEnv("ENABLE_CORS")

	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	return &config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_PATH", "churchsuite.db")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DISCORD_REDIRECT_URL", "http://127.0.0.1:8080/auth/discord/callback")
	v.SetDefault("STAFF_ROLE", "staff")
	v.SetDefault("FRONTEND_URL", "http://127.0.0.1:5173")
	v.SetDefault("CORS_ORIGINS", []string{"http://127.0.0.1:5173"})
	v.SetDefault("CHILD_CODE_PREFIX", "CHILD_")
	v.SetDefault("DISPLAY_REFRESH_INTERVAL", "30s")
	v.SetDefault("VALIDATION_DEBOUNCE", "500ms")
}
