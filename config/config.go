package config

import (
	"allowlist-bot/model"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

var requiredKeys = []string{
	"DISCORD_TOKEN",
	"APPLICATION_CHANNEL_ID",
	"MOD_REVIEW_CHANNEL_ID",
	"ALLOWLISTED_ROLE_ID",
}

// Load loads the configuration from .env, config.yaml and environment variables.
// Environment variables win over config.yaml.
func Load() (*model.Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: .env file not found, relying on environment variables")
	}

	v := viper.New()
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	}

	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*model.Config, error) {
	setDefaults(v)

	var missing []string
	for _, key := range requiredKeys {
		if strings.TrimSpace(v.GetString(key)) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	cooldown, err := intSetting(v, "APPLICATION_COOLDOWN")
	if err != nil {
		return nil, err
	}
	if cooldown < 0 {
		return nil, fmt.Errorf("APPLICATION_COOLDOWN must not be negative, got %d", cooldown)
	}
	minAge, err := intSetting(v, "MIN_AGE")
	if err != nil {
		return nil, err
	}
	if minAge <= 0 {
		return nil, fmt.Errorf("MIN_AGE must be positive, got %d", minAge)
	}

	reminderAfter, err := time.ParseDuration(v.GetString("PENDING_REMINDER_AFTER"))
	if err != nil {
		return nil, fmt.Errorf("invalid PENDING_REMINDER_AFTER: %w", err)
	}

	logChannelID := v.GetString("LOGS_CHANNEL_ID")
	if logChannelID == "" {
		log.Println("Warning: LOGS_CHANNEL_ID not set, channel logging will be disabled")
	}

	return &model.Config{
		BotToken:                 v.GetString("DISCORD_TOKEN"),
		LogLevel:                 v.GetString("LOG_LEVEL"),
		DisableCommandUnregister: v.GetBool("DISABLE_COMMAND_UNREGISTER"),

		ApplicationChannelID:        v.GetString("APPLICATION_CHANNEL_ID"),
		ModReviewChannelID:          v.GetString("MOD_REVIEW_CHANNEL_ID"),
		LogChannelID:                logChannelID,
		CooldownManagementChannelID: v.GetString("COOLDOWN_MANAGEMENT_CHANNEL_ID"),
		AllowlistedRoleID:           v.GetString("ALLOWLISTED_ROLE_ID"),
		ModeratorRoleIDs:            splitIDs(v.GetString("MODERATOR_ROLE_IDS")),

		DatabaseURL: v.GetString("DATABASE_URL"),

		Cooldown:          time.Duration(cooldown) * time.Second,
		CooldownBypassIDs: splitIDs(v.GetString("COOLDOWN_BYPASS_IDS")),
		MinAge:            minAge,

		Banners: model.Banners{
			Application: v.GetString("APPLICATION_BANNER_URL"),
			Approved:    v.GetString("APPROVED_BANNER_URL"),
			Declined:    v.GetString("DECLINED_BANNER_URL"),
		},

		PendingReminderSchedule: v.GetString("PENDING_REMINDER_SCHEDULE"),
		PendingReminderAfter:    reminderAfter,

		MetricsAddr: v.GetString("METRICS_ADDR"),
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_URL", "data/allowlist.db")
	v.SetDefault("APPLICATION_COOLDOWN", 86400)
	v.SetDefault("MIN_AGE", 18)
	v.SetDefault("PENDING_REMINDER_SCHEDULE", "@every 6h")
	v.SetDefault("PENDING_REMINDER_AFTER", "24h")
	v.SetDefault("DISABLE_COMMAND_UNREGISTER", false)
}

// intSetting reads an integer key. Unlike viper's GetInt it rejects values
// such as "24h" instead of reading them as 0.
func intSetting(v *viper.Viper, key string) (int, error) {
	n, err := cast.ToIntE(v.Get(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: expected a whole number", key, v.GetString(key))
	}
	return n, nil
}

// splitIDs parses a comma separated ID list, dropping blanks.
func splitIDs(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
