package model

import "time"

// Config holds the bot configuration loaded at startup.
type Config struct {
	BotToken                 string
	LogLevel                 string
	DisableCommandUnregister bool

	ApplicationChannelID        string
	ModReviewChannelID          string
	LogChannelID                string
	CooldownManagementChannelID string
	AllowlistedRoleID           string
	ModeratorRoleIDs            []string

	DatabaseURL string

	Cooldown          time.Duration
	CooldownBypassIDs []string
	MinAge            int

	Banners Banners

	PendingReminderSchedule string
	PendingReminderAfter    time.Duration

	MetricsAddr string
}

// Banners holds the optional image URLs attached to workflow embeds.
type Banners struct {
	Application string
	Approved    string
	Declined    string
}
