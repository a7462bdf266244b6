package utils

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
)

type LogLevel string

const (
	Info  LogLevel = "INFO"
	Warn  LogLevel = "WARN"
	Error LogLevel = "ERROR"
)

func getColor(level LogLevel) int {
	switch level {
	case Info:
		return ColorGreen
	case Warn:
		return ColorOrange
	case Error:
		return ColorRed
	default:
		return ColorBlue
	}
}

// LogEmbed builds a leveled embed for the logs channel.
func LogEmbed(level LogLevel, title, description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       getColor(level),
		Timestamp:   time.Now().Format(time.RFC3339),
	}
}

// SendLogEmbed posts an embed to the logs channel. An empty channelID disables channel logging.
func SendLogEmbed(s *discordgo.Session, channelID string, embed *discordgo.MessageEmbed) error {
	if channelID == "" {
		return nil
	}
	if _, err := s.ChannelMessageSendEmbed(channelID, embed); err != nil {
		return fmt.Errorf("failed to send log embed to channel %s: %w", channelID, err)
	}
	return nil
}

func sendLog(s *discordgo.Session, channelID string, level LogLevel, module, operation, extraInfo string) error {
	embed := LogEmbed(level, string(level)+" Log", "")
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Module", Value: module},
		{Name: "Operation", Value: operation},
		{Name: "Details", Value: extraInfo},
	}
	return SendLogEmbed(s, channelID, embed)
}

func LogInfo(s *discordgo.Session, channelID, module, operation, extraInfo string) error {
	return sendLog(s, channelID, Info, module, operation, extraInfo)
}

func LogWarn(s *discordgo.Session, channelID, module, operation, extraInfo string) error {
	return sendLog(s, channelID, Warn, module, operation, extraInfo)
}

func LogError(s *discordgo.Session, channelID, module, operation, extraInfo string) error {
	return sendLog(s, channelID, Error, module, operation, extraInfo)
}
