package commands

import (
	"allowlist-bot/commands/defs"

	"github.com/bwmarrin/discordgo"
)

// GenerateCommands returns every slash command the bot registers.
func GenerateCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		defs.SetupApplication,
		defs.SetupCooldownChannel,
		defs.CooldownExempt,
		defs.CooldownExemptList,
		defs.CooldownCheck,
		defs.BotInfo,
	}
}
