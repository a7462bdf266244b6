package defs

import "github.com/bwmarrin/discordgo"

var (
	manageServer  int64 = discordgo.PermissionManageServer
	administrator int64 = discordgo.PermissionAdministrator
)

var SetupApplication = &discordgo.ApplicationCommand{
	Name:                     "setup_application",
	Description:              "Post the allowlist application panel in this channel",
	DefaultMemberPermissions: &manageServer,
}

var SetupCooldownChannel = &discordgo.ApplicationCommand{
	Name:                     "setup_cooldown_channel",
	Description:              "Post the cooldown exemption instructions in this channel",
	DefaultMemberPermissions: &administrator,
}

var CooldownExempt = &discordgo.ApplicationCommand{
	Name:        "cooldown_exempt",
	Description: "Grant or revoke a user's application cooldown exemption",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "user",
			Description: "The user to update",
			Required:    true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "action",
			Description: "Whether to add or remove the exemption",
			Required:    true,
			Choices: []*discordgo.ApplicationCommandOptionChoice{
				{Name: "add", Value: "add"},
				{Name: "grant", Value: "grant"},
				{Name: "remove", Value: "remove"},
				{Name: "revoke", Value: "revoke"},
			},
		},
	},
}

var CooldownExemptList = &discordgo.ApplicationCommand{
	Name:        "cooldown_exempt_list",
	Description: "List users exempt from the application cooldown",
}

var CooldownCheck = &discordgo.ApplicationCommand{
	Name:                     "cooldown_check",
	Description:              "Show a user's application status and remaining cooldown",
	DefaultMemberPermissions: &manageServer,
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "user",
			Description: "The user to check",
			Required:    true,
		},
	},
}

var BotInfo = &discordgo.ApplicationCommand{
	Name:                     "botinfo",
	Description:              "Display bot and system status information",
	DefaultMemberPermissions: &administrator,
}
