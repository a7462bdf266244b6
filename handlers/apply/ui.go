package apply

import (
	"allowlist-bot/handlers/events"
	"allowlist-bot/model"
	"allowlist-bot/utils"

	"github.com/bwmarrin/discordgo"
)

// PanelEmbed is the message that carries the Apply button.
func PanelEmbed(banners model.Banners) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "Allowlist Application",
		Description: "Click the button below to apply for the server allowlist.",
		Color:       utils.ColorBlue,
	}
	if banners.Application != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: banners.Application}
	}
	return embed
}

func PanelComponents() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Apply for Allowlist",
					Style:    discordgo.PrimaryButton,
					CustomID: events.ApplyButtonID,
				},
			},
		},
	}
}

// ApplicationModal returns the form fields, one text input per row.
func ApplicationModal() []discordgo.MessageComponent {
	inputs := []discordgo.TextInput{
		{CustomID: events.InputHexID, Label: "Steam Hex ID", Style: discordgo.TextInputShort, Required: true, MaxLength: 64},
		{CustomID: events.InputRealName, Label: "Real Name", Style: discordgo.TextInputShort, Required: true, MaxLength: 100},
		{CustomID: events.InputCharacterName, Label: "Character Name", Style: discordgo.TextInputShort, Required: true, MaxLength: 100},
		{CustomID: events.InputAge, Label: "Age", Style: discordgo.TextInputShort, Required: true, MaxLength: 3},
		{CustomID: events.InputBackstory, Label: "Character Story", Style: discordgo.TextInputParagraph, Required: true, MaxLength: 4000},
	}

	rows := make([]discordgo.MessageComponent, 0, len(inputs))
	for _, input := range inputs {
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{input}})
	}
	return rows
}

func submittedEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Application Submitted",
		Description: "Your application is under review by our staff team.",
		Color:       utils.ColorOrange,
	}
}

func underAgeEmbed(message string, banners model.Banners) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "Application Declined",
		Description: message,
		Color:       utils.ColorRed,
	}
	if banners.Declined != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: banners.Declined}
	}
	return embed
}
