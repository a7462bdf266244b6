package admin

import (
	"allowlist-bot/allowlist"
	"allowlist-bot/handlers/events"
	"allowlist-bot/model"
	"allowlist-bot/utils"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

func cooldownChannelEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Cooldown Management",
		Description: "Use `/cooldown_exempt user add|remove` to manage cooldown exemptions.\nUse `/cooldown_exempt_list` to see who is exempt.",
		Color:       utils.ColorBlue,
	}
}

func exemptionChangeMessage(userID string, exempt, changed bool) string {
	switch {
	case exempt && changed:
		return fmt.Sprintf("<@%s> has been granted cooldown exemption.", userID)
	case exempt:
		return fmt.Sprintf("<@%s> is already exempt from the cooldown.", userID)
	case changed:
		return fmt.Sprintf("<@%s> has been removed from cooldown exemption.", userID)
	default:
		return fmt.Sprintf("<@%s> was not exempt from the cooldown.", userID)
	}
}

// exemptionsPerPage keeps one page well under the embed description limit.
const exemptionsPerPage = 20

func exemptionListPage(static []string, stored []model.Exemption, page int) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	lines := make([]string, 0, len(static)+len(stored))
	for _, id := range static {
		lines = append(lines, fmt.Sprintf("• <@%s> (configuration)", id))
	}
	for _, e := range stored {
		lines = append(lines, fmt.Sprintf("• <@%s> granted by <@%s> <t:%d:R>", e.UserID, e.GrantedBy, e.CreatedAt))
	}

	start, end, current, totalPages := utils.Paginate(len(lines), exemptionsPerPage, page)
	description := strings.Join(lines[start:end], "\n")
	if description == "" {
		description = "No users are exempt from the cooldown."
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Cooldown Exemptions (%d)", len(lines)),
		Description: description,
		Color:       utils.ColorBlue,
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Page %d/%d", current, totalPages)},
	}
	return embed, utils.CreatePaginationComponents(current, totalPages, events.ExemptListPage)
}

func cooldownStatusEmbed(userID string, status *allowlist.UserStatus, now time.Time) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "Application Status",
		Color: utils.ColorBlue,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "User", Value: fmt.Sprintf("<@%s>", userID), Inline: true},
			{Name: "Exempt", Value: fmt.Sprintf("%t", status.Exempt), Inline: true},
		},
	}

	if status.Latest == nil {
		embed.Description = "This user has never applied."
	} else {
		app := status.Latest
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{Name: "Latest Application", Value: fmt.Sprintf("#%d (%s)", app.ID, app.Status), Inline: true},
			&discordgo.MessageEmbedField{Name: "Submitted", Value: fmt.Sprintf("<t:%d:R>", app.SubmittedAt), Inline: true},
		)
		if reason := app.Reason(); reason != "" {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Reason", Value: reason})
		}
	}

	cooldown := "None"
	if status.Remaining > 0 {
		cooldown = fmt.Sprintf("Ends <t:%d:R>", now.Add(status.Remaining).Unix())
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Cooldown", Value: cooldown, Inline: true})
	return embed
}
