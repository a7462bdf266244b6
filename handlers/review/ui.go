package review

import (
	"allowlist-bot/handlers/events"
	"allowlist-bot/model"
	"allowlist-bot/utils"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

const (
	// embedFieldLimit is Discord's maximum embed field value length.
	embedFieldLimit = 1024
	storyPreviewLen = 1000

	approvedPrefix = "APPROVED - "
	declinedPrefix = "DECLINED - "
)

// ReviewEmbed renders an application for the review channel. Stories that do not
// fit an embed field are cut and announced as attached.
func ReviewEmbed(app *model.Application) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:     "Allowlist Application - " + app.UserName,
		Color:     utils.ColorBlue,
		Timestamp: app.SubmittedTime().UTC().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Applicant", Value: fmt.Sprintf("<@%s>", app.UserID)},
			{Name: "Steam Hex ID", Value: app.HexID},
			{Name: "Real Name", Value: app.RealName, Inline: true},
			{Name: "Character Name", Value: app.CharacterName, Inline: true},
			{Name: "Age", Value: fmt.Sprintf("%d", app.Age), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Application ID: %d | User ID: %s", app.ID, app.UserID),
		},
	}

	story := []rune(app.Backstory)
	if len(story) > embedFieldLimit {
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{Name: "Character Story", Value: string(story[:storyPreviewLen]) + "..."},
			&discordgo.MessageEmbedField{Name: "Note", Value: "Full story attached as a file below."},
		)
	} else {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Character Story", Value: app.Backstory})
	}
	return embed
}

// StoryAttachment returns the full backstory as a text file, or nil when it fits the embed.
func StoryAttachment(app *model.Application) *discordgo.File {
	if len([]rune(app.Backstory)) <= embedFieldLimit {
		return nil
	}
	return &discordgo.File{
		Name:        fmt.Sprintf("character_story_%s.txt", app.UserID),
		ContentType: "text/plain",
		Reader:      strings.NewReader(app.Backstory),
	}
}

// ReviewComponents returns the Approve and Decline buttons for an application.
func ReviewComponents(applicationID int64) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Approve",
					Style:    discordgo.SuccessButton,
					CustomID: fmt.Sprintf("%s%d", events.ReviewApprovePrefix, applicationID),
				},
				discordgo.Button{
					Label:    "Decline",
					Style:    discordgo.DangerButton,
					CustomID: fmt.Sprintf("%s%d", events.ReviewDeclinePrefix, applicationID),
				},
			},
		},
	}
}

// DeclineModal returns the components of the decline reason modal.
func DeclineModal() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.TextInput{
					CustomID:  events.InputDeclineReason,
					Label:     "Reason for Decline",
					Style:     discordgo.TextInputParagraph,
					Required:  true,
					MaxLength: embedFieldLimit,
				},
			},
		},
	}
}

// MarkDecided returns a copy of the review embed restyled for its final status.
func MarkDecided(original *discordgo.MessageEmbed, app *model.Application) *discordgo.MessageEmbed {
	embed := *original
	embed.Fields = append([]*discordgo.MessageEmbedField(nil), original.Fields...)

	title := strings.TrimPrefix(strings.TrimPrefix(embed.Title, approvedPrefix), declinedPrefix)
	switch app.Status {
	case model.StatusApproved:
		embed.Title = approvedPrefix + title
		embed.Color = utils.ColorGreen
	case model.StatusDeclined:
		embed.Title = declinedPrefix + title
		embed.Color = utils.ColorRed
		if reason := app.Reason(); reason != "" {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Reason", Value: reason})
		}
	}
	if app.ModeratorID != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Moderator", Value: fmt.Sprintf("<@%s>", *app.ModeratorID)})
	}
	return &embed
}

// DecisionLogEmbed renders a decision for the logs channel.
func DecisionLogEmbed(app *model.Application, moderatorName string, banners model.Banners, roleErr error) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{Timestamp: time.Now().Format(time.RFC3339)}
	switch app.Status {
	case model.StatusApproved:
		embed.Title = "Application Approved"
		embed.Description = fmt.Sprintf("<@%s> has been approved for the allowlist.", app.UserID)
		embed.Color = utils.ColorGreen
		embed.Footer = &discordgo.MessageEmbedFooter{Text: "Approved by " + moderatorName}
		setImage(embed, banners.Approved)
		if roleErr != nil {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Warning", Value: "Failed to assign allowlisted role"})
		}
	default:
		embed.Title = "Application Declined"
		embed.Description = fmt.Sprintf("<@%s> has been declined for the allowlist.", app.UserID)
		embed.Color = utils.ColorRed
		embed.Footer = &discordgo.MessageEmbedFooter{Text: "Declined by " + moderatorName}
		setImage(embed, banners.Declined)
		if reason := app.Reason(); reason != "" {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Reason", Value: reason})
		}
	}
	return embed
}

// AutoDeclineLogEmbed records a form rejected before it reached moderators.
func AutoDeclineLogEmbed(userID, reason string, banners model.Banners) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "Application Declined",
		Description: fmt.Sprintf("<@%s> has been declined for the allowlist.", userID),
		Color:       utils.ColorRed,
		Timestamp:   time.Now().Format(time.RFC3339),
		Fields:      []*discordgo.MessageEmbedField{{Name: "Reason", Value: reason}},
		Footer:      &discordgo.MessageEmbedFooter{Text: "Declined automatically"},
	}
	setImage(embed, banners.Declined)
	return embed
}

// UserDecisionEmbed is the direct message sent to the applicant.
func UserDecisionEmbed(app *model.Application, roleGranted bool, banners model.Banners) *discordgo.MessageEmbed {
	if app.Status == model.StatusApproved {
		description := "Your allowlist application has been approved!"
		if roleGranted {
			description += "\n\nYou have been granted the allowlisted role!"
		}
		embed := &discordgo.MessageEmbed{Title: "Application Approved", Description: description, Color: utils.ColorGreen}
		setImage(embed, banners.Approved)
		return embed
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Application Declined",
		Description: "Your allowlist application has been declined.",
		Color:       utils.ColorRed,
	}
	if reason := app.Reason(); reason != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Reason", Value: reason})
	}
	setImage(embed, banners.Declined)
	return embed
}

func setImage(embed *discordgo.MessageEmbed, url string) {
	if url != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: url}
	}
}
