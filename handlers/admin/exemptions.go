package admin

import (
	"allowlist-bot/bot"
	"allowlist-bot/handlers/events"
	"allowlist-bot/model"
	"allowlist-bot/utils"
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// canManageExemptions allows administrators anywhere and everyone else only in
// the cooldown management channel.
func canManageExemptions(cfg *model.Config, actor events.Actor) bool {
	if utils.IsAdmin(actor.Member) {
		return true
	}
	return cfg.CooldownManagementChannelID != "" && actor.ChannelID == cfg.CooldownManagementChannelID
}

func denyExemptionAccess(s *discordgo.Session, i *discordgo.InteractionCreate, cfg *model.Config) {
	if cfg.CooldownManagementChannelID == "" {
		utils.SendErrorResponse(s, i, "This command can only be used by administrators.")
		return
	}
	utils.SendErrorResponse(s, i, fmt.Sprintf("This command can only be used in <#%s> or by administrators.", cfg.CooldownManagementChannelID))
}

// HandleExemptionChange grants or revokes a cooldown exemption.
func HandleExemptionChange(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot, ev events.ExemptionChange) {
	cfg := b.GetConfig()
	if !canManageExemptions(cfg, ev.Actor) {
		denyExemptionAccess(s, i, cfg)
		return
	}

	changed, err := b.Tracker.SetExempt(context.Background(), ev.UserID, ev.TargetUserID, ev.Exempt)
	if err != nil {
		log.WithError(err).WithField("user_id", ev.TargetUserID).Error("Failed to update cooldown exemption")
		utils.SendErrorResponse(s, i, utils.UserErrorMessage(err, time.Now()))
		return
	}

	message := exemptionChangeMessage(ev.TargetUserID, ev.Exempt, changed)
	utils.SendEmbedResponse(s, i, &discordgo.MessageEmbed{Description: message, Color: utils.ColorBlue}, true)

	if changed {
		if err := utils.LogInfo(s, cfg.LogChannelID, "Cooldown", "Exemption", fmt.Sprintf("<@%s>: %s", ev.UserID, message)); err != nil {
			log.WithError(err).Warn("Failed to send exemption log")
		}
	}
}

// HandleExemptionList lists static and stored exemptions.
func HandleExemptionList(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot, ev events.ExemptionList) {
	cfg := b.GetConfig()
	if !canManageExemptions(cfg, ev.Actor) && !utils.IsModerator(ev.Member, cfg.ModeratorRoleIDs) {
		denyExemptionAccess(s, i, cfg)
		return
	}

	stored, err := b.Tracker.ListExemptions(context.Background())
	if err != nil {
		log.WithError(err).Error("Failed to list cooldown exemptions")
		utils.SendErrorResponse(s, i, utils.UserErrorMessage(err, time.Now()))
		return
	}
	embed, components := exemptionListPage(b.Tracker.StaticExemptions(), stored, ev.Page)

	responseType := discordgo.InteractionResponseChannelMessageWithSource
	if ev.Turn {
		responseType = discordgo.InteractionResponseUpdateMessage
	}
	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: responseType,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		},
	})
	if err != nil {
		log.Printf("Error sending exemption list: %v", err)
	}
}

// HandleCooldownCheck shows a user's latest application and remaining cooldown.
func HandleCooldownCheck(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot, ev events.CooldownCheck) {
	if !utils.IsModerator(ev.Member, b.GetConfig().ModeratorRoleIDs) {
		utils.SendErrorResponse(s, i, "You do not have permission to use this command.")
		return
	}

	status, err := b.Tracker.Status(context.Background(), ev.TargetUserID)
	if err != nil {
		log.WithError(err).WithField("user_id", ev.TargetUserID).Error("Failed to load applicant status")
		utils.SendErrorResponse(s, i, utils.UserErrorMessage(err, time.Now()))
		return
	}
	utils.SendEmbedResponse(s, i, cooldownStatusEmbed(ev.TargetUserID, status, time.Now()), false)
}
