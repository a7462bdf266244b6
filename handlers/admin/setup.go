package admin

import (
	"allowlist-bot/bot"
	"allowlist-bot/handlers/apply"
	"allowlist-bot/handlers/events"
	"allowlist-bot/utils"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// HandleSetupApplication posts the Apply panel into the application channel.
func HandleSetupApplication(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot, ev events.SetupApplication) {
	cfg := b.GetConfig()
	if !utils.CanManageServer(ev.Member) {
		utils.SendErrorResponse(s, i, "You do not have permission to use this command.")
		return
	}
	if ev.ChannelID != cfg.ApplicationChannelID {
		utils.SendErrorResponse(s, i, "Please run this command in the application channel.")
		return
	}

	_, err := s.ChannelMessageSendComplex(ev.ChannelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{apply.PanelEmbed(cfg.Banners)},
		Components: apply.PanelComponents(),
	})
	if err != nil {
		log.Printf("Error posting application panel: %v", err)
		utils.SendErrorResponse(s, i, "Failed to post the application panel. Check my channel permissions.")
		return
	}
	utils.SendSimpleResponse(s, i, "Application system has been set up!")
}

// HandleSetupCooldownChannel posts the exemption usage notice.
func HandleSetupCooldownChannel(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot, ev events.SetupCooldownChannel) {
	if !utils.IsAdmin(ev.Member) {
		utils.SendErrorResponse(s, i, "You do not have permission to use this command.")
		return
	}

	if _, err := s.ChannelMessageSendEmbed(ev.ChannelID, cooldownChannelEmbed()); err != nil {
		log.Printf("Error posting cooldown management notice: %v", err)
		utils.SendErrorResponse(s, i, "Failed to post the cooldown management notice.")
		return
	}
	utils.SendSimpleResponse(s, i, "Cooldown management channel has been set up!")
}
