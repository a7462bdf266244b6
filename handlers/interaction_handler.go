package handlers

import (
	"allowlist-bot/bot"
	"allowlist-bot/handlers/admin"
	"allowlist-bot/handlers/apply"
	"allowlist-bot/handlers/events"
	"allowlist-bot/handlers/review"
	"allowlist-bot/metrics"
	"allowlist-bot/utils"
	"errors"
	"runtime/debug"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

func handleInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Errorf("Recovered from interaction handler panic\n%s", debug.Stack())
		}
	}()

	ev, err := events.Parse(i)
	if errors.Is(err, events.ErrUnhandled) {
		return
	}
	if err != nil {
		log.WithError(err).Warn("Rejected malformed interaction")
		utils.SendErrorResponse(s, i, err.Error())
		return
	}
	metrics.RecordInteraction(ev.Kind())

	switch ev := ev.(type) {
	case events.ApplyRequest:
		apply.HandleApplyRequest(s, i, b, ev)
	case events.Submission:
		apply.HandleSubmission(s, i, b, ev)
	case events.Approval:
		review.HandleApproval(s, i, b, ev)
	case events.DeclineRequest:
		review.HandleDeclineRequest(s, i, b, ev)
	case events.Decline:
		review.HandleDecline(s, i, b, ev)
	case events.SetupApplication:
		admin.HandleSetupApplication(s, i, b, ev)
	case events.SetupCooldownChannel:
		admin.HandleSetupCooldownChannel(s, i, b, ev)
	case events.ExemptionChange:
		admin.HandleExemptionChange(s, i, b, ev)
	case events.ExemptionList:
		admin.HandleExemptionList(s, i, b, ev)
	case events.CooldownCheck:
		admin.HandleCooldownCheck(s, i, b, ev)
	case events.BotInfo:
		admin.HandleBotInfo(s, i, b, ev)
	default:
		log.Printf("No handler for interaction event %s", ev.Kind())
	}
}
