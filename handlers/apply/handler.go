package apply

import (
	"allowlist-bot/allowlist"
	"allowlist-bot/bot"
	"allowlist-bot/handlers/events"
	"allowlist-bot/handlers/review"
	"allowlist-bot/utils"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// HandleApplyRequest checks eligibility before the form opens so users do not
// type a whole backstory only to be turned away.
func HandleApplyRequest(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot, ev events.ApplyRequest) {
	if err := b.Tracker.CheckEligibility(context.Background(), ev.UserID); err != nil {
		if allowlist.CodeOf(err) == allowlist.CodeStoreUnavailable {
			log.WithError(err).WithField("user_id", ev.UserID).Error("Failed to check eligibility")
		}
		utils.SendErrorResponse(s, i, utils.UserErrorMessage(err, time.Now()))
		return
	}

	if err := utils.SendModal(s, i, events.ApplyModalID, "Allowlist Application", ApplicationModal()); err != nil {
		log.Printf("Error opening application modal for user %s: %v", ev.UserID, err)
	}
}

// HandleSubmission stores a completed form and forwards it to the review channel.
func HandleSubmission(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot, ev events.Submission) {
	cfg := b.GetConfig()
	ctx := context.Background()

	app, err := b.Tracker.Submit(ctx, ev.UserID, ev.Fields)
	if err != nil {
		var appErr *allowlist.Error
		if errors.As(err, &appErr) && appErr.Code == allowlist.CodeValidation && appErr.Field == allowlist.FieldAgeAttestation {
			utils.SendEmbedResponse(s, i, underAgeEmbed(appErr.Message, cfg.Banners), false)
			reason := fmt.Sprintf("Automatically declined for being under %d", cfg.MinAge)
			if err := utils.SendLogEmbed(s, cfg.LogChannelID, review.AutoDeclineLogEmbed(ev.UserID, reason, cfg.Banners)); err != nil {
				log.WithError(err).Warn("Failed to send auto-decline log")
			}
			return
		}
		if allowlist.CodeOf(err) == allowlist.CodeStoreUnavailable {
			log.WithError(err).WithField("user_id", ev.UserID).Error("Failed to store application")
		}
		utils.SendErrorResponse(s, i, utils.UserErrorMessage(err, time.Now()))
		return
	}

	utils.SendEmbedResponse(s, i, submittedEmbed(), false)

	if err := review.PostForReview(ctx, s, b, app); err != nil {
		log.WithError(err).WithField("application_id", app.ID).Error("Failed to post application for review")
		if logErr := utils.LogError(s, cfg.LogChannelID, "Applications", "Post for review", fmt.Sprintf("Application #%d by <@%s>: %v\nIt will be posted again automatically.", app.ID, app.UserID, err)); logErr != nil {
			log.WithError(logErr).Warn("Failed to send error log")
		}
	}
}
