package review

import (
	"allowlist-bot/allowlist"
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

// PostForReview sends a new application to the review channel and remembers the message.
func PostForReview(ctx context.Context, s *discordgo.Session, b *bot.Bot, app *model.Application) error {
	cfg := b.GetConfig()
	msg := &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{ReviewEmbed(app)},
		Components: ReviewComponents(app.ID),
	}
	if file := StoryAttachment(app); file != nil {
		msg.Files = []*discordgo.File{file}
	}

	sent, err := s.ChannelMessageSendComplex(cfg.ModReviewChannelID, msg)
	if err != nil {
		return fmt.Errorf("failed to post application %d for review: %w", app.ID, err)
	}
	if err := b.Tracker.AttachReviewMessage(ctx, app.ID, sent.ID); err != nil {
		return err
	}
	app.ReviewMessageID = &sent.ID
	return nil
}

// HandleApproval approves an application from its review message.
func HandleApproval(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot, ev events.Approval) {
	if !utils.IsModerator(ev.Member, b.GetConfig().ModeratorRoleIDs) {
		utils.SendErrorResponse(s, i, "You do not have permission to review applications.")
		return
	}
	if err := utils.DeferResponse(s, i, true); err != nil {
		log.Printf("Error deferring approval response: %v", err)
		return
	}

	decision, err := b.Tracker.Decide(context.Background(), ev.ApplicationID, ev.UserID, model.StatusApproved, "")
	if err != nil {
		logDecisionError(err, ev.ApplicationID, ev.UserID)
		utils.SendFollowUpError(s, i.Interaction, utils.UserErrorMessage(err, time.Now()))
		return
	}

	finishDecision(s, i, b, ev.Actor, decision)

	if decision.RoleGranted {
		utils.SendFollowUp(s, i.Interaction, "Application approved. Role assigned successfully.")
	} else {
		utils.SendFollowUp(s, i.Interaction, "Application approved. Failed to assign role.")
	}
}

// HandleDeclineRequest opens the reason modal for a pending application.
func HandleDeclineRequest(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot, ev events.DeclineRequest) {
	if !utils.IsModerator(ev.Member, b.GetConfig().ModeratorRoleIDs) {
		utils.SendErrorResponse(s, i, "You do not have permission to review applications.")
		return
	}

	app, err := b.Tracker.Get(context.Background(), ev.ApplicationID)
	if err != nil {
		utils.SendErrorResponse(s, i, utils.UserErrorMessage(err, time.Now()))
		return
	}
	if app.Status != model.StatusPending {
		utils.SendErrorResponse(s, i, fmt.Sprintf("This application has already been %s.", app.Status))
		return
	}

	customID := fmt.Sprintf("%s%d", events.DeclineModalPrefix, ev.ApplicationID)
	if err := utils.SendModal(s, i, customID, "Decline Reason", DeclineModal()); err != nil {
		log.Printf("Error opening decline modal for application %d: %v", ev.ApplicationID, err)
	}
}

// HandleDecline records a decline once the moderator submitted a reason.
func HandleDecline(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot, ev events.Decline) {
	if !utils.IsModerator(ev.Member, b.GetConfig().ModeratorRoleIDs) {
		utils.SendErrorResponse(s, i, "You do not have permission to review applications.")
		return
	}
	if err := utils.DeferResponse(s, i, true); err != nil {
		log.Printf("Error deferring decline response: %v", err)
		return
	}

	decision, err := b.Tracker.Decide(context.Background(), ev.ApplicationID, ev.UserID, model.StatusDeclined, ev.Reason)
	if err != nil {
		logDecisionError(err, ev.ApplicationID, ev.UserID)
		utils.SendFollowUpError(s, i.Interaction, utils.UserErrorMessage(err, time.Now()))
		return
	}

	finishDecision(s, i, b, ev.Actor, decision)
	utils.SendFollowUp(s, i.Interaction, "Application declined.")
}

// finishDecision updates the review message, writes the channel log and notifies the applicant.
// Each step is best effort; the stored decision already stands.
func finishDecision(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot, moderator events.Actor, decision *allowlist.Decision) {
	cfg := b.GetConfig()
	app := decision.Application

	if err := updateReviewMessage(s, i, cfg.ModReviewChannelID, app); err != nil {
		log.WithError(err).WithField("application_id", app.ID).Warn("Failed to update review message")
	}

	if err := utils.SendLogEmbed(s, cfg.LogChannelID, DecisionLogEmbed(app, moderator.DisplayName, cfg.Banners, decision.RoleErr)); err != nil {
		log.WithError(err).Warn("Failed to send decision log")
	}

	if err := utils.SendPrivateEmbedMessage(s, app.UserID, UserDecisionEmbed(app, decision.RoleGranted, cfg.Banners)); err != nil {
		log.WithError(err).WithField("user_id", app.UserID).Warn("Failed to notify applicant")
		note := fmt.Sprintf("Could not DM <@%s> about their %s application #%d.", app.UserID, app.Status, app.ID)
		if err := utils.LogWarn(s, cfg.LogChannelID, "Applications", "Notify applicant", note); err != nil {
			log.WithError(err).Warn("Failed to send DM failure log")
		}
	}
}

// updateReviewMessage restyles the review message and removes its buttons. The
// interaction's own message is used when present, otherwise the stored review message.
func updateReviewMessage(s *discordgo.Session, i *discordgo.InteractionCreate, reviewChannelID string, app *model.Application) error {
	msg := i.Message
	if msg == nil {
		if app.ReviewMessageID == nil {
			return fmt.Errorf("application %d has no review message", app.ID)
		}
		var err error
		msg, err = s.ChannelMessage(reviewChannelID, *app.ReviewMessageID)
		if err != nil {
			return fmt.Errorf("failed to fetch review message: %w", err)
		}
	}

	original := ReviewEmbed(app)
	if len(msg.Embeds) > 0 {
		original = msg.Embeds[0]
	}

	edit := discordgo.NewMessageEdit(msg.ChannelID, msg.ID)
	edit.Embeds = &[]*discordgo.MessageEmbed{MarkDecided(original, app)}
	edit.Components = &[]discordgo.MessageComponent{}
	if _, err := s.ChannelMessageEditComplex(edit); err != nil {
		return fmt.Errorf("failed to edit review message: %w", err)
	}
	return nil
}

func logDecisionError(err error, applicationID int64, moderatorID string) {
	entry := log.WithError(err).WithFields(log.Fields{
		"application_id": applicationID,
		"moderator_id":   moderatorID,
	})
	if allowlist.CodeOf(err) == allowlist.CodeStoreUnavailable {
		entry.Error("Failed to record decision")
		return
	}
	entry.Info("Decision rejected")
}
