package handlers

import (
	"allowlist-bot/bot"
	"allowlist-bot/handlers/review"
	"allowlist-bot/model"
	"context"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Register attaches every gateway handler to the bot session.
func Register(b *bot.Bot) {
	b.SetReviewPoster(func(ctx context.Context, app *model.Application) error {
		return review.PostForReview(ctx, b.Session, b, app)
	})
	b.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Printf("Logged in as: %v#%v", s.State.User.Username, s.State.User.Discriminator)
	})
	b.Session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		handleInteractionCreate(s, i, b)
	})
}
