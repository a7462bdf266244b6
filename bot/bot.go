package bot

import (
	"allowlist-bot/allowlist"
	"allowlist-bot/commands"
	"allowlist-bot/model"
	"context"
	"fmt"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"
	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
)

type Bot struct {
	Session            *discordgo.Session
	RegisteredCommands []*discordgo.ApplicationCommand
	config             atomic.Value // *model.Config
	DB                 *sqlx.DB
	Tracker            *allowlist.Tracker
	scheduler          *Scheduler
	reviewPoster       func(ctx context.Context, app *model.Application) error
}

func (b *Bot) GetConfig() *model.Config {
	return b.config.Load().(*model.Config)
}

func (b *Bot) GetDB() *sqlx.DB {
	return b.DB
}

func (b *Bot) GetSession() *discordgo.Session {
	return b.Session
}

func (b *Bot) GetTracker() *allowlist.Tracker {
	return b.Tracker
}

func New(cfg *model.Config, db *sqlx.DB) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, err
	}
	dg.Identify.Intents = discordgo.IntentsGuilds
	dg.StateEnabled = false

	b := &Bot{
		Session: dg,
		DB:      db,
	}
	b.config.Store(cfg)
	b.Tracker = allowlist.NewTracker(db, allowlist.Options{
		Cooldown:         cfg.Cooldown,
		MinAge:           cfg.MinAge,
		StaticExemptions: cfg.CooldownBypassIDs,
		Roles:            b,
	})
	b.scheduler = NewScheduler(b)
	return b, nil
}

// GrantRole adds the allowlisted role to a guild member.
func (b *Bot) GrantRole(ctx context.Context, guildID, userID string) error {
	roleID := b.GetConfig().AllowlistedRoleID
	if err := b.Session.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to add role %s to user %s: %w", roleID, userID, err)
	}
	return nil
}

// SetReviewPoster installs the function that posts applications to the review channel.
func (b *Bot) SetReviewPoster(post func(ctx context.Context, app *model.Application) error) {
	b.reviewPoster = post
}

// PostForReview posts an application with the installed review poster.
func (b *Bot) PostForReview(ctx context.Context, app *model.Application) error {
	if b.reviewPoster == nil {
		return fmt.Errorf("no review poster installed")
	}
	return b.reviewPoster(ctx, app)
}

func (b *Bot) Close() {
	log.Println("Gracefully shutting down.")
	b.scheduler.Stop()
	if err := b.Session.Close(); err != nil {
		log.Printf("Error closing discord session: %v", err)
	}
}

func (b *Bot) RefreshCommands(guildID string) {
	cmds := commands.GenerateCommands()
	log.Printf("Registering %d commands for guild %s...", len(cmds), guildID)
	registeredCmds, err := b.Session.ApplicationCommandBulkOverwrite(b.Session.State.User.ID, guildID, cmds)
	if err != nil {
		log.Printf("cannot update commands for guild '%s': %v", guildID, err)
		return
	}
	b.RegisteredCommands = append(b.RegisteredCommands, registeredCmds...)
}
