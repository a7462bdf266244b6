package bot

import (
	"allowlist-bot/allowlist"
	"allowlist-bot/model"
	"allowlist-bot/utils"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

const (
	// maxReminderLines caps the entries listed in one reminder embed.
	maxReminderLines = 20

	repostSchedule = "@every 5m"
	// repostGrace leaves in-flight review posts from the submit handler alone.
	repostGrace = 2 * time.Minute
)

// BotProvider defines the methods the scheduler needs from the Bot.
type BotProvider interface {
	GetConfig() *model.Config
	GetSession() *discordgo.Session
	GetTracker() *allowlist.Tracker
	PostForReview(ctx context.Context, app *model.Application) error
}

// ReviewPoster sends an application to the review channel with its decision buttons.
type ReviewPoster interface {
	PostForReview(ctx context.Context, app *model.Application) error
}

// Scheduler manages all scheduled tasks.
type Scheduler struct {
	bot  BotProvider
	cron *cron.Cron
}

// NewScheduler creates a new scheduler.
func NewScheduler(bot BotProvider) *Scheduler {
	logger := cron.PrintfLogger(log.StandardLogger())
	return &Scheduler{
		bot:  bot,
		cron: cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger))),
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(repostSchedule, s.repostUnposted); err != nil {
		return fmt.Errorf("failed to schedule review repost: %w", err)
	}

	schedule := s.bot.GetConfig().PendingReminderSchedule
	if schedule == "" {
		log.Println("Pending reminder is disabled.")
	} else {
		if _, err := s.cron.AddFunc(schedule, s.remindStalePending); err != nil {
			return fmt.Errorf("invalid PENDING_REMINDER_SCHEDULE %q: %w", schedule, err)
		}
		log.Printf("Pending reminder scheduled: %s", schedule)
	}

	s.cron.Start()
	return nil
}

// Stop terminates all scheduled tasks gracefully.
func (s *Scheduler) Stop() {
	log.Println("Stopping scheduler...")
	<-s.cron.Stop().Done()
	log.Println("Scheduler stopped.")
}

func (s *Scheduler) repostUnposted() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := RepostUnposted(ctx, s.bot.GetTracker(), s.bot); err != nil {
		log.WithError(err).Warn("Failed to load unposted applications")
	}
}

// RepostUnposted sends pending applications that never reached the review channel
// again, so moderators get their buttons. It returns how many were posted.
func RepostUnposted(ctx context.Context, tracker *allowlist.Tracker, poster ReviewPoster) (int, error) {
	apps, err := tracker.UnpostedPending(ctx, repostGrace)
	if err != nil {
		return 0, err
	}

	posted := 0
	for i := range apps {
		app := &apps[i]
		if err := poster.PostForReview(ctx, app); err != nil {
			log.WithError(err).WithField("application_id", app.ID).Warn("Failed to repost application for review")
			continue
		}
		posted++
		log.WithField("application_id", app.ID).Info("Reposted application for review")
	}
	return posted, nil
}

func (s *Scheduler) remindStalePending() {
	cfg := s.bot.GetConfig()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	apps, err := s.bot.GetTracker().StalePending(ctx, cfg.PendingReminderAfter)
	if err != nil {
		log.WithError(err).Warn("Failed to load stale pending applications")
		return
	}
	if len(apps) == 0 {
		return
	}

	embed := BuildPendingReminder(apps, cfg.ModReviewChannelID, time.Now())
	if _, err := s.bot.GetSession().ChannelMessageSendEmbed(cfg.ModReviewChannelID, embed); err != nil {
		log.WithError(err).Warn("Failed to post pending reminder")
		return
	}
	log.WithField("count", len(apps)).Info("Posted pending application reminder")
}

// BuildPendingReminder renders the list of applications still waiting for review.
func BuildPendingReminder(apps []model.Application, reviewChannelID string, now time.Time) *discordgo.MessageEmbed {
	var b strings.Builder
	for i, app := range apps {
		if i == maxReminderLines {
			fmt.Fprintf(&b, "...and %d more", len(apps)-maxReminderLines)
			break
		}
		fmt.Fprintf(&b, "• #%d <@%s> submitted <t:%d:R>", app.ID, app.UserID, app.SubmittedAt)
		if app.ReviewMessageID != nil && app.GuildID != "" {
			fmt.Fprintf(&b, " [jump](https://discord.com/channels/%s/%s/%s)", app.GuildID, reviewChannelID, *app.ReviewMessageID)
		}
		b.WriteString("\n")
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%d application(s) awaiting review", len(apps)),
		Description: b.String(),
		Color:       utils.ColorOrange,
		Timestamp:   now.Format(time.RFC3339),
	}
}
