package bot

import (
	"allowlist-bot/utils"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Run opens the gateway, registers commands in every guild and blocks until SIGINT/SIGTERM.
func (b *Bot) Run() error {
	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	guilds, err := b.Session.UserGuilds(100, "", "", false)
	if err != nil {
		return fmt.Errorf("could not fetch guilds: %w", err)
	}

	if !b.GetConfig().DisableCommandUnregister {
		log.Println("Unregistering stale commands from all guilds...")
		for _, guild := range guilds {
			b.UnregisterCommands(guild.ID)
		}
	}

	log.Println("Registering commands...")
	b.RegisteredCommands = make([]*discordgo.ApplicationCommand, 0)
	for _, guild := range guilds {
		b.RefreshCommands(guild.ID)
	}

	if err := b.scheduler.Start(); err != nil {
		return err
	}

	log.Println("Bot is now running. Press CTRL-C to exit.")
	if err := utils.LogInfo(b.Session, b.GetConfig().LogChannelID, "System", "Startup", "Bot has started successfully."); err != nil {
		log.Printf("Failed to send startup log: %v", err)
	}
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc
	return nil
}

// UnregisterCommands deletes every command the application has in a guild.
func (b *Bot) UnregisterCommands(guildID string) {
	registered, err := b.Session.ApplicationCommands(b.Session.State.User.ID, guildID)
	if err != nil {
		log.Printf("Could not fetch registered commands for guild %s: %v", guildID, err)
		return
	}
	for _, cmd := range registered {
		if err := b.Session.ApplicationCommandDelete(b.Session.State.User.ID, guildID, cmd.ID); err != nil {
			log.Printf("Cannot delete '%v' command in guild %s: %v", cmd.Name, guildID, err)
		}
	}
}
