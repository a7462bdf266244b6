package admin

import (
	"allowlist-bot/bot"
	"allowlist-bot/handlers/events"
	"allowlist-bot/utils"
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	log "github.com/sirupsen/logrus"
)

var startedAt = time.Now()

// HandleBotInfo reports host, runtime and queue stats.
func HandleBotInfo(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot, ev events.BotInfo) {
	if !utils.IsAdmin(ev.Member) {
		utils.SendErrorResponse(s, i, "You do not have permission to use this command.")
		return
	}

	// Get CPU info
	cpuCount, _ := cpu.Counts(true)
	cpuUsage := "n/a"
	if cpuPercent, err := cpu.Percent(0, false); err == nil && len(cpuPercent) > 0 {
		cpuUsage = fmt.Sprintf("%.1f%%", cpuPercent[0])
	}

	// Get memory info
	memory := "n/a"
	if vm, err := mem.VirtualMemory(); err == nil {
		memory = fmt.Sprintf("%.1f%% (%d MB / %d MB)", vm.UsedPercent, vm.Used/1024/1024, vm.Total/1024/1024)
	}

	// Get host info
	platform, kernel := "n/a", "n/a"
	if hostInfo, err := host.Info(); err == nil {
		platform = fmt.Sprintf("%s %s", hostInfo.Platform, hostInfo.PlatformVersion)
		kernel = hostInfo.KernelVersion
	}

	pending := "n/a"
	if apps, err := b.Tracker.StalePending(context.Background(), 0); err != nil {
		log.WithError(err).Warn("Failed to count pending applications")
	} else {
		pending = fmt.Sprintf("%d", len(apps))
	}
	dbStats := b.DB.Stats()

	embed := &discordgo.MessageEmbed{
		Title: "System Information",
		Color: 0x5865F2, // Discord Blurple
		Fields: []*discordgo.MessageEmbedField{
			{Name: "💻 OS", Value: platform, Inline: true},
			{Name: "🔧 Kernel", Value: kernel, Inline: true},
			{Name: "🐹 Go", Value: runtime.Version(), Inline: true},
			{Name: "🔼 CPUs", Value: fmt.Sprintf("%d", cpuCount), Inline: true},
			{Name: "🔥 CPU Usage", Value: cpuUsage, Inline: true},
			{Name: "🧠 Memory", Value: memory, Inline: true},
			{Name: "🗃️ DB Connections", Value: fmt.Sprintf("%d open / %d in use", dbStats.OpenConnections, dbStats.InUse), Inline: true},
			{Name: "📋 Pending Applications", Value: pending, Inline: true},
			{Name: "⏱️ WebSocket Latency", Value: s.HeartbeatLatency().String(), Inline: true},
			{Name: "🚀 Goroutines", Value: fmt.Sprintf("%d", runtime.NumGoroutine()), Inline: true},
			{Name: "⌛ Uptime", Value: time.Since(startedAt).Round(time.Second).String(), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("System monitor • today %s", time.Now().Format("15:04")),
		},
	}

	utils.SendEmbedResponse(s, i, embed, false)
}
