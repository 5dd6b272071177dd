package info

import (
	"fmt"
	"runtime"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/Impetoast/Catcord/bot/common"
)

// Feature handles the /ping and /about commands
type Feature struct {
	startedAt time.Time
	version   string
}

// NewFeature creates a new info feature instance
func NewFeature(version string) *Feature {
	return &Feature{
		startedAt: time.Now(),
		version:   version,
	}
}

// HandleCommand routes info commands to appropriate handlers
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.ApplicationCommandData().Name {
	case "ping":
		f.handlePing(s, i)
	case "about":
		f.handleAbout(s, i)
	}
}

func (f *Feature) handlePing(s *discordgo.Session, i *discordgo.InteractionCreate) {
	latency := s.HeartbeatLatency().Round(time.Millisecond)
	common.RespondWithSuccess(s, i, fmt.Sprintf("Pong! Gateway latency %s", latency))
}

func (f *Feature) handleAbout(s *discordgo.Session, i *discordgo.InteractionCreate) {
	uptime := time.Since(f.startedAt).Round(time.Second)
	embed := &discordgo.MessageEmbed{
		Title: "Catcord",
		Description: "Relays messages between language channels, translated and reposted " +
			"under the original author's name.",
		Color: 0x5865F2,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Version", Value: f.version, Inline: true},
			{Name: "Uptime", Value: uptime.String(), Inline: true},
			{Name: "Runtime", Value: runtime.Version(), Inline: true},
			{Name: "Guilds", Value: fmt.Sprintf("%d", len(s.State.Guilds)), Inline: true},
		},
	}
	common.RespondWithEmbed(s, i, embed, false)
}
