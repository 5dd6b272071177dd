package infrastructure

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/go-resty/resty/v2"

	"github.com/Impetoast/Catcord/domain/interfaces"
)

// DiscordGateway adapts a discordgo session to the ChatGateway interface.
type DiscordGateway struct {
	session *discordgo.Session
	http    *resty.Client
}

// NewDiscordGateway wraps a session. timeout bounds attachment downloads.
func NewDiscordGateway(session *discordgo.Session, timeout time.Duration) *DiscordGateway {
	return &DiscordGateway{
		session: session,
		http:    resty.New().SetTimeout(timeout).SetDoNotParseResponse(true),
	}
}

func (g *DiscordGateway) ReactionAdd(ctx context.Context, channelID, messageID, emoji string) error {
	return g.session.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx))
}

func (g *DiscordGateway) ReactionRemove(ctx context.Context, channelID, messageID, emoji string) error {
	return g.session.MessageReactionRemove(channelID, messageID, emoji, "@me", discordgo.WithContext(ctx))
}

func (g *DiscordGateway) CreateThread(ctx context.Context, channelID, name string, autoArchiveMinutes int) (string, error) {
	thread, err := g.session.ThreadStart(channelID, name, discordgo.ChannelTypeGuildPublicThread, autoArchiveMinutes, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return thread.ID, nil
}

func (g *DiscordGateway) SendMessage(ctx context.Context, channelID, content, headline string) (string, error) {
	send := &discordgo.MessageSend{}
	if headline != "" {
		send.Embeds = []*discordgo.MessageEmbed{{
			Title:       headline,
			Description: content,
			Color:       0x5865F2,
		}}
	} else {
		send.Content = content
	}
	msg, err := g.session.ChannelMessageSendComplex(channelID, send, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (g *DiscordGateway) DownloadAttachment(ctx context.Context, url string) (io.ReadCloser, error) {
	resp, err := g.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() >= 300 {
		resp.RawBody().Close()
		return nil, fmt.Errorf("attachment download: %s", resp.Status())
	}
	return resp.RawBody(), nil
}

var _ interfaces.ChatGateway = (*DiscordGateway)(nil)
