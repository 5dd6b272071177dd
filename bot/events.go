package bot

import (
	"regexp"

	"github.com/bwmarrin/discordgo"

	"github.com/Impetoast/Catcord/application"
	"github.com/Impetoast/Catcord/bot/common"
)

var channelMentionScan = regexp.MustCompile(`<#(\d+)>`)

// handleMessageCreate converts a gateway message into a relay event. Routing
// always happens on the mapped channel, so thread messages are keyed by the
// thread's parent with the thread carried separately.
func (b *Bot) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.GuildID == "" || m.Author == nil {
		return
	}

	b.autotranslate.HandleMessage(s, m)

	channelID, threadID := b.routingChannel(s, m.ChannelID)
	ev := &application.MessageEvent{
		GuildID:     m.GuildID,
		ChannelID:   channelID,
		ThreadID:    threadID,
		MessageID:   m.ID,
		AuthorID:    m.Author.ID,
		AuthorName:  common.DisplayName(m.Member, m.Author),
		AuthorIcon:  common.AvatarURL(m.Member, m.Author, m.GuildID),
		AuthorIsBot: m.Author.Bot,
		WebhookID:   m.WebhookID,
		Content:     m.Content,
	}

	for _, att := range m.Attachments {
		ev.Attachments = append(ev.Attachments, application.AttachmentRef{
			URL:         att.URL,
			Filename:    att.Filename,
			ContentType: att.ContentType,
			Spoiler:     isSpoilerName(att.Filename),
		})
	}

	if ref := m.ReferencedMessage; ref != nil && ref.Author != nil {
		ev.Reply = &application.ReplyRef{
			AuthorName: common.DisplayName(nil, ref.Author),
			Content:    ref.Content,
			ChannelID:  ref.ChannelID,
			MessageID:  ref.ID,
		}
	}

	ev.UserNames, ev.RoleNames, ev.ChannelNames = b.mentionNames(s, m.GuildID, m.Content, m.Mentions, m.MentionRoles)
	b.engine.EnqueueMessage(ev)
}

// handleMessageUpdate propagates content edits. Embed-unfurl updates arrive
// with empty content and are ignored.
func (b *Bot) handleMessageUpdate(s *discordgo.Session, m *discordgo.MessageUpdate) {
	if m.GuildID == "" || m.Content == "" {
		return
	}
	if m.Author != nil && (m.Author.Bot || m.WebhookID != "") {
		return
	}

	channelID, threadID := b.routingChannel(s, m.ChannelID)
	ev := &application.EditEvent{
		GuildID:   m.GuildID,
		ChannelID: channelID,
		ThreadID:  threadID,
		MessageID: m.ID,
		Content:   m.Content,
	}
	ev.UserNames, ev.RoleNames, ev.ChannelNames = b.mentionNames(s, m.GuildID, m.Content, m.Mentions, m.MentionRoles)
	b.engine.EnqueueEdit(ev)
}

func (b *Bot) handleMessageDelete(s *discordgo.Session, m *discordgo.MessageDelete) {
	if m.GuildID == "" {
		return
	}
	channelID, threadID := b.routingChannel(s, m.ChannelID)
	b.engine.EnqueueDelete(&application.DeleteEvent{
		GuildID:   m.GuildID,
		ChannelID: channelID,
		ThreadID:  threadID,
		MessageID: m.ID,
	})
}

func (b *Bot) handleReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	b.enqueueReaction(s, r.MessageReaction, false)
}

func (b *Bot) handleReactionRemove(s *discordgo.Session, r *discordgo.MessageReactionRemove) {
	b.enqueueReaction(s, r.MessageReaction, true)
}

func (b *Bot) enqueueReaction(s *discordgo.Session, r *discordgo.MessageReaction, removed bool) {
	if r.GuildID == "" {
		return
	}
	channelID, threadID := b.routingChannel(s, r.ChannelID)
	b.engine.EnqueueReaction(&application.ReactionEvent{
		GuildID:   r.GuildID,
		ChannelID: channelID,
		ThreadID:  threadID,
		MessageID: r.MessageID,
		UserID:    r.UserID,
		Emoji:     r.Emoji.APIName(),
		Removed:   removed,
	})
}

func (b *Bot) handleThreadCreate(s *discordgo.Session, t *discordgo.ThreadCreate) {
	if t.GuildID == "" || !t.NewlyCreated || t.ParentID == "" {
		return
	}
	b.engine.EnqueueThread(&application.ThreadEvent{
		GuildID:         t.GuildID,
		ParentChannelID: t.ParentID,
		ThreadID:        t.ID,
		Name:            t.Name,
	})
}

// routingChannel resolves a gateway channel ID to (mapped channel, thread).
// For a thread the parent channel carries the relay mapping.
func (b *Bot) routingChannel(s *discordgo.Session, channelID string) (string, string) {
	channel, err := s.State.Channel(channelID)
	if err != nil {
		channel, err = s.Channel(channelID)
	}
	if err == nil && channel.IsThread() && channel.ParentID != "" {
		return channel.ParentID, channelID
	}
	return channelID, ""
}

// mentionNames builds the ID-to-name maps mention sanitization needs. Users
// come from the message payload; roles and channels from the state cache.
func (b *Bot) mentionNames(s *discordgo.Session, guildID, content string, users []*discordgo.User, roleIDs []string) (map[string]string, map[string]string, map[string]string) {
	userNames := make(map[string]string, len(users))
	for _, u := range users {
		userNames[u.ID] = common.DisplayName(nil, u)
	}

	roleNames := make(map[string]string, len(roleIDs))
	for _, roleID := range roleIDs {
		if role, err := s.State.Role(guildID, roleID); err == nil {
			roleNames[roleID] = role.Name
		}
	}

	channelNames := make(map[string]string)
	for _, match := range channelMentionScan.FindAllStringSubmatch(content, -1) {
		id := match[1]
		if channel, err := s.State.Channel(id); err == nil {
			channelNames[id] = channel.Name
		}
	}

	return userNames, roleNames, channelNames
}

func isSpoilerName(filename string) bool {
	return len(filename) >= 8 && filename[:8] == "SPOILER_"
}
