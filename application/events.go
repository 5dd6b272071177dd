package application

// AttachmentRef points at an uploaded attachment on the source message.
type AttachmentRef struct {
	URL         string
	Filename    string
	ContentType string
	Spoiler     bool
}

// ReplyRef describes the message the source message replied to.
type ReplyRef struct {
	AuthorName string
	Content    string
	ChannelID  string
	MessageID  string
}

// MessageEvent is a guild message worth considering for relay. ChannelID is
// always the mapped channel: for thread messages it is the thread's parent
// and ThreadID carries the thread itself.
type MessageEvent struct {
	GuildID   string
	ChannelID string
	ThreadID  string
	MessageID string

	AuthorID    string
	AuthorName  string
	AuthorIcon  string
	AuthorIsBot bool
	WebhookID   string

	Content     string
	Attachments []AttachmentRef
	Reply       *ReplyRef

	// Display names for mention sanitization, keyed by ID.
	UserNames    map[string]string
	RoleNames    map[string]string
	ChannelNames map[string]string
}

// EditEvent is a source-message content change.
type EditEvent struct {
	GuildID   string
	ChannelID string
	ThreadID  string
	MessageID string
	Content   string

	UserNames    map[string]string
	RoleNames    map[string]string
	ChannelNames map[string]string
}

// DeleteEvent is a source-message deletion.
type DeleteEvent struct {
	GuildID   string
	ChannelID string
	ThreadID  string
	MessageID string
}

// ReactionEvent is a reaction added to or removed from a source message.
// Emoji is in the REST form discordgo expects, "name" for unicode and
// "name:id" for custom emoji.
type ReactionEvent struct {
	GuildID   string
	ChannelID string
	ThreadID  string
	MessageID string
	UserID    string
	Emoji     string
	Removed   bool
}

// ThreadEvent is a thread opened on a mapped channel.
type ThreadEvent struct {
	GuildID         string
	ParentChannelID string
	ThreadID        string
	Name            string
}
