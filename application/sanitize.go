package application

import (
	"regexp"
	"strings"
)

var (
	userMentionPattern    = regexp.MustCompile(`<@!?(\d+)>`)
	roleMentionPattern    = regexp.MustCompile(`<@&(\d+)>`)
	channelMentionPattern = regexp.MustCompile(`<#(\d+)>`)

	// Zero-width characters are stripped before translation so they cannot
	// smuggle pings past the replacement step.
	zeroWidthReplacer = strings.NewReplacer(
		"\u200b", "", // zero width space
		"\u200c", "", // zero width non-joiner
		"\u200d", "", // zero width joiner
		"\u2060", "", // word joiner
		"\ufeff", "", // zero width no-break space
	)

	everyoneReplacer = strings.NewReplacer(
		"@everyone", "@\u200beveryone",
		"@here", "@\u200bhere",
	)
)

// sanitizeMentions rewrites user, role, and channel mentions into inert text
// so a mirrored message can never ping anyone in target channels. Names are
// looked up in the event's ID maps; unresolvable IDs fall back to a generic
// label.
func sanitizeMentions(content string, users, roles, channels map[string]string) string {
	content = zeroWidthReplacer.Replace(content)

	content = userMentionPattern.ReplaceAllStringFunc(content, func(m string) string {
		id := userMentionPattern.FindStringSubmatch(m)[1]
		if name, ok := users[id]; ok && name != "" {
			return "@" + name
		}
		return "@user"
	})
	content = roleMentionPattern.ReplaceAllStringFunc(content, func(m string) string {
		id := roleMentionPattern.FindStringSubmatch(m)[1]
		if name, ok := roles[id]; ok && name != "" {
			return "@" + name
		}
		return "@role"
	})
	content = channelMentionPattern.ReplaceAllStringFunc(content, func(m string) string {
		id := channelMentionPattern.FindStringSubmatch(m)[1]
		if name, ok := channels[id]; ok && name != "" {
			return "#" + name
		}
		return "#channel"
	})

	return everyoneReplacer.Replace(content)
}

// truncateRunes shortens s to at most limit runes, appending an ellipsis when
// anything was cut.
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}
