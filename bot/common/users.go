package common

import (
	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"github.com/Impetoast/Catcord/domain/services"
)

// DisplayName returns the server-specific display name for a message author,
// preferring the nickname over the username.
func DisplayName(member *discordgo.Member, user *discordgo.User) string {
	if member != nil && member.Nick != "" {
		return member.Nick
	}
	if user != nil {
		if user.GlobalName != "" {
			return user.GlobalName
		}
		return user.Username
	}
	return "Unknown"
}

// AvatarURL returns the avatar to impersonate with, preferring the member's
// guild avatar over the account avatar.
func AvatarURL(member *discordgo.Member, user *discordgo.User, guildID string) string {
	if member != nil && member.Avatar != "" {
		return discordgo.EndpointGuildMemberAvatar(guildID, user.ID, member.Avatar)
	}
	if user != nil {
		return user.AvatarURL("128")
	}
	return ""
}

// IsUserAdmin checks if a user has administrator permissions in a guild
func IsUserAdmin(s *discordgo.Session, guildID, userID string) bool {
	member, err := s.GuildMember(guildID, userID)
	if err != nil {
		log.Errorf("Failed to get guild member: %v", err)
		return false
	}

	for _, roleID := range member.Roles {
		role, err := s.State.Role(guildID, roleID)
		if err != nil {
			continue
		}
		if role.Permissions&discordgo.PermissionAdministrator != 0 {
			return true
		}
	}

	return false
}

// ActorFromInteraction builds the authorization subject for a slash command.
func ActorFromInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) services.Actor {
	actor := services.Actor{}
	if i.Member != nil && i.Member.User != nil {
		actor.UserID = i.Member.User.ID
		actor.RoleIDs = i.Member.Roles
		actor.Administrator = i.Member.Permissions&discordgo.PermissionAdministrator != 0 ||
			IsUserAdmin(s, i.GuildID, i.Member.User.ID)
	}
	return actor
}
