package services

import "github.com/Impetoast/Catcord/domain/entities"

// Actor describes the member attempting a configuration-mutating command.
type Actor struct {
	UserID        string
	RoleIDs       []string
	Administrator bool
}

// Authorize reports whether the actor may mutate a guild's relay
// configuration: native administrators always may, otherwise the actor must
// be on the guild's access list directly or through one of their roles.
// Callers turn a denial into an explicit permission-denied response, never a
// silent ignore.
func Authorize(actor Actor, config *entities.GuildConfig) bool {
	if actor.Administrator {
		return true
	}
	if config.Access.ContainsUser(actor.UserID) {
		return true
	}
	return config.Access.ContainsAnyRole(actor.RoleIDs)
}
