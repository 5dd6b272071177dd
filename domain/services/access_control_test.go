package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Impetoast/Catcord/domain/entities"
)

func TestAuthorize(t *testing.T) {
	t.Parallel()

	config := entities.NewGuildConfig("guild-1", entities.ProviderDeepL)
	config.Access = entities.AccessList{
		Roles: []string{"role-mod"},
		Users: []string{"user-alice"},
	}

	tests := []struct {
		name  string
		actor Actor
		want  bool
	}{
		{
			name:  "administrator always allowed",
			actor: Actor{UserID: "user-x", Administrator: true},
			want:  true,
		},
		{
			name:  "whitelisted user allowed",
			actor: Actor{UserID: "user-alice"},
			want:  true,
		},
		{
			name:  "member with whitelisted role allowed",
			actor: Actor{UserID: "user-bob", RoleIDs: []string{"role-other", "role-mod"}},
			want:  true,
		},
		{
			name:  "unprivileged member denied",
			actor: Actor{UserID: "user-bob", RoleIDs: []string{"role-other"}},
			want:  false,
		},
		{
			name:  "no overlap with empty whitelist denied",
			actor: Actor{UserID: "user-bob"},
			want:  false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Authorize(tt.actor, config))
		})
	}
}

func TestAuthorize_EmptyWhitelistIsAdminOnly(t *testing.T) {
	t.Parallel()

	config := entities.NewGuildConfig("guild-1", entities.ProviderDeepL)
	assert.False(t, Authorize(Actor{UserID: "user-bob", RoleIDs: []string{"any"}}, config))
	assert.True(t, Authorize(Actor{UserID: "user-bob", Administrator: true}, config))
}
