package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Impetoast/Catcord/domain/entities"
)

func TestReminderStore_MissingGuildDefaultsEnabled(t *testing.T) {
	t.Parallel()

	store := NewReminderStore(t.TempDir())
	reminders, settings, err := store.Load(context.Background(), "guild-1")
	require.NoError(t, err)
	assert.Empty(t, reminders)
	assert.True(t, settings.Enabled)
}

func TestReminderStore_SaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewReminderStore(t.TempDir())
	ctx := context.Background()

	weekday := 0
	hour := 9
	saved := []*entities.Reminder{
		{
			Name: "standup", Interval: 1, Unit: "days",
			ChannelID: "100", Message: "daily standup", Headline: "Reminder",
			Weekday: &weekday, Hour: &hour,
		},
		{
			Name: "once", Interval: 30, Unit: "minutes",
			ChannelID: "200", Message: "one shot", OneTime: true,
		},
	}
	require.NoError(t, store.Save(ctx, "guild-1", saved, entities.ReminderSettings{Enabled: false}))

	reminders, settings, err := store.Load(ctx, "guild-1")
	require.NoError(t, err)
	assert.False(t, settings.Enabled)
	require.Len(t, reminders, 2)
	assert.Equal(t, "standup", reminders[0].Name)
	require.NotNil(t, reminders[0].Weekday)
	assert.Equal(t, 0, *reminders[0].Weekday)
	require.NotNil(t, reminders[0].Hour)
	assert.Equal(t, 9, *reminders[0].Hour)
	assert.Nil(t, reminders[0].Minute)
	assert.True(t, reminders[1].OneTime)
}

func TestReminderStore_EmptyListKeepsSettings(t *testing.T) {
	t.Parallel()

	store := NewReminderStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "guild-1", nil, entities.ReminderSettings{Enabled: false}))
	reminders, settings, err := store.Load(ctx, "guild-1")
	require.NoError(t, err)
	assert.Empty(t, reminders)
	assert.False(t, settings.Enabled)
}

func TestReminderStore_GuildIDs(t *testing.T) {
	t.Parallel()

	store := NewReminderStore(t.TempDir())
	ctx := context.Background()

	ids, err := store.GuildIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, store.Save(ctx, "guild-1", nil, entities.ReminderSettings{Enabled: true}))
	require.NoError(t, store.Save(ctx, "guild-2", nil, entities.ReminderSettings{Enabled: true}))

	ids, err = store.GuildIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"guild-1", "guild-2"}, ids)
}
