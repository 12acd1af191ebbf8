package telegram

import (
	"testing"

	"github.com/m3rciful/grocerybot/core/telegram/commands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestRegistryCallbacks(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCallbacks(map[string]tele.HandlerFunc{
		"cart_inc": noop,
		"cart_dec": noop,
	}))

	err := reg.RegisterCallbacks(map[string]tele.HandlerFunc{
		"cart_inc": noop,
		"":         noop,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cart_inc")

	_, ok := reg.GetCallback("cart_dec")
	assert.True(t, ok)
	_, ok = reg.GetCallback("missing")
	assert.False(t, ok)
	assert.Equal(t, []string{"cart_dec", "cart_inc"}, reg.ListCallbacks())
}

func TestRegistryCommands(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "start"}))
	require.NoError(t, reg.RegisterCommand("/status", commands.Command{Handler: noop, Description: "status", AdminOnly: true}))
	require.NoError(t, reg.RegisterCommand("/debug", commands.Command{Handler: noop, Description: "debug", Hidden: true}))
	assert.Error(t, reg.RegisterCommand("noslash", commands.Command{Handler: noop, Description: "skipped"}))
	assert.Error(t, reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "again"}))

	key, _, ok := reg.LookupCommand("/status@grocery_bot 12 ready")
	require.True(t, ok)
	assert.Equal(t, "/status", key)
	_, _, ok = reg.LookupCommand("/unknown")
	assert.False(t, ok)

	public := reg.ListCommands(false)
	require.Len(t, public, 1)
	assert.Equal(t, "start", public[0].Text)
	assert.Equal(t, []tele.Command{
		{Text: "start", Description: "start"},
		{Text: "status", Description: "status"},
	}, reg.ListCommands(true))
}
