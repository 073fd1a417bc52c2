package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cmdrelay/cmdrelay/internal/config"
	"github.com/cmdrelay/cmdrelay/internal/types"
)

const dispatcherConfig = `
webhooks:
  executed: "https://discord.example/api/webhooks/1/token"
  no-permission: "https://discord.example/api/webhooks/2/token"

templates:
  executed:
    title: "Executed: %command%"
    description: "%player% (%mention%, group %group%) at %world% %x% %y% %z%"
    include_thumbnail: true
    thumbnail_url: "https://img.example/%player%.png"
  no-permission:
    title: "Denied"
    description: "%player% tried %command%"
    color: 15548997
    footer: ""
    include_timestamp: false

embed_defaults:
  author_name: "Audit"
  footer_text: "server-1"
  footer_icon_url: "https://img.example/icon.png"
  color: 3066993
`

type captureSender struct {
	deliveries []Delivery
	err        error
}

func (c *captureSender) Name() string              { return "capture" }
func (c *captureSender) Start(ctx context.Context) {}
func (c *captureSender) Send(_ context.Context, d Delivery) error {
	if c.err != nil {
		return c.err
	}
	c.deliveries = append(c.deliveries, d)
	return nil
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *captureSender) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(dispatcherConfig), 0o600))
	store, err := config.NewStore(path)
	require.NoError(t, err)

	sender := &captureSender{}
	d := NewDispatcher(store, sender, zap.NewNop())
	d.now = func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) }
	return d, sender
}

func notifyActor() types.Actor {
	return types.Actor{
		ID:   "uuid-1",
		Name: "Ghast",
		Location: types.Location{
			World: "world",
			X:     10, Y: 64, Z: -5,
		},
	}
}

func TestNotify(t *testing.T) {
	d, sender := newTestDispatcher(t)

	d.Notify(context.Background(), "executed", notifyActor(), "/fly", "<@9>", "admin", "trace-1")

	require.Len(t, sender.deliveries, 1)
	got := sender.deliveries[0]
	assert.Equal(t, "https://discord.example/api/webhooks/1/token", got.URL)
	assert.Equal(t, "trace-1", got.TraceID)

	require.Len(t, got.Envelope.Embeds, 1)
	embed := got.Envelope.Embeds[0]
	assert.Equal(t, "Audit", embed.Author.Name)
	assert.Equal(t, "Executed: /fly", embed.Title)
	assert.Equal(t, "Ghast (<@9>, group admin) at world 10 64 -5", embed.Description)
	assert.Equal(t, 3066993, embed.Color, "falls back to default color")

	require.NotNil(t, embed.Footer)
	assert.Equal(t, "server-1", embed.Footer.Text)
	assert.Equal(t, "https://img.example/icon.png", embed.Footer.IconURL)

	require.NotNil(t, embed.Thumbnail)
	assert.Equal(t, "https://img.example/Ghast.png", embed.Thumbnail.URL)
	assert.Nil(t, embed.Image)

	assert.Equal(t, "2026-08-01T12:00:00Z", embed.Timestamp, "default include_timestamp applies")
}

func TestNotifyTemplateOverrides(t *testing.T) {
	d, sender := newTestDispatcher(t)

	d.Notify(context.Background(), "no-permission", notifyActor(), "/ban q", "Not linked", "default", "trace-2")

	require.Len(t, sender.deliveries, 1)
	embed := sender.deliveries[0].Envelope.Embeds[0]
	assert.Equal(t, 15548997, embed.Color, "template color override wins")
	assert.Nil(t, embed.Footer, "explicit empty footer suppresses the default")
	assert.Empty(t, embed.Timestamp, "template disables the timestamp")
}

func TestNotifyUnconfiguredOutcomeSkips(t *testing.T) {
	d, sender := newTestDispatcher(t)

	// No webhook URL for this key.
	d.Notify(context.Background(), "unknown-command", notifyActor(), "/x", "", "", "trace-3")
	assert.Empty(t, sender.deliveries)
}

func TestNotifyMissingTemplateSkips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"webhooks:\n  executed: \"https://discord.example/hook\"\n"), 0o600))
	store, err := config.NewStore(path)
	require.NoError(t, err)

	sender := &captureSender{}
	d := NewDispatcher(store, sender, zap.NewNop())

	d.Notify(context.Background(), "executed", notifyActor(), "/fly", "", "", "trace-4")
	assert.Empty(t, sender.deliveries)
}

func TestNotifyEnqueueErrorIsSwallowed(t *testing.T) {
	d, sender := newTestDispatcher(t)
	sender.err = errors.New("buffer full")

	// Must not panic or surface the error.
	d.Notify(context.Background(), "executed", notifyActor(), "/fly", "", "", "trace-5")
	assert.Empty(t, sender.deliveries)
}

func TestEnvelopeJSONEscaping(t *testing.T) {
	env := Envelope{Embeds: []Embed{{
		Author:      Author{Name: `He said "hi"`},
		Title:       "line1\nline2",
		Description: `back\slash`,
		Color:       1,
	}}}

	raw, err := json.Marshal(env)
	require.NoError(t, err)

	s := string(raw)
	assert.Contains(t, s, `He said \"hi\"`)
	assert.Contains(t, s, `line1\nline2`)
	assert.Contains(t, s, `back\\slash`)

	// Round-trips cleanly.
	var decoded Envelope
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, env, decoded)
}
