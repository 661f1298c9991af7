package deck

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"wrapped/pkg/card"
	"wrapped/pkg/dom"
	"wrapped/pkg/export"
	"wrapped/pkg/stage"
)

func units(t *testing.T, d *Deck) map[string]export.Unit {
	t.Helper()
	list, err := d.Units()
	require.NoError(t, err)
	out := make(map[string]export.Unit, len(list))
	for _, u := range list {
		out[u.ID] = u
	}
	return out
}

func render(t *testing.T, u export.Unit) string {
	t.Helper()
	tmpl, ok := u.Payload.(*card.Template)
	require.True(t, ok, "unit %s is not a template card", u.ID)
	out, err := tmpl.Render()
	require.NoError(t, err)
	return out
}

func TestDefaultDeckOrder(t *testing.T) {
	d, err := Default()
	require.NoError(t, err)
	assert.Equal(t, 2025, d.Year())
	assert.Equal(t, int64(48313), d.TotalMessages())

	list, err := d.Units()
	require.NoError(t, err)
	var ids []string
	for _, u := range list {
		ids = append(ids, u.ID)
	}
	assert.Equal(t, []string{
		"hero", "bookends-vibes", "inner-circle", "digital-heartbeat", "signature-words",
		"emoji-vibe", "tapback-favorites", "emoji-languages", "connection-vibes", "plans",
		"bookends-messages", "nice-memories", "meaningful-maya", "meaningful-mom",
		"messages-loved", "messages-laugh", "messages-emphasis", "messages-dislike",
		"personality",
	}, ids)

	groups := export.GroupByCategory(list)
	assert.Len(t, groups[export.CategoryVibes], 10)
	assert.Len(t, groups[export.CategoryMessages], 8)
	assert.Len(t, groups[export.CategoryPersonality], 1)
}

func TestCardTemplatesRender(t *testing.T) {
	d, err := Default()
	require.NoError(t, err)
	all := units(t, d)

	tests := []struct {
		id       string
		contains []string
		excludes []string
	}{
		{"hero", []string{"48,313", "214", "2 0 2 5", "📊 Your Year", "@fairy", "zo.computer"}, nil},
		{"inner-circle", []string{"Maya", "Group: Sunday Brunch Club", "width: 760px", "#ec4899"}, []string{"Alex"}},
		{"digital-heartbeat", []string{`data-h="400"`, "Jul", "requestAnimationFrame"}, nil},
		{"signature-words", []string{"lol", "width: 700px"}, nil},
		{"emoji-vibe", []string{"font-size: 72px", "1,840"}, []string{"👀"}},
		{"plans", []string{"Lisbon long weekend", "🎉", "Sam, Alex, Maya", "First climbing lesson"}, []string{"Mom"}},
		{"meaningful-mom", []string{"💬 Mom", "The tomatoes came in!"}, nil},
		{"messages-dislike", []string{"Nothing here yet"}, nil},
		{"personality", []string{"The Warm Connector", "spontaneous", "Plan maker"}, []string{"loud", "Hype person"}},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			u, ok := all[tt.id]
			require.True(t, ok)
			out := render(t, u)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func writeDeck(t *testing.T, dir, dataset string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DatasetFile), []byte(dataset), 0o644))
}

func TestOpenOverridesDataset(t *testing.T) {
	dir := t.TempDir()
	writeDeck(t, dir, `{"year": 2024, "monthlyVolume": [{"month": "2024-01-01", "count": 1234567}], "meaningfulTexts": {"Big Sis": [{"text": "hi"}]}}`)

	d, err := Open(dir)
	require.NoError(t, err)
	all := units(t, d)

	assert.Contains(t, render(t, all["hero"]), "1,234,567")
	assert.Contains(t, render(t, all["hero"]), "2 0 2 4")
	assert.Contains(t, all, "meaningful-big-sis")
	assert.NotContains(t, all, "emoji-languages")
	assert.Equal(t, "Messages from Big Sis", all["meaningful-big-sis"].Title)
}

func TestOpenOverridesTemplate(t *testing.T) {
	dir := t.TempDir()
	writeDeck(t, dir, `{"stats": {"uniqueConversations": 7}}`)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "cards"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cards", "hero.html"),
		[]byte(`{{define "content"}}<div id="custom">{{.Conversations}} chats</div>{{end}}`), 0o644))

	d, err := Open(dir)
	require.NoError(t, err)
	all := units(t, d)
	assert.Contains(t, render(t, all["hero"]), `<div id="custom">7 chats</div>`)
	// Other cards still come from the embedded deck.
	assert.Contains(t, render(t, all["personality"]), `class="strength"`)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	writeDeck(t, dir, `{"year": `)
	_, err := Open(dir)
	assert.ErrorIs(t, err, ErrDataset)

	writeDeck(t, dir, `[1, 2]`)
	_, err = Open(dir)
	assert.ErrorIs(t, err, ErrDataset)
}

func TestBrokenTemplate(t *testing.T) {
	dir := t.TempDir()
	writeDeck(t, dir, `{}`)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "cards"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cards", "plans.html"),
		[]byte(`{{define "content"}}{{range}}{{end}}`), 0o644))

	d, err := Open(dir)
	require.NoError(t, err)
	_, err = d.Units()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "card plans")
}

func TestMonthLabel(t *testing.T) {
	assert.Equal(t, "Jan", monthLabel("2025-01-01"))
	assert.Equal(t, "Dec", monthLabel("2025-12-01"))
	assert.Equal(t, "2025-13-01", monthLabel("2025-13-01"))
	assert.Equal(t, "Q1", monthLabel("Q1"))
}

func TestHeartbeatAnimatesBars(t *testing.T) {
	defer goleak.VerifyNone(t)

	d, err := Default()
	require.NoError(t, err)
	u := units(t, d)["digital-heartbeat"]

	doc := stage.NewDocument(1280, 800, zerolog.Nop())
	ctx := context.Background()
	err = doc.With(ctx, export.StoryWidth, export.StoryHeight, func(s *stage.Stage) error {
		require.NoError(t, u.Payload.Mount(ctx, s))
		require.Eventually(t, func() bool {
			grown := false
			_ = s.View(func(root *dom.Node) error {
				for _, bar := range root.GetElementsByClassName("bar") {
					h, _ := bar.GetAttribute("data-h")
					st, _ := bar.GetAttribute("style")
					if h == "400" && strings.Contains(st, "height: 400px") {
						grown = true
					}
				}
				return nil
			})
			return grown
		}, 2*time.Second, 20*time.Millisecond)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Attached())
}

func TestWatchReloads(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	writeDeck(t, dir, `{"year": 2024}`)

	ctx, cancel := context.WithCancel(context.Background())
	reloaded := make(chan *Deck, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, dir, zerolog.Nop(), func(d *Deck) {
			select {
			case reloaded <- d:
			default:
			}
		})
	}()

	// Keep rewriting until the watcher is registered and reports a reload.
	var got *Deck
	require.Eventually(t, func() bool {
		writeDeck(t, dir, `{"year": 2026}`)
		select {
		case got = <-reloaded:
			return true
		case <-time.After(150 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 2026, got.Year())

	cancel()
	require.NoError(t, <-done)
}
