package deck

import (
	"math"
	"strings"

	"github.com/tidwall/gjson"

	"wrapped/pkg/card"
	"wrapped/pkg/export"
)

// Bar tracks inside the 880px content column.
const (
	contactTrack = 760
	wordTrack    = 700
	tapbackTrack = 780
	chartHeight  = 400
)

var rankColors = []string{"#ec4899", "#a855f7", "#6366f1"}

var monthLabels = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

var tapbackEmojis = map[string]string{
	"love":     "❤️",
	"like":     "👍",
	"dislike":  "👎",
	"laugh":    "😂",
	"emphasis": "‼️",
	"question": "❓",
}

// reactionCards lists the reaction memory cards in deck order.
var reactionCards = []struct {
	key, id, title, label string
}{
	{"love", "messages-loved", "Messages You Loved", "❤️ Messages You Loved"},
	{"laugh", "messages-laugh", "Messages That Made You Laugh", "😂 Made You Laugh"},
	{"emphasis", "messages-emphasis", "Messages That Made You Go WHOA", "‼️ Made You Go WHOA"},
	{"dislike", "messages-dislike", "Messages You Disliked", "👎 Messages You Disliked"},
}

type entry struct {
	id       string
	title    string
	category export.Category
	template string
	data     any
}

type heroView struct {
	frame
	Total         int64
	Conversations int64
}

type message struct {
	Text   string
	SentAt string
}

type bookendsView struct {
	frame
	First, Last *message
}

type contactRow struct {
	Rank  int
	Name  string
	Total int64
	Width int
	Color string
}

type contactsView struct {
	frame
	Track    int
	Contacts []contactRow
}

type monthBar struct {
	Label  string
	Count  int64
	Height int
}

type heartbeatView struct {
	frame
	Total  int64
	Months []monthBar
}

type wordRow struct {
	Word  string
	Count int64
	Width int
}

type wordsView struct {
	frame
	Words []wordRow
}

type emojiCell struct {
	Emoji string
	Count int64
	Size  int
}

type emojisView struct {
	frame
	Rows [][]emojiCell
}

type tapbackRow struct {
	Emoji string
	Count int64
	Width int
}

type tapbacksView struct {
	frame
	Track int
	Rows  []tapbackRow
}

type emojiContact struct {
	Name   string
	Emojis []string
}

type languagesView struct {
	frame
	Contacts []emojiContact
}

type connection struct {
	Name        string
	Emoji       string
	Description string
}

type connectionsView struct {
	frame
	Items []connection
}

type plan struct {
	Icon string
	What string
	When string
	Who  string
}

type plansView struct {
	frame
	Plans []plan
}

type memory struct {
	Vibe    string
	Title   string
	Snippet string
}

type memoriesView struct {
	frame
	Memories []memory
}

type textsView struct {
	frame
	Texts []string
}

type reaction struct {
	Text string
	From string
}

type reactionsView struct {
	frame
	Memories []reaction
}

type strength struct {
	Title       string
	Description string
}

type personalityView struct {
	frame
	Type       string
	Adjectives []string
	Strengths  []strength
}

// entries lists the cards of the deck in display order. Cards whose data is
// empty and that have nothing to show are left out.
func (d *Deck) entries() []entry {
	ds := d.data
	bookends := d.bookends()

	out := []entry{
		{"hero", "Year Overview", export.CategoryVibes, "hero", heroView{
			frame:         d.frame("📊 Your Year"),
			Total:         d.TotalMessages(),
			Conversations: ds.Get("stats.uniqueConversations").Int(),
		}},
		{"bookends-vibes", "Bookends", export.CategoryVibes, "bookends", bookends},
		{"inner-circle", "Inner Circle", export.CategoryVibes, "inner-circle", d.contacts()},
		{"digital-heartbeat", "Digital Heartbeat", export.CategoryVibes, "heartbeat", d.heartbeat()},
		{"signature-words", "Signature Words", export.CategoryVibes, "words", d.words()},
		{"emoji-vibe", "Emoji Vibe", export.CategoryVibes, "emojis", d.emojis()},
		{"tapback-favorites", "Tapback Favorites", export.CategoryVibes, "tapbacks", d.tapbacks()},
	}
	if langs := d.languages(); len(langs.Contacts) > 0 {
		out = append(out, entry{"emoji-languages", "Emoji Languages", export.CategoryVibes, "emoji-languages", langs})
	}
	out = append(out,
		entry{"connection-vibes", "Connection Vibes", export.CategoryVibes, "connections", d.connections()},
		entry{"plans", "Plans You Made", export.CategoryVibes, "plans", d.plans()},
		entry{"bookends-messages", "Bookends", export.CategoryMessages, "bookends", bookends},
		entry{"nice-memories", "Nice Memories", export.CategoryMessages, "memories", d.memories()},
	)

	ds.Get("meaningfulTexts").ForEach(func(person, texts gjson.Result) bool {
		view := textsView{frame: d.frame("💬 " + card.Truncate(person.String(), 15))}
		for _, t := range first(texts.Array(), 3) {
			view.Texts = append(view.Texts, t.Get("text").String())
		}
		out = append(out, entry{
			id:       "meaningful-" + strings.Join(strings.Fields(strings.ToLower(person.String())), "-"),
			title:    "Messages from " + person.String(),
			category: export.CategoryMessages,
			template: "texts",
			data:     view,
		})
		return true
	})

	for _, rc := range reactionCards {
		view := reactionsView{frame: d.frame(rc.label)}
		for _, m := range first(ds.Get("reactionMemories."+rc.key).Array(), 3) {
			view.Memories = append(view.Memories, reaction{Text: m.Get("text").String(), From: m.Get("from").String()})
		}
		out = append(out, entry{rc.id, rc.title, export.CategoryMessages, "reactions", view})
	}

	out = append(out, entry{"personality", "Personality Evaluation", export.CategoryPersonality, "personality", d.personality()})
	return out
}

func (d *Deck) bookends() bookendsView {
	view := bookendsView{frame: d.frame("📅 First & Last")}
	msg := func(r gjson.Result) *message {
		if !r.Exists() {
			return nil
		}
		return &message{Text: r.Get("text").String(), SentAt: r.Get("sent_at").String()}
	}
	view.First = msg(d.data.Get("milestones.firstMessage"))
	view.Last = msg(d.data.Get("milestones.lastMessage"))
	return view
}

func (d *Deck) contacts() contactsView {
	view := contactsView{frame: d.frame("👥 Inner Circle"), Track: contactTrack}
	rows := first(d.data.Get("topContacts").Array(), 5)
	top := maxOf(rows, "total")
	for i, c := range rows {
		view.Contacts = append(view.Contacts, contactRow{
			Rank:  i + 1,
			Name:  c.Get("contact").String(),
			Total: c.Get("total").Int(),
			Width: scaled(c.Get("total").Int(), top, contactTrack),
			Color: rankColors[min(i, len(rankColors)-1)],
		})
	}
	return view
}

func (d *Deck) heartbeat() heartbeatView {
	view := heartbeatView{frame: d.frame("📈 Message Flow"), Total: d.TotalMessages()}
	months := d.data.Get("monthlyVolume").Array()
	top := maxOf(months, "count")
	for _, m := range months {
		view.Months = append(view.Months, monthBar{
			Label:  monthLabel(m.Get("month").String()),
			Count:  m.Get("count").Int(),
			Height: scaled(m.Get("count").Int(), top, chartHeight),
		})
	}
	return view
}

// monthLabel turns "2025-03-01" into "Mar"; unknown values pass through.
func monthLabel(s string) string {
	if len(s) >= 7 && s[4] == '-' {
		n := int(s[5]-'0')*10 + int(s[6]-'0')
		if n >= 1 && n <= 12 {
			return monthLabels[n-1]
		}
	}
	return s
}

func (d *Deck) words() wordsView {
	view := wordsView{frame: d.frame("💬 Signature Words")}
	rows := first(d.data.Get("topWords").Array(), 8)
	top := maxOf(rows, "count")
	for _, w := range rows {
		view.Words = append(view.Words, wordRow{
			Word:  w.Get("word").String(),
			Count: w.Get("count").Int(),
			Width: scaled(w.Get("count").Int(), top, wordTrack),
		})
	}
	return view
}

func (d *Deck) emojis() emojisView {
	view := emojisView{frame: d.frame("😍 Top Emojis")}
	var row []emojiCell
	for i, e := range first(d.data.Get("topEmojis").Array(), 8) {
		size := 56
		if i < 3 {
			size = 72
		}
		row = append(row, emojiCell{Emoji: e.Get("emoji").String(), Count: e.Get("count").Int(), Size: size})
		if len(row) == 4 {
			view.Rows = append(view.Rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		view.Rows = append(view.Rows, row)
	}
	return view
}

func (d *Deck) tapbacks() tapbacksView {
	view := tapbacksView{frame: d.frame("💬 Reactions Given"), Track: tapbackTrack}
	rows := first(d.data.Get("tapbackTrends").Array(), 5)
	top := maxOf(rows, "count")
	for _, t := range rows {
		emoji, ok := tapbackEmojis[strings.ToLower(t.Get("reaction").String())]
		if !ok {
			emoji = "💬"
		}
		view.Rows = append(view.Rows, tapbackRow{
			Emoji: emoji,
			Count: t.Get("count").Int(),
			Width: scaled(t.Get("count").Int(), top, tapbackTrack),
		})
	}
	return view
}

func (d *Deck) languages() languagesView {
	view := languagesView{frame: d.frame("🎭 Emoji Language")}
	for _, c := range d.data.Get("contactEmojis").Array() {
		emojis := c.Get("emojis").Array()
		if len(emojis) == 0 {
			continue
		}
		ec := emojiContact{Name: c.Get("name").String()}
		for _, e := range first(emojis, 8) {
			ec.Emojis = append(ec.Emojis, e.Get("emoji").String())
		}
		view.Contacts = append(view.Contacts, ec)
		if len(view.Contacts) == 5 {
			break
		}
	}
	return view
}

func (d *Deck) connections() connectionsView {
	view := connectionsView{frame: d.frame("💜 Connection Vibes")}
	d.data.Get("connections").ForEach(func(name, c gjson.Result) bool {
		emoji := c.Get("emoji").String()
		if emoji == "" {
			emoji = "💬"
		}
		view.Items = append(view.Items, connection{
			Name:        name.String(),
			Emoji:       emoji,
			Description: c.Get("description").String(),
		})
		return len(view.Items) < 4
	})
	return view
}

func (d *Deck) plans() plansView {
	view := plansView{frame: d.frame("🗓️ Plans & Adventures")}
	groups := []struct{ key, icon string }{
		{"trips", "✈️"},
		{"gatherings", "🎉"},
		{"connections", "💫"},
	}
	for _, g := range groups {
		for _, p := range d.data.Get("plans." + g.key).Array() {
			if len(view.Plans) == 4 {
				return view
			}
			icon := p.Get("vibe").String()
			if icon == "" {
				icon = g.icon
			}
			var who []string
			for _, w := range first(p.Get("who").Array(), 3) {
				who = append(who, w.String())
			}
			view.Plans = append(view.Plans, plan{
				Icon: icon,
				What: p.Get("what").String(),
				When: p.Get("when").String(),
				Who:  strings.Join(who, ", "),
			})
		}
	}
	return view
}

func (d *Deck) memories() memoriesView {
	view := memoriesView{frame: d.frame("✨ Nice Memories")}
	for _, m := range first(d.data.Get("milestones.memories").Array(), 3) {
		view.Memories = append(view.Memories, memory{
			Vibe:    m.Get("vibe").String(),
			Title:   m.Get("title").String(),
			Snippet: m.Get("snippet").String(),
		})
	}
	return view
}

func (d *Deck) personality() personalityView {
	ev := d.data.Get("personalityEvaluation")
	view := personalityView{frame: d.frame("🔮 Personality"), Type: ev.Get("type").String()}
	for _, a := range first(ev.Get("adjectives").Array(), 5) {
		view.Adjectives = append(view.Adjectives, a.String())
	}
	for _, s := range first(ev.Get("strengths").Array(), 2) {
		view.Strengths = append(view.Strengths, strength{
			Title:       s.Get("title").String(),
			Description: s.Get("description").String(),
		})
	}
	return view
}

func first(rs []gjson.Result, n int) []gjson.Result {
	if len(rs) > n {
		return rs[:n]
	}
	return rs
}

func maxOf(rs []gjson.Result, field string) int64 {
	var top int64
	for _, r := range rs {
		top = max(top, r.Get(field).Int())
	}
	return top
}

// scaled maps v in [0, top] onto [0, track] pixels.
func scaled(v, top int64, track int) int {
	return int(math.Round(card.Ratio(v, top, float64(track))))
}
