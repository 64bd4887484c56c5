package browse

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/offerradar/internal/model"
)

func rec(id, title, company string, notable bool, at time.Time) model.MatchRecord {
	return model.MatchRecord{
		Offer: model.Offer{
			ID:          id,
			Title:       title,
			Company:     company,
			URL:         "https://jobs.example.com/" + id,
			Location:    "Berlin",
			Description: "Build payment services in Go.",
		},
		Verdict:   model.MatchVerdict{OfferID: id, IsMatch: true, Reason: "Go backend role", IsNotableCompany: notable},
		MatchedAt: at,
	}
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sized(t *testing.T, records []model.MatchRecord) browseModel {
	t.Helper()
	m := newModel(records)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(browseModel)
}

func press(t *testing.T, m browseModel, msg tea.KeyMsg) (browseModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(browseModel), cmd
}

func TestNewModelSortsAndSplitsNotable(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	m := newModel([]model.MatchRecord{
		rec("a", "Go Engineer", "Acme", false, base),
		rec("b", "Platform Engineer", "Globex", true, base.Add(2*time.Hour)),
		rec("c", "SRE", "Initech", false, base.Add(time.Hour)),
	})

	require.Len(t, m.all, 3)
	assert.Equal(t, []string{"b", "c", "a"}, []string{m.all[0].Offer.ID, m.all[1].Offer.ID, m.all[2].Offer.ID})
	require.Len(t, m.notable, 1)
	assert.Equal(t, "b", m.notable[0].Offer.ID)
}

func TestViewBeforeSize(t *testing.T) {
	m := newModel(nil)
	assert.Equal(t, "Initializing...", m.View())
}

func TestListViewShowsCounts(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	m := sized(t, []model.MatchRecord{
		rec("a", "Go Engineer", "Acme", false, base),
		rec("b", "Platform Engineer", "Globex", true, base),
	})

	out := m.View()
	assert.Contains(t, out, "Matches (2)")
	assert.Contains(t, out, "Notable companies (1)")
	assert.Contains(t, out, "Go Engineer")
}

func TestEmptyStore(t *testing.T) {
	m := sized(t, nil)
	assert.Contains(t, m.View(), "(no matches)")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, viewList, m.view)
}

func TestCursorClampsAndSwitchesPanes(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	m := sized(t, []model.MatchRecord{
		rec("a", "Go Engineer", "Acme", false, base),
		rec("b", "Platform Engineer", "Globex", true, base),
	})

	m, _ = press(t, m, runeKey("j"))
	m, _ = press(t, m, runeKey("j"))
	m, _ = press(t, m, runeKey("j"))
	assert.Equal(t, 1, m.cursors[paneAll])

	m, _ = press(t, m, runeKey("k"))
	m, _ = press(t, m, runeKey("k"))
	assert.Equal(t, 0, m.cursors[paneAll])

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, paneNotable, m.activePane)
	m, _ = press(t, m, runeKey("j"))
	assert.Equal(t, 0, m.cursors[paneNotable])
}

func TestDetailViewAndBack(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	m := sized(t, []model.MatchRecord{rec("a", "Go Engineer", "Acme", false, base)})

	var opened string
	m.opener = func(url string) { opened = url }

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, viewDetail, m.view)
	assert.Equal(t, "a", m.detail.Offer.ID)

	detail := m.renderDetail()
	assert.Contains(t, detail, "Go backend role")
	assert.Contains(t, detail, "press r to read the description")
	assert.NotContains(t, detail, "Build payment services")

	m, _ = press(t, m, runeKey("r"))
	assert.True(t, m.showDescription)
	assert.Contains(t, m.renderDetail(), "Build payment services in Go.")

	m, _ = press(t, m, runeKey("o"))
	assert.Equal(t, "https://jobs.example.com/a", opened)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, viewList, m.view)
}

func TestQuitKeys(t *testing.T) {
	m := sized(t, nil)
	_, cmd := press(t, m, runeKey("q"))
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestWordWrap(t *testing.T) {
	out := wordWrap("one two three four five", 9)
	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, len(line), 9)
	}
	assert.Equal(t, "", wordWrap("   ", 10))
}
