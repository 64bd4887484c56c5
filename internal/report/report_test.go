package report

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/offerradar/internal/model"
	"github.com/amishk599/offerradar/internal/store"
)

var generatedAt = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func rec(id, title, company string, notable bool) model.MatchRecord {
	return model.MatchRecord{
		Offer:     model.Offer{ID: id, Title: title, Company: company, URL: "https://jobs.example.com/" + id},
		Verdict:   model.MatchVerdict{OfferID: id, IsMatch: true, Reason: "fits " + id, IsNotableCompany: notable},
		MatchedAt: generatedAt,
	}
}

func state(t *testing.T, recs ...model.MatchRecord) store.State {
	t.Helper()
	st, err := store.NewState(recs)
	require.NoError(t, err)
	return st
}

func TestRender_ListsNewMatchesInStoreOrder(t *testing.T) {
	st := state(t,
		rec("old", "Old Role", "Initech", false),
		rec("a", "Go Engineer", "Acme", false),
		rec("b", "Platform Engineer", "Globex", true),
	)

	doc, err := Render(Input{State: st, NewIDs: []string{"b", "a"}, RunID: "r1", GeneratedAt: generatedAt})
	require.NoError(t, err)
	html := string(doc)

	assert.NotContains(t, html, "Old Role")
	ia := strings.Index(html, `<p class="title">Go Engineer`)
	ib := strings.Index(html, `<p class="title">Platform Engineer`)
	require.True(t, ia >= 0 && ib >= 0)
	assert.Less(t, ia, ib, "store order, not NewIDs order")

	assert.Contains(t, html, "Notable companies")
	assert.Contains(t, html, `<span class="notable">Globex</span>`)
	assert.Contains(t, html, "3 matches stored")
	assert.Contains(t, html, "2026-03-01 09:30 UTC")
	assert.NotContains(t, html, "No new matches")
	assert.NotContains(t, html, "deferred")
}

func TestRender_NoNewMatches(t *testing.T) {
	st := state(t, rec("a", "Go Engineer", "Acme", false))

	doc, err := Render(Input{State: st, GeneratedAt: generatedAt})
	require.NoError(t, err)
	assert.Contains(t, string(doc), "No new matches.")
	assert.NotContains(t, string(doc), "Notable companies")
}

func TestRender_DeferredNote(t *testing.T) {
	doc, err := Render(Input{State: state(t), Deferred: 4, GeneratedAt: generatedAt})
	require.NoError(t, err)
	assert.Contains(t, string(doc), "4 offers deferred")
}

func TestRender_EscapesContent(t *testing.T) {
	r := rec("x", "<script>alert(1)</script>", "A&B", false)
	r.Offer.URL = "javascript:alert(1)"

	doc, err := Render(Input{State: state(t, r), NewIDs: []string{"x"}, GeneratedAt: generatedAt})
	require.NoError(t, err)
	html := string(doc)
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "A&amp;B")
	assert.NotContains(t, html, "javascript:alert")
}

func TestRender_UnknownNewID(t *testing.T) {
	_, err := Render(Input{State: state(t), NewIDs: []string{"ghost"}})

	var rerr *model.ReportRenderError
	require.True(t, errors.As(err, &rerr))
	assert.Contains(t, err.Error(), "ghost")
}

func TestRender_RecordWithoutURL(t *testing.T) {
	r := rec("a", "Go Engineer", "Acme", false)
	r.Offer.URL = ""

	_, err := Render(Input{State: state(t, r), NewIDs: []string{"a"}})
	var rerr *model.ReportRenderError
	require.ErrorAs(t, err, &rerr)
}

func TestRender_IsDeterministic(t *testing.T) {
	in := Input{State: state(t, rec("a", "Go Engineer", "Acme", true)), NewIDs: []string{"a"}, RunID: "r", GeneratedAt: generatedAt}

	first, err := Render(in)
	require.NoError(t, err)
	second, err := Render(in)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "email_body.html")

	require.NoError(t, WriteFile(path, []byte("<p>hi</p>")))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<p>hi</p>", string(got))
}
