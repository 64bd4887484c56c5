package normalize

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/offerradar/internal/model"
)

func rawOffer() model.RawOffer {
	return model.RawOffer{
		"_id":              "65f1c0ffee",
		"titleJob":         "  QA   Automation Engineer ",
		"employer":         "Banco <b>Central</b>",
		"location":         "Lima, Perú",
		"descriptionOffer": "<p>We use <strong>Playwright</strong></p><ul><li>CI</li></ul>",
		"linkOffer":        "https://jobs.example.com/1",
		"datePublished":    "2026-10-15",
	}
}

func TestNormalize_MapsFields(t *testing.T) {
	o, err := Normalize(rawOffer(), 3)
	require.NoError(t, err)

	assert.Equal(t, "QA Automation Engineer", o.Title)
	assert.Equal(t, "Banco Central", o.Company)
	assert.Equal(t, "https://jobs.example.com/1", o.URL)
	assert.Equal(t, "Lima, Perú", o.Location)
	assert.Equal(t, "2026-10-15", o.PostedDate)
	assert.Equal(t, "We use PlaywrightCI", o.Description)
	assert.Equal(t, 3, o.SourcePage)
	assert.Len(t, o.ID, 32)
}

func TestNormalize_Deterministic(t *testing.T) {
	a, err := Normalize(rawOffer(), 1)
	require.NoError(t, err)
	b, err := Normalize(rawOffer(), 2)
	require.NoError(t, err)

	assert.Equal(t, a.ID, b.ID, "same raw content must yield the same id regardless of page")
}

func TestNormalize_HashFallbackWithoutExternalID(t *testing.T) {
	raw := rawOffer()
	delete(raw, "_id")
	a, err := Normalize(raw, 1)
	require.NoError(t, err)

	raw2 := rawOffer()
	delete(raw2, "_id")
	raw2["titleJob"] = "qa automation ENGINEER"
	b, err := Normalize(raw2, 1)
	require.NoError(t, err)

	assert.Equal(t, a.ID, b.ID, "case and spacing must not change the id")

	raw3 := rawOffer()
	delete(raw3, "_id")
	raw3["linkOffer"] = "https://jobs.example.com/2"
	c, err := Normalize(raw3, 1)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, c.ID)
}

func TestNormalize_NumericExternalID(t *testing.T) {
	raw := rawOffer()
	raw["_id"] = json.Number("1234")
	a, err := Normalize(raw, 1)
	require.NoError(t, err)

	raw["_id"] = "1234"
	b, err := Normalize(raw, 1)
	require.NoError(t, err)

	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, OfferID("1234", "", "", ""), a.ID)
}

func TestNormalize_AlternateKeys(t *testing.T) {
	o, err := Normalize(model.RawOffer{
		"title":   "Backend Developer",
		"company": "Acme",
		"url":     "https://acme.dev/jobs/7",
	}, 1)
	require.NoError(t, err)
	assert.Equal(t, "Backend Developer", o.Title)
	assert.Equal(t, "Acme", o.Company)
}

func TestNormalize_MissingRequiredFields(t *testing.T) {
	for _, field := range []struct {
		key, name string
	}{
		{"titleJob", "title"},
		{"employer", "company"},
		{"linkOffer", "url"},
	} {
		t.Run(field.name, func(t *testing.T) {
			raw := rawOffer()
			raw[field.key] = "   "

			_, err := Normalize(raw, 4)
			var malformed *model.MalformedOfferError
			require.True(t, errors.As(err, &malformed), "got %v", err)
			assert.Equal(t, field.name, malformed.Field)
			assert.Equal(t, 4, malformed.Page)
		})
	}
}

func TestNormalize_IgnoresNonScalarValues(t *testing.T) {
	raw := rawOffer()
	raw["employer"] = map[string]any{"name": "Nested"}
	_, err := Normalize(raw, 1)
	var malformed *model.MalformedOfferError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "company", malformed.Field)
}

func TestCleanField_UnescapesEntities(t *testing.T) {
	assert.Equal(t, "R&D Labs", cleanField("R&amp;D <i>Labs</i>"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcdefg...", Truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ñandú", Truncate("ñandú", 5))
}
