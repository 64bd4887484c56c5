// Package normalize is the single translation boundary between the untyped
// records of the offers API and model.Offer. Raw key names live here only.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"html"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/amishk599/offerradar/internal/model"
)

// Keys are tried in order; the first non-empty value wins.
var (
	externalIDKeys  = []string{"_id", "id"}
	titleKeys       = []string{"titleJob", "title"}
	companyKeys     = []string{"employer", "company"}
	urlKeys         = []string{"linkOffer", "url"}
	locationKeys    = []string{"location"}
	descriptionKeys = []string{"descriptionOffer", "description"}
	postedKeys      = []string{"datePublished", "publishedAt", "postedDate", "date"}
)

var strictPolicy = bluemonday.StrictPolicy()

// Normalize converts one raw record into an Offer. It fails with
// *model.MalformedOfferError when title, company or url is missing or empty.
func Normalize(raw model.RawOffer, page int) (model.Offer, error) {
	title := cleanField(lookup(raw, titleKeys))
	if title == "" {
		return model.Offer{}, &model.MalformedOfferError{Page: page, Field: "title"}
	}
	company := cleanField(lookup(raw, companyKeys))
	if company == "" {
		return model.Offer{}, &model.MalformedOfferError{Page: page, Field: "company"}
	}
	link := strings.TrimSpace(lookup(raw, urlKeys))
	if link == "" {
		return model.Offer{}, &model.MalformedOfferError{Page: page, Field: "url"}
	}

	return model.Offer{
		ID:          OfferID(lookup(raw, externalIDKeys), title, company, link),
		Title:       title,
		Company:     company,
		URL:         link,
		Location:    cleanField(lookup(raw, locationKeys)),
		PostedDate:  strings.TrimSpace(lookup(raw, postedKeys)),
		Description: htmlToText(lookup(raw, descriptionKeys)),
		SourcePage:  page,
	}, nil
}

// OfferID returns the stable identity of an offer. A provider id wins when
// present; otherwise title, company and url are hashed after case and
// whitespace folding so cosmetic changes do not create a new offer.
func OfferID(externalID, title, company, link string) string {
	var key string
	if ext := strings.TrimSpace(externalID); ext != "" {
		key = "ext:" + ext
	} else {
		key = strings.Join([]string{fold(title), fold(company), strings.TrimSpace(link)}, "\x1f")
	}
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:16])
}

func fold(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func lookup(raw model.RawOffer, keys []string) string {
	for _, k := range keys {
		if s := stringValue(raw[k]); strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// stringValue renders scalar JSON values; objects and arrays yield "".
func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// cleanField strips markup from a short text field and collapses whitespace.
func cleanField(s string) string {
	if s == "" {
		return ""
	}
	plain := html.UnescapeString(strictPolicy.Sanitize(s))
	return strings.Join(strings.Fields(plain), " ")
}

// htmlToText converts an HTML description to plain text, collapsing whitespace.
func htmlToText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// Truncate cuts s to at most n runes, appending an ellipsis when it cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
