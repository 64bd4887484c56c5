package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/amishk599/offerradar/internal/model"
)

// Ensure SlackNotifier implements model.Notifier.
var _ model.Notifier = (*SlackNotifier)(nil)

// SlackNotifier sends match alerts to a Slack channel via Incoming Webhooks.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
	pause      time.Duration // between messages, Slack allows about one per second
}

// NewSlackNotifier returns a notifier that posts each match to Slack via webhook.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
		pause:      500 * time.Millisecond,
	}
}

// Notify sends each match as a separate Slack message using Block Kit.
// Returns an error only if ALL messages fail. Individual failures are logged.
func (s *SlackNotifier) Notify(matches []model.MatchRecord) error {
	if len(matches) == 0 {
		return nil
	}

	failures := 0
	for i, m := range matches {
		if i > 0 && s.pause > 0 {
			time.Sleep(s.pause)
		}

		if err := s.sendMessage(m); err != nil {
			s.logger.Error("slack notification failed", "company", m.Offer.Company, "title", m.Offer.Title, "error", err)
			failures++
		}
	}

	sent := len(matches) - failures
	if failures == len(matches) {
		return fmt.Errorf("all %d slack notifications failed", failures)
	}
	s.logger.Info("slack notifications complete", "sent", sent, "failed", failures)
	return nil
}

func (s *SlackNotifier) sendMessage(m model.MatchRecord) error {
	body, err := json.Marshal(buildPayload(m))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	status, retryAfter, err := s.post(body)
	if err != nil {
		return err
	}

	if status == http.StatusTooManyRequests {
		secs, _ := strconv.Atoi(retryAfter)
		if secs <= 0 {
			secs = 1
		}
		s.logger.Warn("slack rate limited, retrying", "retry_after_secs", secs)
		time.Sleep(time.Duration(secs) * time.Second)

		status, _, err = s.post(body)
		if err != nil {
			return fmt.Errorf("retry: %w", err)
		}
		if status != http.StatusOK {
			return fmt.Errorf("slack returned %d on retry", status)
		}
		s.logger.Info("slack message sent", "company", m.Offer.Company, "title", m.Offer.Title, "retried", true)
		return nil
	}

	if status != http.StatusOK {
		return fmt.Errorf("slack returned %d", status)
	}
	s.logger.Info("slack message sent", "company", m.Offer.Company, "title", m.Offer.Title)
	return nil
}

func (s *SlackNotifier) post(body []byte) (int, string, error) {
	resp, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, "", fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()
	return resp.StatusCode, resp.Header.Get("Retry-After"), nil
}

// Block Kit payload types.

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string         `json:"type"`
	Text     *slackText     `json:"text,omitempty"`
	Fields   []slackText    `json:"fields,omitempty"`
	Elements []slackElement `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackElement struct {
	Type  string    `json:"type"`
	Text  slackText `json:"text"`
	URL   string    `json:"url"`
	Style string    `json:"style"`
}

// SendTestMessage sends a dummy match notification to verify the integration works.
func SendTestMessage(n model.Notifier) error {
	test := model.MatchRecord{
		Offer: model.Offer{
			ID:       "test-001",
			Title:    "Test Notification: Integration Verified",
			Company:  "offerradar",
			URL:      "https://github.com/amishk599/offerradar",
			Location: "Everywhere",
		},
		Verdict: model.MatchVerdict{
			OfferID: "test-001",
			IsMatch: true,
			Reason:  "This is a test message.",
		},
		MatchedAt: time.Now().UTC(),
	}
	return n.Notify([]model.MatchRecord{test})
}

func buildPayload(m model.MatchRecord) slackPayload {
	icon := "🚀 "
	if m.Verdict.IsNotableCompany {
		icon = "⭐ "
	}

	location := m.Offer.Location
	if location == "" {
		location = "Not specified"
	}
	posted := m.Offer.PostedDate
	if posted == "" {
		posted = "Just detected"
	}

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: icon + m.Offer.Company + ": " + m.Offer.Title},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Company:*\n" + m.Offer.Company},
				{Type: "mrkdwn", Text: "*Location:*\n" + location},
			},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Posted:*\n" + posted},
				{Type: "mrkdwn", Text: "*Notable:*\n" + yesNo(m.Verdict.IsNotableCompany)},
			},
		},
	}

	if m.Verdict.Reason != "" {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: "*Why:* " + m.Verdict.Reason},
		})
	}

	blocks = append(blocks,
		slackBlock{
			Type: "actions",
			Elements: []slackElement{
				{
					Type:  "button",
					Text:  slackText{Type: "plain_text", Text: "View Offer"},
					URL:   m.Offer.URL,
					Style: "primary",
				},
			},
		},
		slackBlock{Type: "divider"},
	)

	return slackPayload{Blocks: blocks}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
