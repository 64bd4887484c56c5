package notifier

import (
	"log/slog"

	"github.com/amishk599/offerradar/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes new matches to the given logger as structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each match via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs each match with company, title, location, URL and reason.
// Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(matches []model.MatchRecord) error {
	for _, m := range matches {
		args := []any{"company", m.Offer.Company, "title", m.Offer.Title, "url", m.Offer.URL, "reason", m.Verdict.Reason}
		if m.Offer.Location != "" {
			args = append(args, "location", m.Offer.Location)
		}
		if m.Verdict.IsNotableCompany {
			args = append(args, "notable", true)
		}
		n.logger.Info("new match", args...)
	}
	return nil
}
