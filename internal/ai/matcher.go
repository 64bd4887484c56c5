package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"text/template"
	"time"

	"github.com/amishk599/offerradar/internal/model"
	"github.com/amishk599/offerradar/internal/normalize"
	"github.com/amishk599/offerradar/internal/retry"
)

const (
	descriptionLimit = 400
	promptPreviewLen = 2000
)

// LLMBatchMatcher implements model.BatchMatcher on top of an LLMProvider.
type LLMBatchMatcher struct {
	provider  LLMProvider
	tmpl      *template.Template
	policy    retry.Policy
	timeout   time.Duration
	artifacts ArtifactWriter
	logger    *slog.Logger
}

// NewLLMBatchMatcher creates a matcher. timeout bounds each attempt, not the
// whole retry sequence.
func NewLLMBatchMatcher(provider LLMProvider, tmpl *template.Template, policy retry.Policy, timeout time.Duration, artifacts ArtifactWriter, logger *slog.Logger) *LLMBatchMatcher {
	return &LLMBatchMatcher{
		provider:  provider,
		tmpl:      tmpl,
		policy:    policy,
		timeout:   timeout,
		artifacts: artifacts,
		logger:    logger,
	}
}

// promptOffer is the reduced offer shape shown to the model.
type promptOffer struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
}

// MatchBatch asks the provider for one verdict per offer. Protocol violations
// and transient provider failures are retried under the policy; the final
// error is returned when every attempt failed.
func (m *LLMBatchMatcher) MatchBatch(ctx context.Context, batch model.Batch, profile model.Profile) ([]model.MatchVerdict, error) {
	if len(batch.Offers) == 0 {
		return nil, nil
	}

	prompt, err := m.renderPrompt(batch, profile)
	if err != nil {
		return nil, err
	}

	op := fmt.Sprintf("match batch %d/%d", batch.Index, batch.Total)
	return retry.Do(ctx, m.policy, m.logger, op, func(ctx context.Context, attempt int) ([]model.MatchVerdict, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, m.timeout)
		defer cancel()

		raw, err := m.provider.Complete(attemptCtx, prompt)
		var verdicts []model.MatchVerdict
		if err == nil {
			verdicts, err = parseVerdicts(raw, batch)
		}
		m.writeArtifact(batch, attempt, prompt, raw, err)
		if err != nil {
			return nil, err
		}
		return verdicts, nil
	})
}

func (m *LLMBatchMatcher) renderPrompt(batch model.Batch, profile model.Profile) (string, error) {
	profileJSON, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal profile: %w", err)
	}

	offers := make([]promptOffer, len(batch.Offers))
	for i, o := range batch.Offers {
		offers[i] = promptOffer{
			ID:          o.ID,
			Title:       o.Title,
			Company:     o.Company,
			Location:    o.Location,
			Description: normalize.Truncate(o.Description, descriptionLimit),
		}
	}
	offersJSON, err := json.MarshalIndent(offers, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal offers: %w", err)
	}

	var buf bytes.Buffer
	if err := m.tmpl.Execute(&buf, struct {
		Profile    string
		BatchIndex int
		BatchTotal int
		Offers     string
	}{
		Profile:    string(profileJSON),
		BatchIndex: batch.Index,
		BatchTotal: batch.Total,
		Offers:     string(offersJSON),
	}); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}

func (m *LLMBatchMatcher) writeArtifact(batch model.Batch, attempt int, prompt, raw string, err error) {
	a := Artifact{
		RunID:         batch.RunID,
		Batch:         batch.Index,
		Attempt:       attempt,
		OfferIDs:      batch.IDs(),
		PromptPreview: normalize.Truncate(prompt, promptPreviewLen),
		Response:      raw,
	}
	if err != nil {
		a.Error = err.Error()
	}
	if werr := m.artifacts.Write(a); werr != nil {
		m.logger.Warn("failed to write debug artifact", "batch", batch.Index, "attempt", attempt, "error", werr)
	}
}
