package ai

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Artifact is the debug record of one matching attempt.
type Artifact struct {
	RunID         string   `json:"run_id"`
	Batch         int      `json:"batch"`
	Attempt       int      `json:"attempt"`
	OfferIDs      []string `json:"offer_ids"`
	Error         string   `json:"error,omitempty"`
	PromptPreview string   `json:"prompt_preview"`
	Response      string   `json:"response,omitempty"`
}

// ArtifactWriter persists debug artifacts. Writes are best-effort: callers
// log failures and carry on.
type ArtifactWriter interface {
	Write(a Artifact) error
}

// FileArtifactWriter writes one JSON file per attempt into dir.
type FileArtifactWriter struct {
	dir string
}

// NewFileArtifactWriter returns a writer rooted at dir, created on first write.
func NewFileArtifactWriter(dir string) *FileArtifactWriter {
	return &FileArtifactWriter{dir: dir}
}

// Write stores a as <dir>/<run>_batch<NN>_attempt<M>.json.
func (w *FileArtifactWriter) Write(a Artifact) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}
	name := fmt.Sprintf("%s_batch%02d_attempt%d.json", a.RunID, a.Batch, a.Attempt)
	if err := os.WriteFile(filepath.Join(w.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}
