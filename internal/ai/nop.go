package ai

// NopArtifactWriter discards artifacts. Used when matching.debug_dir is empty.
type NopArtifactWriter struct{}

// NewNopArtifactWriter returns a NopArtifactWriter.
func NewNopArtifactWriter() *NopArtifactWriter {
	return &NopArtifactWriter{}
}

// Write does nothing.
func (n *NopArtifactWriter) Write(Artifact) error {
	return nil
}
