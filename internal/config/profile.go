package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/amishk599/offerradar/internal/model"
)

// LoadProfile reads the professional profile. YAML is a superset of JSON, so
// both profile.yaml and a plain profile.json are accepted.
func LoadProfile(path string) (model.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Profile{}, fmt.Errorf("read profile: %w", err)
	}

	var p model.Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return model.Profile{}, fmt.Errorf("parse profile: %w", err)
	}
	if len(p.Skills) == 0 && p.Headline == "" && p.Notes == "" {
		return model.Profile{}, fmt.Errorf("profile %s: needs at least one of skills, headline or notes", path)
	}
	return p, nil
}
