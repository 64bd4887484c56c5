package model

// Profile describes the matching criteria. It is read-only for the pipeline.
type Profile struct {
	Name             string   `yaml:"name" json:"name,omitempty"`
	Headline         string   `yaml:"headline" json:"headline,omitempty"`
	Skills           []string `yaml:"skills" json:"skills,omitempty"`
	Seniority        string   `yaml:"seniority" json:"seniority,omitempty"`
	Locations        []string `yaml:"locations" json:"locations,omitempty"`
	Languages        []string `yaml:"languages" json:"languages,omitempty"`
	NotableCompanies []string `yaml:"notable_companies" json:"notable_companies,omitempty"`
	ExcludeKeywords  []string `yaml:"exclude_keywords" json:"exclude_keywords,omitempty"`
	Notes            string   `yaml:"notes" json:"notes,omitempty"`
}
