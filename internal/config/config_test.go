package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeFile(t, "config.yaml", `
api:
  base_url: https://offers.example.com/job-offers
  days: 3
  max_pages: 10
  min_delay: 100ms
profile_path: me.json
matching:
  batch_size: 10
  concurrency: 4
ai:
  provider: openai
  model: gpt-4o-mini
  api_key: secret
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.API.BaseURL != "https://offers.example.com/job-offers" {
		t.Errorf("API.BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.Days != 3 || cfg.API.MaxPages != 10 {
		t.Errorf("API days/max_pages = %d/%d, want 3/10", cfg.API.Days, cfg.API.MaxPages)
	}
	if cfg.API.MinDelay != 100*time.Millisecond {
		t.Errorf("API.MinDelay = %v, want 100ms", cfg.API.MinDelay)
	}
	if cfg.ProfilePath != "me.json" {
		t.Errorf("ProfilePath = %q, want me.json", cfg.ProfilePath)
	}
	if cfg.Matching.BatchSize != 10 || cfg.Matching.Concurrency != 4 {
		t.Errorf("Matching = %+v", cfg.Matching)
	}
	if cfg.AI.BaseURL != defaultOpenAIBaseURL {
		t.Errorf("AI.BaseURL = %q, want default openai url", cfg.AI.BaseURL)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeFile(t, "config.yaml", `
ai:
  api_key: secret
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.API.Days != 7 {
		t.Errorf("API.Days = %d, want 7", cfg.API.Days)
	}
	if cfg.API.Retry.MaxAttempts != 3 || cfg.API.Retry.BaseDelay != time.Second || cfg.API.Retry.Multiplier != 2 {
		t.Errorf("API.Retry = %+v", cfg.API.Retry)
	}
	if cfg.Matching.BatchSize != 25 {
		t.Errorf("Matching.BatchSize = %d, want 25", cfg.Matching.BatchSize)
	}
	if cfg.AI.Provider != "gemini" || cfg.AI.Model != defaultGeminiModel {
		t.Errorf("AI = %+v, want gemini defaults", cfg.AI)
	}
	if cfg.Store.Path != "data/matches.json" {
		t.Errorf("Store.Path = %q", cfg.Store.Path)
	}
	if cfg.Matching.DebugDir != "data/debug" {
		t.Errorf("Matching.DebugDir = %q", cfg.Matching.DebugDir)
	}
	if cfg.Store.LedgerPath != "data/runs.db" || cfg.Store.LedgerRetention != 90*24*time.Hour {
		t.Errorf("Store = %+v", cfg.Store)
	}
}

func TestLoad_ZeroDaysIsAllowed(t *testing.T) {
	path := writeFile(t, "config.yaml", `
api:
  days: 0
ai:
  api_key: secret
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.Days != 0 {
		t.Errorf("API.Days = %d, want 0", cfg.API.Days)
	}
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("OFFERRADAR_TEST_KEY", "from-env")
	path := writeFile(t, "config.yaml", `
ai:
  api_key: ${OFFERRADAR_TEST_KEY}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AI.APIKey != "from-env" {
		t.Errorf("AI.APIKey = %q, want from-env", cfg.AI.APIKey)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err == nil {
		t.Fatal("Load: expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeFile(t, "bad.yaml", "api: [broken")
	_, err := Load(path)
	if err == nil {
		t.Fatal("Load: expected error for invalid YAML")
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := map[string]string{
		"negative retention": `
store:
  ledger_retention: -1h
ai:
  api_key: k
`,
		"negative days": `
api:
  days: -1
ai:
  api_key: k
`,
		"batch too large": `
matching:
  batch_size: 500
ai:
  api_key: k
`,
		"unknown provider": `
ai:
  provider: llama
  model: x
  api_key: k
`,
		"slack without webhook": `
ai:
  api_key: k
notification:
  type: slack
`,
		"bad duration": `
api:
  timeout: soon
ai:
  api_key: k
`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, "config.yaml", content)
			if _, err := Load(path); err == nil {
				t.Fatal("Load: expected validation error")
			}
		})
	}
}

func TestRequireAI(t *testing.T) {
	path := writeFile(t, "config.yaml", "ai:\n  provider: gemini\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load without api key: %v", err)
	}
	if err := cfg.RequireAI(); err == nil {
		t.Error("RequireAI: expected error without api key")
	}

	cfg.AI.APIKey = "k"
	if err := cfg.RequireAI(); err != nil {
		t.Errorf("RequireAI: %v", err)
	}
}

func TestLoadProfile_JSONAndYAML(t *testing.T) {
	jsonPath := writeFile(t, "profile.json", `{"name":"Ana","skills":["QA automation","Playwright"],"notable_companies":["BCP"]}`)
	p, err := LoadProfile(jsonPath)
	if err != nil {
		t.Fatalf("LoadProfile json: %v", err)
	}
	if p.Name != "Ana" || len(p.Skills) != 2 || p.NotableCompanies[0] != "BCP" {
		t.Errorf("profile = %+v", p)
	}

	yamlPath := writeFile(t, "profile.yaml", "headline: Senior QA\nexclude_keywords: [junior]\n")
	p, err = LoadProfile(yamlPath)
	if err != nil {
		t.Fatalf("LoadProfile yaml: %v", err)
	}
	if p.Headline != "Senior QA" || p.ExcludeKeywords[0] != "junior" {
		t.Errorf("profile = %+v", p)
	}
}

func TestLoadProfile_Empty(t *testing.T) {
	path := writeFile(t, "profile.yaml", "name: nobody\n")
	if _, err := LoadProfile(path); err == nil {
		t.Fatal("LoadProfile: expected error for profile without criteria")
	}
}
