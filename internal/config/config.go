package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/prguard/prguard/internal/errors"
)

// DefaultConfigFile is the per-repository configuration file name.
const DefaultConfigFile = ".prguard.yml"

// WhenCondition is a guardrail rule's activation condition. Conditions
// form a closed set; anything else is rejected at load time rather
// than silently never matching.
type WhenCondition string

const (
	WhenAlways     WhenCondition = ""
	WhenAIAuthored WhenCondition = "ai_authored"
)

// GuardrailRule is one repository rule from .prguard.yml.
type GuardrailRule struct {
	Name             string        `mapstructure:"name" yaml:"name"`
	Pattern          string        `mapstructure:"pattern" yaml:"pattern,omitempty"` // File glob
	CannotImportFrom []string      `mapstructure:"cannot_import_from" yaml:"cannot_import_from,omitempty"`
	MustNotContain   []string      `mapstructure:"must_not_contain" yaml:"must_not_contain,omitempty"`
	When             WhenCondition `mapstructure:"when" yaml:"when,omitempty"`
	MaxFilesChanged  *int          `mapstructure:"max_files_changed" yaml:"max_files_changed,omitempty"`
	MaxLinesChanged  *int          `mapstructure:"max_lines_changed" yaml:"max_lines_changed,omitempty"`
	Message          string        `mapstructure:"message" yaml:"message,omitempty"`
}

type GitHubConfig struct {
	Owner     string `mapstructure:"owner" yaml:"owner,omitempty"`
	Repo      string `mapstructure:"repo" yaml:"repo,omitempty"`
	Token     string `mapstructure:"token" yaml:"token,omitempty"`
	RateLimit int    `mapstructure:"rate_limit" yaml:"rate_limit"` // Requests per second
}

type LedgerConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type CacheConfig struct {
	Directory string        `mapstructure:"directory" yaml:"directory"`
	TTL       time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

type LLMConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Model   string `mapstructure:"model" yaml:"model"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url,omitempty"`
}

// Config holds all settings.
type Config struct {
	RiskThreshold     int             `mapstructure:"risk_threshold" yaml:"risk_threshold"`
	CheckRegressions  bool            `mapstructure:"check_regressions" yaml:"check_regressions"`
	MaxOpenPRs        int             `mapstructure:"max_open_prs" yaml:"max_open_prs"`
	DecisionsLogDepth int             `mapstructure:"decisions_log_depth" yaml:"decisions_log_depth"`
	Workers           int             `mapstructure:"workers" yaml:"workers"`
	IgnoredPaths      []string        `mapstructure:"ignored_paths" yaml:"ignored_paths"`
	Rules             []GuardrailRule `mapstructure:"rules" yaml:"rules,omitempty"`

	GitHub GitHubConfig `mapstructure:"github" yaml:"github"`
	Ledger LedgerConfig `mapstructure:"ledger" yaml:"ledger"`
	Cache  CacheConfig  `mapstructure:"cache" yaml:"cache"`
	LLM    LLMConfig    `mapstructure:"llm" yaml:"llm"`
}

// Default returns the default configuration.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		RiskThreshold:     50,
		CheckRegressions:  true,
		MaxOpenPRs:        30,
		DecisionsLogDepth: 50,
		Workers:           4,
		IgnoredPaths: []string{
			"*.lock",
			"*.min.js",
			"*.min.css",
			"package-lock.json",
			"yarn.lock",
			"pnpm-lock.yaml",
			"poetry.lock",
		},
		GitHub: GitHubConfig{
			RateLimit: 10,
		},
		Ledger: LedgerConfig{
			Path: filepath.Join(homeDir, ".prguard", "decisions.db"),
		},
		Cache: CacheConfig{
			Directory: filepath.Join(homeDir, ".prguard", "cache"),
			TTL:       24 * time.Hour,
		},
		LLM: LLMConfig{
			Enabled: false,
			Model:   "gpt-4o-mini",
		},
	}
}

// Load reads configuration from a YAML file, environment variables and
// .env files. A missing config file is fine; defaults apply.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	v.SetDefault("risk_threshold", cfg.RiskThreshold)
	v.SetDefault("check_regressions", cfg.CheckRegressions)
	v.SetDefault("max_open_prs", cfg.MaxOpenPRs)
	v.SetDefault("decisions_log_depth", cfg.DecisionsLogDepth)
	v.SetDefault("workers", cfg.Workers)
	v.SetDefault("ignored_paths", cfg.IgnoredPaths)
	v.SetDefault("github", cfg.GitHub)
	v.SetDefault("ledger", cfg.Ledger)
	v.SetDefault("cache", cfg.Cache)
	v.SetDefault("llm", cfg.LLM)

	v.SetEnvPrefix("PRGUARD")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(".prguard")
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".prguard"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityCritical, "failed to read config")
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityCritical, "failed to unmarshal config")
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects malformed settings up front, before any analysis
// runs against them.
func (c *Config) Validate() error {
	if c.RiskThreshold < 0 || c.RiskThreshold > 100 {
		return errors.ValidationErrorf("risk_threshold must be in [0,100], got %d", c.RiskThreshold)
	}
	if c.MaxOpenPRs <= 0 {
		return errors.ValidationErrorf("max_open_prs must be positive, got %d", c.MaxOpenPRs)
	}
	if c.DecisionsLogDepth <= 0 {
		return errors.ValidationErrorf("decisions_log_depth must be positive, got %d", c.DecisionsLogDepth)
	}
	if c.Workers <= 0 {
		return errors.ValidationErrorf("workers must be positive, got %d", c.Workers)
	}
	for _, pattern := range c.IgnoredPaths {
		if _, err := doublestar.Match(pattern, "x"); err != nil {
			return errors.ValidationErrorf("invalid ignored_paths glob %q", pattern)
		}
	}
	for _, rule := range c.Rules {
		if rule.Name == "" {
			return errors.ValidationError("guardrail rule missing name")
		}
		switch rule.When {
		case WhenAlways, WhenAIAuthored:
		default:
			return errors.ValidationErrorf("guardrail rule %q: unknown when condition %q", rule.Name, rule.When)
		}
		if rule.Pattern != "" {
			if _, err := doublestar.Match(rule.Pattern, "x"); err != nil {
				return errors.ValidationErrorf("guardrail rule %q: invalid glob %q", rule.Name, rule.Pattern)
			}
		}
	}
	return nil
}

// IsIgnored reports whether a path matches any ignored_paths glob.
// Globs match against both the full path and the base name so that
// bare patterns like "*.lock" catch files in subdirectories.
func (c *Config) IsIgnored(path string) bool {
	for _, pattern := range c.IgnoredPaths {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, filepath.Base(path)); ok {
			return true
		}
	}
	return false
}

// loadEnvFiles loads .env files in order of precedence.
func loadEnvFiles() {
	envFiles := []string{
		".env.local",
		".env",
	}
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			godotenv.Load(file)
		}
	}
	homeDir, _ := os.UserHomeDir()
	homeEnvFile := filepath.Join(homeDir, ".prguard", ".env")
	if _, err := os.Stat(homeEnvFile); err == nil {
		godotenv.Load(homeEnvFile)
	}
}

// applyEnvOverrides applies environment variable overrides.
// Precedence: env var, then OS keychain, then config file.
func applyEnvOverrides(cfg *Config) {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		cfg.GitHub.Token = token
	} else if cfg.GitHub.Token == "" {
		km := NewKeyringManager()
		if token, err := km.GetGitHubToken(); err == nil && token != "" {
			cfg.GitHub.Token = token
		}
	}
	if rateLimit := os.Getenv("GITHUB_RATE_LIMIT"); rateLimit != "" {
		if rate, err := strconv.Atoi(rateLimit); err == nil {
			cfg.GitHub.RateLimit = rate
		}
	}
	if repo := os.Getenv("GITHUB_REPOSITORY"); repo != "" {
		// Actions-style "owner/repo"
		if owner, name, ok := splitRepo(repo); ok {
			cfg.GitHub.Owner = owner
			cfg.GitHub.Repo = name
		}
	}

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	} else if cfg.LLM.APIKey == "" {
		km := NewKeyringManager()
		if key, err := km.GetAPIKey(); err == nil && key != "" {
			cfg.LLM.APIKey = key
		}
	}
	if model := os.Getenv("PRGUARD_LLM_MODEL"); model != "" {
		cfg.LLM.Model = model
	}
	if url := os.Getenv("PRGUARD_LLM_BASE_URL"); url != "" {
		cfg.LLM.BaseURL = url
	}

	if path := os.Getenv("PRGUARD_LEDGER_PATH"); path != "" {
		cfg.Ledger.Path = expandPath(path)
	}
	if dir := os.Getenv("PRGUARD_CACHE_DIR"); dir != "" {
		cfg.Cache.Directory = expandPath(dir)
	}
}

func splitRepo(full string) (owner, name string, ok bool) {
	for i := 0; i < len(full); i++ {
		if full[i] == '/' {
			return full[:i], full[i+1:], i > 0 && i < len(full)-1
		}
	}
	return "", "", false
}

// expandPath expands ~ to the home directory.
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	v.Set("risk_threshold", c.RiskThreshold)
	v.Set("check_regressions", c.CheckRegressions)
	v.Set("max_open_prs", c.MaxOpenPRs)
	v.Set("decisions_log_depth", c.DecisionsLogDepth)
	v.Set("workers", c.Workers)
	v.Set("ignored_paths", c.IgnoredPaths)
	v.Set("rules", c.Rules)
	v.Set("github", c.GitHub)
	v.Set("ledger", c.Ledger)
	v.Set("cache", c.Cache)
	v.Set("llm", c.LLM)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityCritical, "failed to create config directory")
	}
	if err := v.WriteConfigAs(path); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityCritical, "failed to write config")
	}
	return nil
}
