package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/rgehrsitz/crp/internal/domain"
)

// EnvPrefix is the prefix for environment overrides, e.g. CRP_LOG_LEVEL.
const EnvPrefix = "CRP_"

// Settings are CLI preferences that sit outside the analysis document.
type Settings struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level"`
	// Format is the default output formatter name.
	Format string `json:"format"`
	// Parallelism bounds concurrent scenario runs; zero means GOMAXPROCS.
	Parallelism int `json:"parallelism"`
	// CRPMode overrides the document's crp_mode when set.
	CRPMode string `json:"crp_mode"`
	// OutputDir is where file-based formatters write; empty means stdout.
	OutputDir string `json:"output_dir"`
}

// SetDefaults applies sane defaults.
func (s *Settings) SetDefaults() {
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}
	if s.Format == "" {
		s.Format = "console"
	}
}

// Validate checks field values.
func (s Settings) Validate() error {
	switch strings.ToLower(s.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level %s", s.LogLevel)
	}
	if s.Parallelism < 0 {
		return fmt.Errorf("parallelism must be non-negative, got %d", s.Parallelism)
	}
	if s.CRPMode != "" && !domain.CRPMode(s.CRPMode).Valid() {
		return fmt.Errorf("unknown crp mode %s", s.CRPMode)
	}
	return nil
}

// ApplyTo overrides document financing with settings that take precedence.
func (s Settings) ApplyTo(f domain.FinancingParameters) domain.FinancingParameters {
	if s.CRPMode != "" {
		f.CRPMode = domain.CRPMode(s.CRPMode)
	}
	return f
}

// LoadSettings reads an optional settings file and then CRP_ environment overrides.
// An empty path skips the file.
func LoadSettings(path string) (*Settings, error) {
	k := koanf.New(".")
	if path != "" {
		var parser koanf.Parser
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported settings format: %s", filepath.Ext(path))
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("failed to load settings %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	var s Settings
	if err := k.UnmarshalWithConf("", &s, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	s.SetDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
