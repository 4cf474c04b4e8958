package waterfall

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/course-intel/internal/model"
)

// Config is the contact waterfall configuration.
type Config struct {
	SuccessThreshold   int `yaml:"success_threshold"`
	MinEmailConfidence int `yaml:"min_email_confidence"`
	// MaxContacts caps the returned contacts; 0 keeps every accepted contact.
	MaxContacts int `yaml:"max_contacts"`
	// MaxCostUSD skips the remaining stages once a course has spent it; 0
	// leaves the cascade unbounded.
	MaxCostUSD   float64       `yaml:"max_cost_usd"`
	TargetTitles []string      `yaml:"target_titles"`
	Stages       []StageConfig `yaml:"stages"`
}

// StageConfig enables a stage in the cascade. Order in the file is the
// cascade order.
type StageConfig struct {
	Name     model.Source `yaml:"name"`
	Disabled bool         `yaml:"disabled"`
	// MaxPromotions caps email_finder lookups in the web_search stage.
	MaxPromotions int `yaml:"max_promotions,omitempty"`
}

// DefaultStageOrder is the cascade order used when no config file names one.
var DefaultStageOrder = []model.Source{
	model.SourceDirectory,
	model.SourceB2B,
	model.SourceDomainEmail,
	model.SourceWebSearch,
	model.SourceLLMResearch,
}

// DefaultConfig returns the built-in waterfall configuration.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig reads waterfall config from a YAML file with a top-level
// "waterfall" key. Unset values take their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "waterfall: read config %s", path)
	}

	var wrapper struct {
		Waterfall Config `yaml:"waterfall"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "waterfall: parse config")
	}

	cfg := &wrapper.Waterfall
	for _, sc := range cfg.Stages {
		if !knownStage(sc.Name) {
			return nil, eris.Errorf("waterfall: unknown stage %q", sc.Name)
		}
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = 2
	}
	if c.MinEmailConfidence <= 0 {
		c.MinEmailConfidence = model.MinCountedConfidence
	}
	if c.MaxCostUSD < 0 {
		c.MaxCostUSD = 0
	}
	if c.MaxContacts < 0 {
		c.MaxContacts = 0
	}
	if len(c.TargetTitles) == 0 {
		c.TargetTitles = append([]string(nil), model.DecisionMakerTitles...)
	}
	if len(c.Stages) == 0 {
		for _, name := range DefaultStageOrder {
			c.Stages = append(c.Stages, StageConfig{Name: name})
		}
	}
	for i := range c.Stages {
		if c.Stages[i].Name == model.SourceWebSearch && c.Stages[i].MaxPromotions <= 0 {
			c.Stages[i].MaxPromotions = 4
		}
	}
}

// Stage returns the config for a stage and whether it is enabled.
func (c *Config) Stage(name model.Source) (StageConfig, bool) {
	for _, sc := range c.Stages {
		if sc.Name == name {
			return sc, !sc.Disabled
		}
	}
	return StageConfig{Name: name}, false
}

func knownStage(name model.Source) bool {
	for _, s := range DefaultStageOrder {
		if s == name {
			return true
		}
	}
	return false
}
