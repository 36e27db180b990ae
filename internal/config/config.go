package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config models concord.yml.
type Config struct {
	Project struct {
		ID string `yaml:"id"`
	} `yaml:"project"`
	Detection  Detection  `yaml:"detection"`
	Resolution Resolution `yaml:"resolution"`
	Agreement  Agreement  `yaml:"agreement"`
}

// Detection holds the conflict-detection thresholds.
type Detection struct {
	OverlapThreshold    float64 `yaml:"overlap_threshold"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	ProximityWindow     int     `yaml:"proximity_window"`
}

// Resolution holds the resolution and escalation policy knobs.
type Resolution struct {
	AutoMergeEnabled          bool     `yaml:"auto_merge_enabled"`
	VotingThreshold           float64  `yaml:"voting_threshold"`
	ExpertAssignmentThreshold float64  `yaml:"expert_assignment_threshold"`
	MinimumVoterCount         int      `yaml:"minimum_voter_count"`
	ResolutionTimeout         Duration `yaml:"resolution_timeout"`
	MaxResolutionAttempts     int      `yaml:"max_resolution_attempts"`
	EscalationEnabled         bool     `yaml:"escalation_enabled"`
}

// Duration wraps time.Duration so YAML and JSON carry it as "72h" style
// strings.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Agreement holds the metric computation knobs.
type Agreement struct {
	// BootstrapIterations is the Krippendorff alpha resample count.
	BootstrapIterations int `yaml:"bootstrap_iterations"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; import with cc project config import --file <path>", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Project.ID == "" {
		return fmt.Errorf("config.project.id is required")
	}
	if c.Detection.OverlapThreshold < 0 || c.Detection.OverlapThreshold > 1 {
		return fmt.Errorf("config.detection.overlap_threshold must be in [0,1]")
	}
	if c.Detection.ConfidenceThreshold < 0 || c.Detection.ConfidenceThreshold > 1 {
		return fmt.Errorf("config.detection.confidence_threshold must be in [0,1]")
	}
	if c.Detection.ProximityWindow <= 0 {
		return fmt.Errorf("config.detection.proximity_window must be positive")
	}
	if c.Resolution.VotingThreshold <= 0 || c.Resolution.VotingThreshold > 1 {
		return fmt.Errorf("config.resolution.voting_threshold must be in (0,1]")
	}
	if c.Resolution.ExpertAssignmentThreshold < 0 || c.Resolution.ExpertAssignmentThreshold > 1 {
		return fmt.Errorf("config.resolution.expert_assignment_threshold must be in [0,1]")
	}
	if c.Resolution.MinimumVoterCount < 1 {
		return fmt.Errorf("config.resolution.minimum_voter_count must be at least 1")
	}
	if c.Resolution.ResolutionTimeout <= 0 {
		return fmt.Errorf("config.resolution.resolution_timeout must be positive")
	}
	if c.Resolution.MaxResolutionAttempts < 1 {
		return fmt.Errorf("config.resolution.max_resolution_attempts must be at least 1")
	}
	if c.Agreement.BootstrapIterations < 1 {
		return fmt.Errorf("config.agreement.bootstrap_iterations must be at least 1")
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "concord.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault(projectID string) string {
	return fmt.Sprintf(defaultTemplate, projectID)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the default Config struct for a project.
func Default(projectID string) *Config {
	var cfg Config
	cfg.Project.ID = projectID
	_ = yaml.NewDecoder(bytes.NewBufferString(fmt.Sprintf(defaultTemplate, projectID))).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `project:
  id: %s

detection:
  # minimum max(pct_a, pct_b) for a span-overlap candidate
  overlap_threshold: 0.1
  # candidates scored below this are discarded before persistence
  confidence_threshold: 0.3
  # pairwise scan stops once the gap between spans exceeds this many chars
  proximity_window: 100

resolution:
  auto_merge_enabled: true
  voting_threshold: 0.6
  expert_assignment_threshold: 0.8
  minimum_voter_count: 3
  resolution_timeout: 72h
  max_resolution_attempts: 3
  escalation_enabled: true

agreement:
  bootstrap_iterations: 1000
`
