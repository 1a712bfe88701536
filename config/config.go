package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the runtime settings of the firewall process. The packet
// filtering rules themselves live in a separate rules file, see LoadRules.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Firewall FirewallConfig `yaml:"firewall"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type PipelineConfig struct {
	// Input is the path of the endpoint packets are read from.
	Input string `yaml:"input"`
	// Output is the path of the endpoint allowed packets are written to.
	Output string `yaml:"output"`
	// CreatePipes creates the input/output named pipes when they do not
	// already exist.
	CreatePipes bool `yaml:"create_pipes"`
	// MaxPacket bounds the declared length of a single packet on the
	// wire. Anything larger fails the read instead of growing the buffer.
	MaxPacket int `yaml:"max_packet"`
}

type FirewallConfig struct {
	// Rules is the path of the filtering rules file.
	Rules string `yaml:"rules"`
	// Mode is the initial enforcement mode: "filter", "block_all" or
	// "allow_all".
	Mode string `yaml:"mode"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

var (
	defaultPipeline = PipelineConfig{
		Input:       "ToFirewall",
		Output:      "FromFirewall",
		CreatePipes: true,
		MaxPacket:   65535,
	}

	defaultFirewall = FirewallConfig{
		Rules: "",
		Mode:  "filter",
	}

	defaultLogging = LoggingConfig{
		Level: "info",
	}
)

// Default returns a Config populated with the default settings.
func Default() *Config {
	return &Config{
		Pipeline: defaultPipeline,
		Firewall: defaultFirewall,
		Logging:  defaultLogging,
	}
}

// Load reads a YAML settings file on top of the defaults.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse settings file %s: %w", filename, err)
	}

	return cfg, nil
}
