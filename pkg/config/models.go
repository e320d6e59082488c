package config

import "time"

const (
	DefaultInterface = "eth0"
	DefaultTimeout   = 10 * time.Second
)

type Config struct {
	Interface   string        `yaml:"interface"`
	MAC         string        `yaml:"mac,omitempty"`
	Hostname    string        `yaml:"hostname,omitempty"`
	Unicast     bool          `yaml:"unicast,omitempty"`
	Request     string        `yaml:"request,omitempty"`
	Type        string        `yaml:"type,omitempty"`
	Timeout     time.Duration `yaml:"timeout"`
	Netns       string        `yaml:"netns,omitempty"`
	Capture     string        `yaml:"capture,omitempty"`
	MetricsFile string        `yaml:"metrics_file,omitempty"`
	Verbose     int           `yaml:"verbose,omitempty"`
	Logging     Logging       `yaml:"logging"`
}

type Logging struct {
	Format     string            `yaml:"format"`
	Level      string            `yaml:"level,omitempty"`
	Components map[string]string `yaml:"components,omitempty"`
}
