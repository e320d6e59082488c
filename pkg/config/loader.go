package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/veesix-networks/checkdhcp/pkg/dhcp"
	"gopkg.in/yaml.v3"
	"inet.af/netaddr"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads path, applies defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg, err := Parse(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Parse reads path and applies defaults without validating, for callers that
// merge further settings before calling Validate.
func Parse(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Interface == "" {
		c.Interface = DefaultInterface
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

func (c *Config) Validate() error {
	if c.Interface == "" {
		return fmt.Errorf("interface must be set")
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}

	if c.Unicast && c.Hostname == "" {
		return fmt.Errorf("unicast requires hostname")
	}

	if c.MAC != "" {
		if _, err := ParseHardwareAddr(c.MAC); err != nil {
			return fmt.Errorf("mac: %w", err)
		}
	}

	if c.Request != "" {
		if _, err := parseIPv4(c.Request); err != nil {
			return fmt.Errorf("request: %w", err)
		}
	}

	if c.Type != "" {
		if _, err := dhcp.ParseMessageType(c.Type); err != nil {
			return fmt.Errorf("type: %w", err)
		}
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	return nil
}

// HardwareAddr returns the configured chaddr override, or nil when the
// interface address should be used.
func (c *Config) HardwareAddr() net.HardwareAddr {
	if c.MAC == "" {
		return nil
	}
	hw, err := ParseHardwareAddr(c.MAC)
	if err != nil {
		return nil
	}
	return hw
}

// RequestedIP returns nil when no address is requested.
func (c *Config) RequestedIP() net.IP {
	if c.Request == "" {
		return nil
	}
	ip, err := parseIPv4(c.Request)
	if err != nil {
		return nil
	}
	return ip
}

// ExpectedType is the reply that ends a probe successfully: the configured
// type, else Ack when an address is requested, else Offer.
func (c *Config) ExpectedType() dhcp.MessageType {
	if c.Type != "" {
		if t, err := dhcp.ParseMessageType(c.Type); err == nil {
			return t
		}
	}
	if c.Request != "" {
		return dhcp.Ack
	}
	return dhcp.Offer
}

// ParseHardwareAddr accepts 1 to 16 colon separated hex octets, the full
// width of the chaddr field.
func ParseHardwareAddr(s string) (net.HardwareAddr, error) {
	parts := strings.Split(s, ":")
	if len(parts) > 16 {
		return nil, fmt.Errorf("%q has more than 16 octets", s)
	}
	hw := make(net.HardwareAddr, 0, len(parts))
	for _, p := range parts {
		if len(p) == 0 || len(p) > 2 {
			return nil, fmt.Errorf("invalid octet %q in %q", p, s)
		}
		b, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid octet %q in %q", p, s)
		}
		hw = append(hw, byte(b))
	}
	return hw, nil
}

func parseIPv4(s string) (net.IP, error) {
	ip, err := netaddr.ParseIP(s)
	if err != nil {
		return nil, err
	}
	if !ip.Is4() {
		return nil, fmt.Errorf("%s is not an IPv4 address", s)
	}
	b := ip.As4()
	return net.IPv4(b[0], b[1], b[2], b[3]).To4(), nil
}
