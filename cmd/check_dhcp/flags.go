package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/veesix-networks/checkdhcp/pkg/config"
)

type options struct {
	configPath string
	version    bool

	hostname    string
	iface       string
	mac         string
	unicast     bool
	broadcast   bool
	request     string
	msgType     string
	timeout     int
	verbose     countFlag
	netns       string
	capture     string
	metricsFile string
	logFormat   string
	logLevel    string

	set map[string]bool
}

// countFlag counts repeated boolean flags such as -v -v.
type countFlag int

func (c *countFlag) String() string   { return strconv.Itoa(int(*c)) }
func (c *countFlag) IsBoolFlag() bool { return true }

func (c *countFlag) Set(s string) error {
	if s == "true" {
		*c++
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid verbosity %q", s)
	}
	*c = countFlag(n)
	return nil
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	o := &options{}
	fs := flag.NewFlagSet("check_dhcp", flag.ContinueOnError)
	fs.SetOutput(stderr)

	str := func(p *string, short, long, value, usage string) {
		if short != "" {
			fs.StringVar(p, short, value, usage)
		}
		fs.StringVar(p, long, value, usage)
	}
	boolean := func(p *bool, short, long, usage string) {
		fs.BoolVar(p, short, false, usage)
		fs.BoolVar(p, long, false, usage)
	}

	str(&o.configPath, "c", "config", "", "Path to a YAML configuration file")
	str(&o.hostname, "H", "hostname", "", "DHCP server to expect replies from")
	str(&o.iface, "i", "interface", config.DefaultInterface, "Interface to probe on")
	str(&o.mac, "m", "mac", "", "Client hardware address to send instead of the interface address")
	str(&o.request, "r", "request", "", "Request this IPv4 address with a DHCPREQUEST")
	str(&o.msgType, "T", "type", "", "Reply type to wait for: offer, ack or nak")
	str(&o.netns, "", "netns", "", "Network namespace to probe from")
	str(&o.capture, "", "capture", "", "Write sent and received packets to this pcap file")
	str(&o.metricsFile, "", "metrics-file", "", "Write probe metrics to this textfile collector file")
	str(&o.logFormat, "", "log-format", "text", "Log format on stderr: text or json")
	str(&o.logLevel, "", "log-level", "", "Log level, overrides -v")

	boolean(&o.unicast, "u", "unicast", "Send a relayed unicast request to the host")
	boolean(&o.broadcast, "b", "broadcast", "Send a broadcast request (default)")
	boolean(&o.version, "V", "version", "Print version and exit")

	timeoutSecs := int(config.DefaultTimeout / time.Second)
	fs.IntVar(&o.timeout, "t", timeoutSecs, "Plugin timeout in seconds")
	fs.IntVar(&o.timeout, "timeout", timeoutSecs, "Plugin timeout in seconds")
	fs.Var(&o.verbose, "v", "Increase verbosity, repeatable")
	fs.Var(&o.verbose, "verbose", "Increase verbosity, repeatable")

	if err := fs.Parse(expandVerbose(args)); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}

	aliases := map[string]string{
		"c": "config", "H": "hostname", "i": "interface", "m": "mac",
		"r": "request", "T": "type", "u": "unicast", "b": "broadcast",
		"t": "timeout", "v": "verbose", "V": "version",
	}
	o.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		name := f.Name
		if long, ok := aliases[name]; ok {
			name = long
		}
		o.set[name] = true
	})

	return o, nil
}

// expandVerbose splits bundled -vv style runs into separate -v flags, which
// the flag package does not accept. Arguments after "--" are left alone.
func expandVerbose(args []string) []string {
	out := make([]string, 0, len(args))
	for i, a := range args {
		if a == "--" {
			return append(out, args[i:]...)
		}
		if len(a) > 2 && a[0] == '-' && strings.Trim(a[1:], "v") == "" {
			for range a[1:] {
				out = append(out, "-v")
			}
			continue
		}
		out = append(out, a)
	}
	return out
}

// apply overrides cfg with every flag given on the command line.
func (o *options) apply(cfg *config.Config) {
	if o.set["hostname"] {
		cfg.Hostname = o.hostname
	}
	if o.set["interface"] {
		cfg.Interface = o.iface
	}
	if o.set["mac"] {
		cfg.MAC = o.mac
	}
	if o.set["unicast"] && o.unicast {
		cfg.Unicast = true
	}
	if o.set["broadcast"] && o.broadcast {
		cfg.Unicast = false
	}
	if o.set["request"] {
		cfg.Request = o.request
	}
	if o.set["type"] {
		cfg.Type = o.msgType
	}
	if o.set["timeout"] {
		cfg.Timeout = time.Duration(o.timeout) * time.Second
	}
	if o.set["verbose"] {
		cfg.Verbose = int(o.verbose)
	}
	if o.set["netns"] {
		cfg.Netns = o.netns
	}
	if o.set["capture"] {
		cfg.Capture = o.capture
	}
	if o.set["metrics-file"] {
		cfg.MetricsFile = o.metricsFile
	}
	if o.set["log-format"] {
		cfg.Logging.Format = o.logFormat
	}
	if o.set["log-level"] {
		cfg.Logging.Level = o.logLevel
	}
}
