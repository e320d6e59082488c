// Package probe runs one DHCP transaction against a server and turns the
// outcome into a plugin result.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/veesix-networks/checkdhcp/internal/transport"
	"github.com/veesix-networks/checkdhcp/pkg/check"
	"github.com/veesix-networks/checkdhcp/pkg/dhcp"
	"github.com/veesix-networks/checkdhcp/pkg/logger"
)

type Config struct {
	Mode   transport.Mode
	HWAddr net.HardwareAddr
	// LocalIP is placed in giaddr in unicast mode.
	LocalIP net.IP

	// Hostname filters replies by server. HostAddrs are its resolved
	// addresses, matched against the server identifier option.
	Hostname  string
	HostAddrs []net.IP

	RequestIP net.IP
	// Expect is the reply type that ends the run. Zero derives it from the
	// request: Ack for a REQUEST, Offer for a DISCOVER.
	Expect dhcp.MessageType

	ReceiveWindow time.Duration

	// Dump receives a readable rendering of every accepted reply.
	Dump io.Writer
}

// ExpectedType is the reply type the run waits for.
func (c Config) ExpectedType() dhcp.MessageType {
	if c.Expect != 0 {
		return c.Expect
	}
	if c.RequestIP != nil {
		return dhcp.Ack
	}
	return dhcp.Offer
}

type Probe struct {
	cfg     Config
	conn    transport.LinkTransport
	log     *slog.Logger
	metrics *Metrics
	newXID  func() uint32
	now     func() time.Time
}

type Option func(*Probe)

func WithMetrics(m *Metrics) Option {
	return func(p *Probe) { p.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Probe) { p.log = l }
}

// WithXID fixes the transaction id instead of drawing a random one.
func WithXID(xid uint32) Option {
	return func(p *Probe) { p.newXID = func() uint32 { return xid } }
}

func New(cfg Config, conn transport.LinkTransport, opts ...Option) *Probe {
	p := &Probe{
		cfg:    cfg,
		conn:   conn,
		log:    logger.Get(logger.Probe),
		newXID: RandomXID,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run sends one request and waits for the expected reply until ctx expires.
func (p *Probe) Run(ctx context.Context) check.Result {
	start := p.now()
	res, replies := p.run(ctx)
	elapsed := p.now().Sub(start)

	res = res.WithPerfdata(
		check.Perfdata{Label: "time", Value: elapsed.Seconds(), Unit: "s", Min: check.Float(0)},
		check.Perfdata{Label: "replies", Value: float64(replies), Min: check.Float(0)},
	)
	p.metrics.Observe(res, elapsed)
	return res
}

func (p *Probe) run(ctx context.Context) (check.Result, int) {
	t := NewTransaction(p.newXID(), p.cfg.HWAddr)
	t.RequestedIP = p.cfg.RequestIP
	t.ReceiveWindow = p.cfg.ReceiveWindow
	t.log = p.log
	t.metrics = p.metrics
	if p.cfg.Mode == transport.ModeUnicast {
		t.GIAddr = p.cfg.LocalIP
	}

	req, err := t.Request()
	if err != nil {
		return check.Newf(check.Unknown, "Cannot build DHCP request: %v", err), 0
	}

	expect := p.cfg.ExpectedType()
	p.log.Info("Sending request",
		"xid", fmt.Sprintf("0x%08x", t.XID),
		"type", t.RequestType(),
		"expect", expect,
		"mode", p.cfg.Mode)

	if err := p.conn.Send(ctx, req); err != nil {
		p.log.Error("Send failed", "error", err)
		return check.Newf(check.Warning, "DHCP transport error: %v", err), 0
	}

	replies := 0
	for {
		reply, err := t.Receive(ctx, p.conn)
		if errors.Is(err, ErrNoReply) {
			break
		}
		if err != nil {
			p.log.Error("Receive failed", "error", err)
			return check.Newf(check.Warning, "DHCP transport error: %v", err), replies
		}

		replies++
		p.metrics.reply()
		if p.cfg.Dump != nil {
			dhcp.Dump(p.cfg.Dump, reply)
		}

		if !p.fromHost(reply) {
			p.log.Debug("Reply from other server", "server_id", reply.ServerID(), "sname", reply.ServerName())
			continue
		}

		if got := reply.MessageType(); got != expect {
			p.log.Debug("Reply of unexpected type", "type", got, "expect", expect)
			continue
		}

		return success(reply), replies
	}

	if p.cfg.Hostname != "" {
		return check.Newf(check.Critical, "Got no DHCP reply from %s", p.cfg.Hostname), replies
	}
	return check.Newf(check.Critical, "No DHCP %s received", expect), replies
}

// fromHost applies the hostname filter. The server identifier option is
// authoritative; sname is only consulted when it is absent.
func (p *Probe) fromHost(m *dhcp.Message) bool {
	if p.cfg.Hostname == "" {
		return true
	}
	if sid := m.ServerID(); sid != nil {
		for _, ip := range p.cfg.HostAddrs {
			if ip.Equal(sid) {
				return true
			}
		}
		return false
	}
	return m.ServerName() == p.cfg.Hostname
}

func success(m *dhcp.Message) check.Result {
	server := serverName(m)
	switch m.MessageType() {
	case dhcp.Offer:
		return check.Newf(check.OK, "Got offer for %s from %s", m.YIAddr, server)
	case dhcp.Ack:
		return check.Newf(check.OK, "Got ACK from %s", server)
	case dhcp.Nak:
		return check.Newf(check.OK, "Got NAK from %s", server)
	default:
		return check.Newf(check.OK, "Got %s from %s", m.MessageType(), server)
	}
}

func serverName(m *dhcp.Message) string {
	if s := m.ServerName(); s != "" {
		return s
	}
	if sid := m.ServerID(); sid != nil {
		return sid.String()
	}
	if m.SIAddr != nil && !m.SIAddr.IsUnspecified() {
		return m.SIAddr.String()
	}
	return "unknown server"
}
