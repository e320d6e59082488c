package probe

import (
	"bytes"
	"context"
	"errors"
	"net"
	"os"
	"time"

	"github.com/veesix-networks/checkdhcp/internal/transport"
	"github.com/veesix-networks/checkdhcp/pkg/dhcp"
)

var ErrNoReply = errors.New("no reply received")

const (
	discardShort   = "short"
	discardOp      = "op"
	discardXID     = "xid"
	discardCookie  = "cookie"
	discardOptions = "options"
)

// Receive waits for the next datagram that is a well-formed reply to this
// transaction. Anything else is dropped and the wait continues. It returns
// ErrNoReply when the receive window or ctx expires first.
func (t *Transaction) Receive(ctx context.Context, conn transport.LinkTransport) (*dhcp.Message, error) {
	buf := make([]byte, dhcp.MaxMessageLen)

	window := t.ReceiveWindow
	if window <= 0 {
		window = DefaultReceiveWindow
	}
	deadline := time.Now().Add(window)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}

	for {
		if ctx.Err() != nil {
			return nil, ErrNoReply
		}
		if err := conn.SetReadDeadline(deadline); err != nil {
			return nil, &transport.TransportError{Kind: transport.KindReceive, Op: "set read deadline", Err: err}
		}

		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			if isTimeout(err) {
				return nil, ErrNoReply
			}
			return nil, &transport.TransportError{Kind: transport.KindReceive, Op: "receive", Err: err}
		}

		m, reason := t.validate(buf[:n])
		if reason != "" {
			t.log.Debug("Discarding datagram", "reason", reason, "from", from, "len", n)
			t.metrics.discard(reason)
			continue
		}

		t.log.Debug("Accepted reply", "from", from, "len", n, "type", m.MessageType())
		return m, nil
	}
}

// validate applies the acceptance checks in order: op, xid, cookie, then the
// option area must reach End.
func (t *Transaction) validate(data []byte) (*dhcp.Message, string) {
	if len(data) < dhcp.HeaderLen {
		return nil, discardShort
	}

	hdr := dhcp.ParseHeader(data)
	if hdr.Op != dhcp.OpBootReply {
		return nil, discardOp
	}
	if hdr.XID != t.XID {
		return nil, discardXID
	}

	if len(data) > dhcp.HeaderLen+dhcp.CookieLen {
		if !bytes.Equal(data[dhcp.HeaderLen:dhcp.HeaderLen+dhcp.CookieLen], dhcp.MagicCookie[:]) {
			return nil, discardCookie
		}
	}

	m, err := dhcp.Parse(data)
	switch {
	case errors.Is(err, dhcp.ErrBadCookie):
		return nil, discardCookie
	case err != nil:
		return nil, discardOptions
	}
	return m, ""
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
