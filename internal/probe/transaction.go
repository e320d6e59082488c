package probe

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/veesix-networks/checkdhcp/pkg/dhcp"
	"github.com/veesix-networks/checkdhcp/pkg/logger"
)

// ClassID is sent in the vendor class option of every request.
const ClassID = "check_dhcp"

// DefaultReceiveWindow bounds a single wait for a reply.
const DefaultReceiveWindow = 5 * time.Second

// Transaction is the state of one request/reply exchange. A new one is
// created for every run.
type Transaction struct {
	XID    uint32
	HWAddr net.HardwareAddr

	// RequestedIP turns the request into a DHCPREQUEST for that address.
	RequestedIP net.IP
	// GIAddr is set when probing as a relay.
	GIAddr net.IP

	ReceiveWindow time.Duration

	log     *slog.Logger
	metrics *Metrics
}

func NewTransaction(xid uint32, hw net.HardwareAddr) *Transaction {
	return &Transaction{
		XID:           xid,
		HWAddr:        hw,
		ReceiveWindow: DefaultReceiveWindow,
		log:           logger.Get(logger.Probe),
	}
}

// RandomXID draws a transaction id from crypto/rand.
func RandomXID() uint32 {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return uint32(time.Now().UnixNano())
	}
	return binary.BigEndian.Uint32(b[:])
}

// RequestType is the message type the transaction sends.
func (t *Transaction) RequestType() dhcp.MessageType {
	if t.RequestedIP != nil {
		return dhcp.Request
	}
	return dhcp.Discover
}

// Request builds the outbound message.
func (t *Transaction) Request() (*dhcp.Message, error) {
	if len(t.HWAddr) == 0 || len(t.HWAddr) > 16 {
		return nil, fmt.Errorf("client hardware address must be 1-16 bytes, got %d", len(t.HWAddr))
	}

	m := dhcp.NewMessage(dhcp.OpBootRequest, t.XID, t.HWAddr)
	m.Hops = 1
	m.Flags = dhcp.FlagBroadcast
	if t.GIAddr != nil {
		m.GIAddr = t.GIAddr.To4()
	}

	if t.RequestedIP != nil {
		if err := m.Options.AppendValue(dhcp.RequestedIP(t.RequestedIP)); err != nil {
			return nil, err
		}
	}
	if err := m.Options.AppendValue(dhcp.MessageTypeValue(t.RequestType())); err != nil {
		return nil, err
	}
	if err := m.Options.AppendValue(dhcp.Class(ClassID)); err != nil {
		return nil, err
	}

	return m, nil
}
