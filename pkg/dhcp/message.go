package dhcp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"strings"
)

const (
	HeaderLen    = 236
	CookieLen    = 4
	MaxOptionLen = 312

	// MaxMessageLen bounds a single receive.
	MaxMessageLen = HeaderLen + CookieLen + MaxOptionLen

	ServerPort = 67
	ClientPort = 68

	FlagBroadcast uint16 = 0x8000
	HTypeEthernet uint8  = 1
)

const (
	OpBootRequest uint8 = 1
	OpBootReply   uint8 = 2
)

var MagicCookie = [CookieLen]byte{0x63, 0x82, 0x53, 0x63}

var (
	ErrShortMessage = errors.New("message shorter than bootp header")
	ErrBadCookie    = errors.New("invalid magic cookie")
)

type MessageType uint8

const (
	Discover MessageType = 1
	Offer    MessageType = 2
	Request  MessageType = 3
	Decline  MessageType = 4
	Ack      MessageType = 5
	Nak      MessageType = 6
	Release  MessageType = 7
	Inform   MessageType = 8
)

func (mt MessageType) String() string {
	switch mt {
	case Discover:
		return "Discover"
	case Offer:
		return "Offer"
	case Request:
		return "Request"
	case Decline:
		return "Decline"
	case Ack:
		return "Ack"
	case Nak:
		return "Nak"
	case Release:
		return "Release"
	case Inform:
		return "Inform"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(mt))
	}
}

// ParseMessageType accepts the reply types a probe can wait for.
func ParseMessageType(s string) (MessageType, error) {
	switch strings.ToLower(s) {
	case "offer":
		return Offer, nil
	case "ack":
		return Ack, nil
	case "nak":
		return Nak, nil
	default:
		return 0, fmt.Errorf("unknown message type %q", s)
	}
}

// Message is a BOOTP/DHCP message. Addresses are always 4 bytes long.
type Message struct {
	Op     uint8
	HType  uint8
	HLen   uint8
	Hops   uint8
	XID    uint32
	Secs   uint16
	Flags  uint16
	CIAddr net.IP
	YIAddr net.IP
	SIAddr net.IP
	GIAddr net.IP
	CHAddr [16]byte
	SName  [64]byte
	File   [128]byte

	Options Options
}

func NewMessage(op uint8, xid uint32, hw net.HardwareAddr) *Message {
	m := &Message{
		Op:     op,
		HType:  HTypeEthernet,
		HLen:   uint8(len(hw)),
		XID:    xid,
		CIAddr: net.IPv4zero.To4(),
		YIAddr: net.IPv4zero.To4(),
		SIAddr: net.IPv4zero.To4(),
		GIAddr: net.IPv4zero.To4(),
	}
	copy(m.CHAddr[:], hw)
	return m
}

// ClientHWAddr returns the significant hlen bytes of chaddr.
func (m *Message) ClientHWAddr() net.HardwareAddr {
	n := int(m.HLen)
	if n > len(m.CHAddr) {
		n = len(m.CHAddr)
	}
	hw := make(net.HardwareAddr, n)
	copy(hw, m.CHAddr[:n])
	return hw
}

func (m *Message) ServerName() string { return cString(m.SName[:]) }

func (m *Message) BootFile() string { return cString(m.File[:]) }

func (m *Message) IsReply() bool { return m.Op == OpBootReply }

// Option returns the payload of the first option with the given code.
func (m *Message) Option(code OptionCode) ([]byte, bool) {
	return m.Options.Get(code)
}

// MessageType returns 0 when the option is absent or malformed.
func (m *Message) MessageType() MessageType {
	v, ok := m.Option(OptMessageType)
	if !ok || len(v) != 1 {
		return 0
	}
	return MessageType(v[0])
}

func (m *Message) ServerID() net.IP {
	v, ok := m.Option(OptServerID)
	if !ok || len(v) != 4 {
		return nil
	}
	return net.IP(append([]byte(nil), v...))
}

// Len is the on-wire size of the encoded message.
func (m *Message) Len() int {
	if len(m.Options) == 0 {
		return HeaderLen
	}
	return HeaderLen + CookieLen + m.Options.EncodedLen()
}

// Encode writes the header and, when options are present, the magic cookie and
// the End-terminated option list.
func (m *Message) Encode() []byte {
	buf := make([]byte, HeaderLen, m.Len())
	buf[0] = m.Op
	buf[1] = m.HType
	buf[2] = m.HLen
	buf[3] = m.Hops
	binary.BigEndian.PutUint32(buf[4:8], m.XID)
	binary.BigEndian.PutUint16(buf[8:10], m.Secs)
	binary.BigEndian.PutUint16(buf[10:12], m.Flags)
	putIPv4(buf[12:16], m.CIAddr)
	putIPv4(buf[16:20], m.YIAddr)
	putIPv4(buf[20:24], m.SIAddr)
	putIPv4(buf[24:28], m.GIAddr)
	copy(buf[28:44], m.CHAddr[:])
	copy(buf[44:108], m.SName[:])
	copy(buf[108:236], m.File[:])

	if len(m.Options) == 0 {
		return buf
	}
	buf = append(buf, MagicCookie[:]...)
	return append(buf, m.Options.Encode()...)
}

// Parse decodes a received message. A datagram carrying only the fixed header
// is valid BOOTP. Option validation follows the receive rules: the cookie must
// match and the option area must contain End.
func Parse(data []byte) (*Message, error) {
	if len(data) < HeaderLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortMessage, len(data))
	}

	m := ParseHeader(data)

	optlen := len(data) - HeaderLen - CookieLen
	if optlen <= 0 {
		return m, nil
	}

	if !bytes.Equal(data[HeaderLen:HeaderLen+CookieLen], MagicCookie[:]) {
		return nil, fmt.Errorf("%w: % x", ErrBadCookie, data[HeaderLen:HeaderLen+CookieLen])
	}

	opts, err := DecodeOptions(data[HeaderLen+CookieLen:])
	if err != nil {
		return nil, fmt.Errorf("parse options: %w", err)
	}
	m.Options = opts

	return m, nil
}

// ParseHeader decodes the fixed 236-byte header. data must be at least
// HeaderLen bytes.
func ParseHeader(data []byte) *Message {
	m := &Message{
		Op:     data[0],
		HType:  data[1],
		HLen:   data[2],
		Hops:   data[3],
		XID:    binary.BigEndian.Uint32(data[4:8]),
		Secs:   binary.BigEndian.Uint16(data[8:10]),
		Flags:  binary.BigEndian.Uint16(data[10:12]),
		CIAddr: copyIP(data[12:16]),
		YIAddr: copyIP(data[16:20]),
		SIAddr: copyIP(data[20:24]),
		GIAddr: copyIP(data[24:28]),
	}
	copy(m.CHAddr[:], data[28:44])
	copy(m.SName[:], data[44:108])
	copy(m.File[:], data[108:236])
	return m
}

func putIPv4(dst []byte, ip net.IP) {
	if v4 := ip.To4(); v4 != nil {
		copy(dst, v4)
	}
}

func copyIP(b []byte) net.IP {
	ip := make(net.IP, 4)
	copy(ip, b)
	return ip
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
