package dhcp

import (
	"bytes"
	"encoding/binary"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMAC = net.HardwareAddr{0x02, 0x00, 0x5e, 0x10, 0x20, 0x30}

func TestMessageEncode_Layout(t *testing.T) {
	m := NewMessage(OpBootRequest, 0x11223344, testMAC)
	m.Hops = 1
	m.Flags = FlagBroadcast
	m.GIAddr = net.IPv4(192, 0, 2, 7)
	require.NoError(t, m.Options.AppendValue(MessageTypeValue(Discover)))

	buf := m.Encode()
	require.Len(t, buf, HeaderLen+CookieLen+4)

	assert.Equal(t, OpBootRequest, buf[0])
	assert.Equal(t, HTypeEthernet, buf[1])
	assert.Equal(t, uint8(6), buf[2])
	assert.Equal(t, uint8(1), buf[3])
	assert.Equal(t, uint32(0x11223344), binary.BigEndian.Uint32(buf[4:8]))
	assert.Equal(t, FlagBroadcast, binary.BigEndian.Uint16(buf[10:12]))
	assert.Equal(t, []byte{192, 0, 2, 7}, buf[24:28])
	assert.Equal(t, []byte(testMAC), buf[28:34])
	assert.Equal(t, MagicCookie[:], buf[236:240])
	assert.Equal(t, []byte{53, 1, 1, 255}, buf[240:])
}

func TestMessageEncode_NoOptionsOmitsCookie(t *testing.T) {
	m := NewMessage(OpBootRequest, 1, testMAC)
	buf := m.Encode()
	require.Len(t, buf, HeaderLen)
	assert.Equal(t, HeaderLen, m.Len())
}

func TestParse_RoundTrip(t *testing.T) {
	m := NewMessage(OpBootReply, 0xdeadbeef, testMAC)
	m.YIAddr = net.IPv4(192, 0, 2, 42)
	m.SIAddr = net.IPv4(192, 0, 2, 1)
	copy(m.SName[:], "dhcp1.example.net")
	copy(m.File[:], "pxelinux.0")
	require.NoError(t, m.Options.AppendValue(MessageTypeValue(Offer)))
	require.NoError(t, m.Options.AppendValue(ServerID(net.IPv4(192, 0, 2, 1))))

	got, err := Parse(m.Encode())
	require.NoError(t, err)

	assert.True(t, got.IsReply())
	assert.Equal(t, uint32(0xdeadbeef), got.XID)
	assert.Equal(t, "192.0.2.42", got.YIAddr.String())
	assert.Equal(t, "dhcp1.example.net", got.ServerName())
	assert.Equal(t, "pxelinux.0", got.BootFile())
	assert.Equal(t, testMAC, got.ClientHWAddr())
	assert.Equal(t, Offer, got.MessageType())
	assert.Equal(t, "192.0.2.1", got.ServerID().String())
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse(make([]byte, 100))
	assert.ErrorIs(t, err, ErrShortMessage)

	m := NewMessage(OpBootReply, 1, testMAC)
	require.NoError(t, m.Options.Append(OptMessageType, []byte{byte(Offer)}))
	buf := m.Encode()

	bad := bytes.Clone(buf)
	bad[236] = 0x00
	_, err = Parse(bad)
	assert.ErrorIs(t, err, ErrBadCookie)

	noEnd := bytes.Clone(buf[:len(buf)-1])
	_, err = Parse(noEnd)
	assert.ErrorIs(t, err, ErrMalformedOptions)
}

func TestParse_HeaderOnly(t *testing.T) {
	m := NewMessage(OpBootReply, 7, testMAC)
	got, err := Parse(m.Encode())
	require.NoError(t, err)
	assert.Empty(t, got.Options)
	assert.Equal(t, MessageType(0), got.MessageType())
	assert.Nil(t, got.ServerID())

	// Cookie without any option bytes is treated as an empty option area.
	got, err = Parse(append(m.Encode(), MagicCookie[:]...))
	require.NoError(t, err)
	assert.Empty(t, got.Options)
}

func TestParseMessageType(t *testing.T) {
	for in, want := range map[string]MessageType{"offer": Offer, "ACK": Ack, "Nak": Nak} {
		got, err := ParseMessageType(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseMessageType("inform")
	assert.Error(t, err)
}

func TestDump(t *testing.T) {
	m := NewMessage(OpBootReply, 7, testMAC)
	m.YIAddr = net.IPv4(192, 0, 2, 42)
	require.NoError(t, m.Options.AppendValue(MessageTypeValue(Ack)))
	require.NoError(t, m.Options.AppendValue(Router{net.IPv4(192, 0, 2, 1)}))
	require.NoError(t, m.Options.Append(43, []byte{1, 2}))

	var sb strings.Builder
	Dump(&sb, m)
	out := sb.String()

	assert.True(t, strings.HasPrefix(out, "[DHCP Ack]\n"))
	assert.Contains(t, out, " Your Addr:   192.0.2.42\n")
	assert.Contains(t, out, " Client MAC:  02:00:5e:10:20:30\n")
	assert.Contains(t, out, "  [Router] 192.0.2.1\n")
	assert.Contains(t, out, "  [ 43:  2]\n")
	assert.True(t, strings.HasSuffix(out, "  [END]\n"))
}

func TestMessageAccessors(t *testing.T) {
	m := NewMessage(OpBootReply, 7, testMAC)
	assert.Equal(t, MessageType(0), m.MessageType())
	assert.Nil(t, m.ServerID())

	require.NoError(t, m.Options.AppendValue(MessageTypeValue(Offer)))
	require.NoError(t, m.Options.AppendValue(ServerID(net.IPv4(192, 0, 2, 1))))

	v, ok := m.Option(OptServerID)
	require.True(t, ok)
	assert.Equal(t, []byte{192, 0, 2, 1}, v)
	assert.Equal(t, Offer, m.MessageType())
	assert.True(t, m.ServerID().Equal(net.IPv4(192, 0, 2, 1)))

	_, ok = m.Option(OptRouter)
	assert.False(t, ok)
}
