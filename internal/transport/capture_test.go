package transport

import (
	"bytes"
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veesix-networks/checkdhcp/pkg/dhcp"
)

var testMAC = net.HardwareAddr{0x02, 0x00, 0x5e, 0x10, 0x20, 0x30}

type stubTransport struct {
	sent    []*dhcp.Message
	replies [][]byte
	from    net.Addr
	closed  bool
}

func (s *stubTransport) Send(ctx context.Context, m *dhcp.Message) error {
	s.sent = append(s.sent, m)
	return nil
}

func (s *stubTransport) ReadFrom(b []byte) (int, net.Addr, error) {
	if len(s.replies) == 0 {
		return 0, nil, io.EOF
	}
	n := copy(b, s.replies[0])
	s.replies = s.replies[1:]
	return n, s.from, nil
}

func (s *stubTransport) SetReadDeadline(time.Time) error { return nil }

func (s *stubTransport) Close() error {
	s.closed = true
	return nil
}

type framingStub struct {
	stubTransport
}

func (f *framingStub) Frame(m *dhcp.Message) ([]byte, error) {
	return dhcp.BuildEthernetFrame(dhcp.BroadcastFrame(m.ClientHWAddr()), m)
}

func readCapture(t *testing.T, buf *bytes.Buffer) []gopacket.Packet {
	t.Helper()
	r, err := pcapgo.NewReader(buf)
	require.NoError(t, err)
	assert.Equal(t, layers.LinkTypeEthernet, r.LinkType())

	var pkts []gopacket.Packet
	for {
		data, _, err := r.ReadPacketData()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		pkts = append(pkts, gopacket.NewPacket(data, layers.LayerTypeEthernet, gopacket.Default))
	}
	return pkts
}

func dhcpLayer(t *testing.T, pkt gopacket.Packet) *layers.DHCPv4 {
	t.Helper()
	l := pkt.Layer(layers.LayerTypeDHCPv4)
	require.NotNil(t, l, "no DHCPv4 layer in %v", pkt)
	return l.(*layers.DHCPv4)
}

func request(xid uint32) *dhcp.Message {
	m := dhcp.NewMessage(dhcp.OpBootRequest, xid, testMAC)
	_ = m.Options.Append(dhcp.OptMessageType, []byte{byte(dhcp.Discover)})
	return m
}

func TestCaptureUsesFramer(t *testing.T) {
	var buf bytes.Buffer
	inner := &framingStub{}
	c, err := NewCapture(&buf, inner, &Link{Name: "eth0", HardwareAddr: testMAC}, Spec{Mode: ModeBroadcast})
	require.NoError(t, err)

	require.NoError(t, c.Send(context.Background(), request(0x11223344)))
	require.Len(t, inner.sent, 1)

	pkts := readCapture(t, &buf)
	require.Len(t, pkts, 1)

	eth := pkts[0].Layer(layers.LayerTypeEthernet).(*layers.Ethernet)
	assert.Equal(t, testMAC, eth.SrcMAC)
	assert.Equal(t, net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, eth.DstMAC)

	ip := pkts[0].Layer(layers.LayerTypeIPv4).(*layers.IPv4)
	assert.Equal(t, uint8(dhcp.DefaultTTL), ip.TTL)
	assert.Equal(t, uint32(0x11223344), dhcpLayer(t, pkts[0]).Xid)
}

func TestCaptureSynthesizesUnicast(t *testing.T) {
	var buf bytes.Buffer
	server := net.IPv4(192, 0, 2, 1).To4()
	local := net.IPv4(192, 0, 2, 10).To4()

	reply := dhcp.NewMessage(dhcp.OpBootReply, 0x11223344, testMAC)
	reply.YIAddr = net.IPv4(192, 0, 2, 42).To4()
	_ = reply.Options.Append(dhcp.OptMessageType, []byte{byte(dhcp.Offer)})

	inner := &stubTransport{
		replies: [][]byte{reply.Encode()},
		from:    &net.UDPAddr{IP: server, Port: dhcp.ServerPort},
	}
	link := &Link{Name: "eth0", HardwareAddr: testMAC, IPv4: local}
	c, err := NewCapture(&buf, inner, link, Spec{Mode: ModeUnicast, Server: server})
	require.NoError(t, err)

	require.NoError(t, c.Send(context.Background(), request(0x11223344)))

	b := make([]byte, dhcp.MaxMessageLen)
	n, addr, err := c.ReadFrom(b)
	require.NoError(t, err)
	assert.Equal(t, reply.Len(), n)
	assert.Equal(t, inner.from, addr)

	pkts := readCapture(t, &buf)
	require.Len(t, pkts, 2)

	out := pkts[0].Layer(layers.LayerTypeIPv4).(*layers.IPv4)
	assert.True(t, out.SrcIP.Equal(local))
	assert.True(t, out.DstIP.Equal(server))
	udp := pkts[0].Layer(layers.LayerTypeUDP).(*layers.UDP)
	assert.Equal(t, layers.UDPPort(67), udp.SrcPort)
	assert.Equal(t, layers.UDPPort(67), udp.DstPort)

	in := pkts[1].Layer(layers.LayerTypeIPv4).(*layers.IPv4)
	assert.True(t, in.SrcIP.Equal(server))
	assert.True(t, in.DstIP.Equal(local))
	d := dhcpLayer(t, pkts[1])
	assert.Equal(t, layers.DHCPOpReply, d.Operation)
	assert.True(t, d.YourClientIP.Equal(net.IPv4(192, 0, 2, 42)))
}

func TestCaptureSkipsFailedReads(t *testing.T) {
	var buf bytes.Buffer
	inner := &stubTransport{}
	c, err := NewCapture(&buf, inner, &Link{Name: "eth0", HardwareAddr: testMAC}, Spec{Mode: ModeBroadcast})
	require.NoError(t, err)

	_, _, err = c.ReadFrom(make([]byte, 16))
	assert.ErrorIs(t, err, io.EOF)
	assert.Empty(t, readCapture(t, &buf))

	require.NoError(t, c.Close())
	assert.True(t, inner.closed)
}
