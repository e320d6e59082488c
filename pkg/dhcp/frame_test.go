package dhcp

import (
	"encoding/binary"
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildEthernetFrame_DecodesWithGopacket(t *testing.T) {
	m := NewMessage(OpBootRequest, 0x11223344, testMAC)
	m.Hops = 1
	m.Flags = FlagBroadcast
	require.NoError(t, m.Options.AppendValue(MessageTypeValue(Discover)))
	require.NoError(t, m.Options.AppendValue(Class("check_dhcp")))

	frame, err := BuildEthernetFrame(BroadcastFrame(testMAC), m)
	require.NoError(t, err)
	require.Len(t, frame, 14+20+8+m.Len())

	pkt := gopacket.NewPacket(frame, layers.LayerTypeEthernet, gopacket.Default)
	require.Nil(t, pkt.ErrorLayer())

	eth := pkt.Layer(layers.LayerTypeEthernet).(*layers.Ethernet)
	assert.Equal(t, "ff:ff:ff:ff:ff:ff", eth.DstMAC.String())
	assert.Equal(t, testMAC, eth.SrcMAC)
	assert.Equal(t, layers.EthernetTypeIPv4, eth.EthernetType)

	ip := pkt.Layer(layers.LayerTypeIPv4).(*layers.IPv4)
	assert.Equal(t, uint8(DefaultTTL), ip.TTL)
	assert.Equal(t, layers.IPProtocolUDP, ip.Protocol)
	assert.Equal(t, uint16(20+8+m.Len()), ip.Length)
	assert.True(t, ip.SrcIP.Equal(net.IPv4zero))
	assert.True(t, ip.DstIP.Equal(net.IPv4bcast))
	assert.Equal(t, uint16(0), Checksum(frame[14:34]), "ip header checksum must verify")

	udp := pkt.Layer(layers.LayerTypeUDP).(*layers.UDP)
	assert.Equal(t, layers.UDPPort(ClientPort), udp.SrcPort)
	assert.Equal(t, layers.UDPPort(ServerPort), udp.DstPort)
	assert.Equal(t, uint16(8+m.Len()), udp.Length)

	dhcpLayer := pkt.Layer(layers.LayerTypeDHCPv4)
	require.NotNil(t, dhcpLayer)
	d := dhcpLayer.(*layers.DHCPv4)
	assert.Equal(t, layers.DHCPOpRequest, d.Operation)
	assert.Equal(t, uint32(0x11223344), d.Xid)
	assert.Equal(t, testMAC, d.ClientHWAddr)

	var msgType layers.DHCPMsgType
	for _, opt := range d.Options {
		if opt.Type == layers.DHCPOptMessageType && len(opt.Data) == 1 {
			msgType = layers.DHCPMsgType(opt.Data[0])
		}
	}
	assert.Equal(t, layers.DHCPMsgTypeDiscover, msgType)
}

func TestBuildUDPPacket_Checksums(t *testing.T) {
	payload := []byte("odd-length payload!")
	src, dst := net.IPv4(192, 0, 2, 10), net.IPv4(192, 0, 2, 1)

	pkt, err := BuildUDPPacket(src, dst, ServerPort, ServerPort, 64, payload)
	require.NoError(t, err)

	assert.Equal(t, uint16(0), Checksum(pkt[:20]))

	udp := append([]byte(nil), pkt[20:28]...)
	sent := binary.BigEndian.Uint16(udp[6:8])
	binary.BigEndian.PutUint16(udp[6:8], 0)
	assert.Equal(t, sent, UDPChecksum(src.To4(), dst.To4(), udp, payload))
	assert.Equal(t, payload, pkt[28:])
}

func TestBuildFrame_Errors(t *testing.T) {
	m := NewMessage(OpBootRequest, 1, testMAC)

	_, err := BuildEthernetFrame(BroadcastFrame(net.HardwareAddr{1, 2, 3}), m)
	assert.Error(t, err)

	_, err = BuildUDPPacket(net.ParseIP("2001:db8::1"), net.IPv4bcast, 68, 67, 20, nil)
	assert.Error(t, err)
}
