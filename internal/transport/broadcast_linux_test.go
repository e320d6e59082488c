//go:build linux

package transport

import (
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veesix-networks/checkdhcp/pkg/dhcp"
)

func TestBroadcastFrame(t *testing.T) {
	ifaceMAC := net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
	b := &BroadcastL2{ifindex: 2, hwAddr: ifaceMAC}

	tests := []struct {
		name   string
		chaddr net.HardwareAddr
		want   net.HardwareAddr
	}{
		{"chaddr as source", testMAC, testMAC},
		{"non-ethernet chaddr falls back to interface", net.HardwareAddr{1, 2, 3, 4, 5, 6, 7, 8}, ifaceMAC},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := dhcp.NewMessage(dhcp.OpBootRequest, 0xdeadbeef, tt.chaddr)
			require.NoError(t, m.Options.Append(dhcp.OptMessageType, []byte{byte(dhcp.Discover)}))

			frame, err := b.Frame(m)
			require.NoError(t, err)

			pkt := gopacket.NewPacket(frame, layers.LayerTypeEthernet, gopacket.Default)
			eth := pkt.Layer(layers.LayerTypeEthernet).(*layers.Ethernet)
			assert.Equal(t, tt.want, eth.SrcMAC)
			assert.Equal(t, layers.EthernetTypeIPv4, eth.EthernetType)

			ip := pkt.Layer(layers.LayerTypeIPv4).(*layers.IPv4)
			assert.True(t, ip.SrcIP.Equal(net.IPv4zero))
			assert.True(t, ip.DstIP.Equal(net.IPv4bcast))

			udp := pkt.Layer(layers.LayerTypeUDP).(*layers.UDP)
			assert.Equal(t, layers.UDPPort(dhcp.ClientPort), udp.SrcPort)
			assert.Equal(t, layers.UDPPort(dhcp.ServerPort), udp.DstPort)
		})
	}
}
