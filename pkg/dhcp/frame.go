package dhcp

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/veesix-networks/checkdhcp/pkg/ethernet"
)

const (
	IPv4HeaderLen = 20
	UDPHeaderLen  = 8

	// DefaultTTL matches what relays in the field expect from a probe.
	DefaultTTL = 20

	ipProtoUDP = 17
)

// BuildUDPPacket returns an IPv4 header, a UDP header and payload. Both
// checksums are filled in.
func BuildUDPPacket(srcIP, dstIP net.IP, srcPort, dstPort uint16, ttl uint8, payload []byte) ([]byte, error) {
	src, dst := srcIP.To4(), dstIP.To4()
	if src == nil || dst == nil {
		return nil, fmt.Errorf("build udp packet: %v -> %v is not ipv4", srcIP, dstIP)
	}

	totalLen := IPv4HeaderLen + UDPHeaderLen + len(payload)
	if totalLen > 0xffff {
		return nil, fmt.Errorf("build udp packet: payload of %d bytes too large", len(payload))
	}
	packet := make([]byte, totalLen)

	ipHeader := packet[:IPv4HeaderLen]
	ipHeader[0] = 0x45
	binary.BigEndian.PutUint16(ipHeader[2:4], uint16(totalLen))
	ipHeader[8] = ttl
	ipHeader[9] = ipProtoUDP
	copy(ipHeader[12:16], src)
	copy(ipHeader[16:20], dst)
	binary.BigEndian.PutUint16(ipHeader[10:12], Checksum(ipHeader))

	udpHeader := packet[IPv4HeaderLen : IPv4HeaderLen+UDPHeaderLen]
	binary.BigEndian.PutUint16(udpHeader[0:2], srcPort)
	binary.BigEndian.PutUint16(udpHeader[2:4], dstPort)
	binary.BigEndian.PutUint16(udpHeader[4:6], uint16(UDPHeaderLen+len(payload)))
	binary.BigEndian.PutUint16(udpHeader[6:8], UDPChecksum(src, dst, udpHeader, payload))

	copy(packet[IPv4HeaderLen+UDPHeaderLen:], payload)

	return packet, nil
}

// FrameSpec describes the link and network envelope of a broadcast request.
type FrameSpec struct {
	SrcMAC  net.HardwareAddr
	DstMAC  net.HardwareAddr
	SrcIP   net.IP
	DstIP   net.IP
	SrcPort uint16
	DstPort uint16
	TTL     uint8
}

// BroadcastFrame is the envelope a client without an address uses:
// 0.0.0.0:68 to 255.255.255.255:67 on the Ethernet broadcast address.
func BroadcastFrame(src net.HardwareAddr) FrameSpec {
	return FrameSpec{
		SrcMAC:  src,
		DstMAC:  ethernet.BroadcastMAC,
		SrcIP:   net.IPv4zero,
		DstIP:   net.IPv4bcast,
		SrcPort: ClientPort,
		DstPort: ServerPort,
		TTL:     DefaultTTL,
	}
}

// BuildEthernetFrame wraps m in Ethernet, IPv4 and UDP headers.
func BuildEthernetFrame(spec FrameSpec, m *Message) ([]byte, error) {
	if len(spec.SrcMAC) != 6 || len(spec.DstMAC) != 6 {
		return nil, fmt.Errorf("build frame: need 6-byte hardware addresses, got %d and %d", len(spec.SrcMAC), len(spec.DstMAC))
	}

	ip, err := BuildUDPPacket(spec.SrcIP, spec.DstIP, spec.SrcPort, spec.DstPort, spec.TTL, m.Encode())
	if err != nil {
		return nil, err
	}

	frame := make([]byte, ethernet.HeaderLen+len(ip))
	copy(frame[0:6], spec.DstMAC)
	copy(frame[6:12], spec.SrcMAC)
	binary.BigEndian.PutUint16(frame[12:14], ethernet.EtherTypeIPv4)
	copy(frame[ethernet.HeaderLen:], ip)

	return frame, nil
}
