package dhcp

import "encoding/binary"

// Checksum is the RFC 1071 internet checksum of b. An odd trailing byte is
// summed as the high half of a zero-padded word.
func Checksum(b []byte) uint16 {
	return ^fold(sum(0, b))
}

// UDPChecksum covers the IPv4 pseudo-header, the UDP header and the payload.
// A computed zero is sent as 0xFFFF.
func UDPChecksum(src, dst []byte, udpHeader, payload []byte) uint16 {
	var pseudo [12]byte
	copy(pseudo[0:4], src)
	copy(pseudo[4:8], dst)
	pseudo[9] = ipProtoUDP
	binary.BigEndian.PutUint16(pseudo[10:12], uint16(len(udpHeader)+len(payload)))

	s := sum(0, pseudo[:])
	s = sum(s, udpHeader)
	s = sum(s, payload)

	c := ^fold(s)
	if c == 0 {
		c = 0xFFFF
	}
	return c
}

// sum adds b to s as big-endian 16-bit words. Callers only split data at even
// offsets, so word alignment is preserved across calls.
func sum(s uint32, b []byte) uint32 {
	n := len(b)
	for i := 0; i+1 < n; i += 2 {
		s += uint32(b[i])<<8 | uint32(b[i+1])
	}
	if n%2 == 1 {
		s += uint32(b[n-1]) << 8
	}
	return s
}

func fold(s uint32) uint16 {
	for s > 0xffff {
		s = (s & 0xffff) + (s >> 16)
	}
	return uint16(s)
}
