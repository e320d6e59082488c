// Package ethernet holds the link-layer constants used to build raw frames.
package ethernet

import (
	"encoding/binary"
	"net"
)

const (
	EtherTypeIPv4 uint16 = 0x0800

	HeaderLen = 14
)

var BroadcastMAC = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// Htons returns v laid out in network byte order, as AF_PACKET expects its
// protocol field.
func Htons(v uint16) uint16 {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return binary.NativeEndian.Uint16(b[:])
}
