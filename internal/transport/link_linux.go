//go:build linux

package transport

import (
	"fmt"
	"net"

	"github.com/vishvananda/netlink"
)

// LookupLink reads the interface index, hardware address and first IPv4
// address from the kernel.
func LookupLink(name string) (*Link, error) {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return nil, setupErr("find interface "+name, err)
	}

	attrs := link.Attrs()
	l := &Link{
		Name:         attrs.Name,
		Index:        attrs.Index,
		HardwareAddr: append(net.HardwareAddr(nil), attrs.HardwareAddr...),
	}

	addrs, err := netlink.AddrList(link, netlink.FAMILY_V4)
	if err != nil {
		return nil, setupErr("list addresses on "+name, err)
	}
	for _, a := range addrs {
		if v4 := a.IP.To4(); v4 != nil {
			l.IPv4 = v4
			break
		}
	}

	if len(l.HardwareAddr) == 0 {
		return nil, setupErr("find interface "+name, fmt.Errorf("interface has no hardware address"))
	}

	return l, nil
}
