package dhcp

import (
	"fmt"
	"io"
)

// Dump writes a human readable rendering of m, one field per line.
func Dump(w io.Writer, m *Message) {
	switch mt := m.MessageType(); {
	case mt != 0:
		fmt.Fprintf(w, "[DHCP %s]\n", mt)
	case m.Op == OpBootRequest:
		fmt.Fprintln(w, "[BOOTP Request]")
	default:
		fmt.Fprintln(w, "[BOOTP Reply]")
	}

	fmt.Fprintf(w, " Client Addr: %s\n", m.CIAddr)
	fmt.Fprintf(w, " Your Addr:   %s\n", m.YIAddr)
	fmt.Fprintf(w, " Next Server: %s\n", m.SIAddr)
	fmt.Fprintf(w, " Gateway:     %s\n", m.GIAddr)
	fmt.Fprintf(w, " Client MAC:  %s\n", m.ClientHWAddr())
	fmt.Fprintf(w, " Servername:  %s\n", m.ServerName())
	fmt.Fprintf(w, " Bootfile:    %s\n", m.BootFile())

	if len(m.Options) == 0 {
		return
	}
	fmt.Fprintln(w, " Options:")
	for _, opt := range m.Options {
		v, err := DecodeValue(opt)
		if err != nil {
			fmt.Fprintf(w, "  [%s] invalid: %v\n", opt.Code, err)
			continue
		}
		if raw, ok := v.(Raw); ok {
			fmt.Fprintf(w, "  %s\n", raw)
			continue
		}
		fmt.Fprintf(w, "  [%s] %s\n", opt.Code, v)
	}
	fmt.Fprintln(w, "  [END]")
}
