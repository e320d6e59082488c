package dhcp

import (
	"errors"
	"fmt"
)

type OptionCode uint8

const (
	OptPad         OptionCode = 0
	OptSubnetMask  OptionCode = 1
	OptRouter      OptionCode = 3
	OptDNS         OptionCode = 6
	OptHostname    OptionCode = 12
	OptBroadcast   OptionCode = 28
	OptRequestedIP OptionCode = 50
	OptOverload    OptionCode = 52
	OptMessageType OptionCode = 53
	OptServerID    OptionCode = 54
	OptMaxMsgSize  OptionCode = 57
	OptClass       OptionCode = 60
	OptEnd         OptionCode = 255
)

func (c OptionCode) String() string {
	switch c {
	case OptPad:
		return "Pad"
	case OptSubnetMask:
		return "Subnetmask"
	case OptRouter:
		return "Router"
	case OptDNS:
		return "Name Server"
	case OptHostname:
		return "Host Name"
	case OptBroadcast:
		return "Broadcast"
	case OptRequestedIP:
		return "Requested IP"
	case OptOverload:
		return "Option Overload"
	case OptMessageType:
		return "DHCP Type"
	case OptServerID:
		return "DHCPD ID"
	case OptMaxMsgSize:
		return "Message Size"
	case OptClass:
		return "Client Class"
	case OptEnd:
		return "End"
	default:
		return fmt.Sprintf("%d", uint8(c))
	}
}

var (
	ErrOptionNotFound   = errors.New("option not found")
	ErrMalformedOptions = errors.New("malformed option list")
	ErrOptionTooLong    = errors.New("option payload exceeds 255 bytes")
	ErrReservedOption   = errors.New("pad and end are not appendable")
)

type Option struct {
	Code OptionCode
	Data []byte
}

// Options is an ordered TLV list without Pad or End entries. End is added by
// Encode.
type Options []Option

// Append adds a TLV. The payload is copied.
func (o *Options) Append(code OptionCode, payload []byte) error {
	if code == OptPad || code == OptEnd {
		return fmt.Errorf("%w: code %d", ErrReservedOption, code)
	}
	if len(payload) > 255 {
		return fmt.Errorf("%w: code %d length %d", ErrOptionTooLong, code, len(payload))
	}
	*o = append(*o, Option{Code: code, Data: append([]byte{}, payload...)})
	return nil
}

// Get returns the payload of the first option with the given code.
func (o Options) Get(code OptionCode) ([]byte, bool) {
	for _, opt := range o {
		if opt.Code == code {
			return opt.Data, true
		}
	}
	return nil, false
}

// EncodedLen is the size of Encode's output.
func (o Options) EncodedLen() int {
	if len(o) == 0 {
		return 0
	}
	n := 1
	for _, opt := range o {
		n += 2 + len(opt.Data)
	}
	return n
}

// Encode returns the TLV bytes followed by a single End marker, or nil for an
// empty list.
func (o Options) Encode() []byte {
	if len(o) == 0 {
		return nil
	}
	buf := make([]byte, 0, o.EncodedLen())
	for _, opt := range o {
		buf = append(buf, byte(opt.Code), byte(len(opt.Data)))
		buf = append(buf, opt.Data...)
	}
	return append(buf, byte(OptEnd))
}

// AppendOption appends a TLV to an encoded option area and re-terminates it.
// buf must be empty or End-terminated, as produced by Encode or AppendOption.
func AppendOption(buf []byte, code OptionCode, payload []byte) ([]byte, error) {
	if code == OptPad || code == OptEnd {
		return buf, fmt.Errorf("%w: code %d", ErrReservedOption, code)
	}
	if len(payload) > 255 {
		return buf, fmt.Errorf("%w: code %d length %d", ErrOptionTooLong, code, len(payload))
	}
	if n := len(buf); n > 0 {
		if OptionCode(buf[n-1]) != OptEnd {
			return buf, fmt.Errorf("%w: buffer not end-terminated", ErrMalformedOptions)
		}
		buf = buf[:n-1]
	}
	out := make([]byte, 0, len(buf)+len(payload)+3)
	out = append(out, buf...)
	out = append(out, byte(code), byte(len(payload)))
	out = append(out, payload...)
	return append(out, byte(OptEnd)), nil
}

// DecodeOptions parses an option area. The list must reach End inside buf and
// no TLV may run past it. Pad bytes are dropped.
func DecodeOptions(buf []byte) (Options, error) {
	var opts Options
	err := walkOptions(buf, func(code OptionCode, data []byte) bool {
		opts = append(opts, Option{Code: code, Data: append([]byte{}, data...)})
		return true
	})
	if err != nil {
		return nil, err
	}
	return opts, nil
}

// FindOption scans a raw option area for code without decoding the whole
// list. It returns ErrOptionNotFound when End is reached first and
// ErrMalformedOptions when the scan would leave buf.
func FindOption(buf []byte, code OptionCode) ([]byte, error) {
	var found []byte
	hit := false
	err := walkOptions(buf, func(c OptionCode, data []byte) bool {
		if c == code {
			found, hit = data, true
			return false
		}
		return true
	})
	if hit {
		return found, nil
	}
	if err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: code %d", ErrOptionNotFound, code)
}

// HasEnd reports whether the list in buf terminates with End inside buf.
func HasEnd(buf []byte) bool {
	return walkOptions(buf, func(OptionCode, []byte) bool { return true }) == nil
}

// walkOptions calls fn for every TLV until fn returns false or End is seen.
func walkOptions(buf []byte, fn func(OptionCode, []byte) bool) error {
	i := 0
	for i < len(buf) {
		code := OptionCode(buf[i])
		switch code {
		case OptPad:
			i++
			continue
		case OptEnd:
			return nil
		}

		if i+1 >= len(buf) {
			return fmt.Errorf("%w: truncated option %d at offset %d", ErrMalformedOptions, code, i)
		}
		n := int(buf[i+1])
		if i+2+n > len(buf) {
			return fmt.Errorf("%w: option %d length %d overruns buffer at offset %d", ErrMalformedOptions, code, n, i)
		}
		if !fn(code, buf[i+2:i+2+n]) {
			return nil
		}
		i += 2 + n
	}
	return fmt.Errorf("%w: no end marker in %d bytes", ErrMalformedOptions, len(buf))
}
