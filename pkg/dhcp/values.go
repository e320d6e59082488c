package dhcp

import (
	"fmt"
	"net"
)

// Value is the typed interpretation of an option payload.
type Value interface {
	Code() OptionCode
	String() string
}

type SubnetMask net.IPMask

type Router []net.IP

type DNS []net.IP

type Hostname string

type BroadcastAddr net.IP

type RequestedIP net.IP

type MessageTypeValue MessageType

type ServerID net.IP

type Class string

// Raw carries options without a typed form.
type Raw struct {
	Type OptionCode
	Data []byte
}

func (SubnetMask) Code() OptionCode       { return OptSubnetMask }
func (Router) Code() OptionCode           { return OptRouter }
func (DNS) Code() OptionCode              { return OptDNS }
func (Hostname) Code() OptionCode         { return OptHostname }
func (BroadcastAddr) Code() OptionCode    { return OptBroadcast }
func (RequestedIP) Code() OptionCode      { return OptRequestedIP }
func (MessageTypeValue) Code() OptionCode { return OptMessageType }
func (ServerID) Code() OptionCode         { return OptServerID }
func (Class) Code() OptionCode            { return OptClass }
func (r Raw) Code() OptionCode            { return r.Type }

func (v SubnetMask) String() string       { return net.IP(v).String() }
func (v Router) String() string           { return joinIPs(v) }
func (v DNS) String() string              { return joinIPs(v) }
func (v Hostname) String() string         { return string(v) }
func (v BroadcastAddr) String() string    { return net.IP(v).String() }
func (v RequestedIP) String() string      { return net.IP(v).String() }
func (v MessageTypeValue) String() string { return MessageType(v).String() }
func (v ServerID) String() string         { return net.IP(v).String() }
func (v Class) String() string            { return string(v) }
func (r Raw) String() string              { return fmt.Sprintf("[%3d:%3d]", uint8(r.Type), len(r.Data)) }

// DecodeValue interprets opt according to its code. Payloads whose length does
// not fit the code's type are rejected.
func DecodeValue(opt Option) (Value, error) {
	d := opt.Data
	switch opt.Code {
	case OptSubnetMask:
		if len(d) != 4 {
			return nil, badLength(opt)
		}
		return SubnetMask(copyIP(d)), nil
	case OptRouter, OptDNS:
		if len(d) == 0 || len(d)%4 != 0 {
			return nil, badLength(opt)
		}
		ips := make([]net.IP, 0, len(d)/4)
		for i := 0; i < len(d); i += 4 {
			ips = append(ips, copyIP(d[i:i+4]))
		}
		if opt.Code == OptRouter {
			return Router(ips), nil
		}
		return DNS(ips), nil
	case OptHostname:
		return Hostname(d), nil
	case OptBroadcast:
		if len(d) != 4 {
			return nil, badLength(opt)
		}
		return BroadcastAddr(copyIP(d)), nil
	case OptRequestedIP:
		if len(d) != 4 {
			return nil, badLength(opt)
		}
		return RequestedIP(copyIP(d)), nil
	case OptMessageType:
		if len(d) != 1 {
			return nil, badLength(opt)
		}
		return MessageTypeValue(d[0]), nil
	case OptServerID:
		if len(d) != 4 {
			return nil, badLength(opt)
		}
		return ServerID(copyIP(d)), nil
	case OptClass:
		return Class(d), nil
	default:
		return Raw{Type: opt.Code, Data: append([]byte{}, d...)}, nil
	}
}

// AppendValue encodes v and appends it to the list.
func (o *Options) AppendValue(v Value) error {
	var (
		data []byte
		err  error
	)
	switch t := v.(type) {
	case SubnetMask:
		data, err = ipv4Payload(net.IP(t), v.Code())
	case Router:
		data = packIPs(t)
	case DNS:
		data = packIPs(t)
	case Hostname:
		data = []byte(t)
	case BroadcastAddr:
		data, err = ipv4Payload(net.IP(t), v.Code())
	case RequestedIP:
		data, err = ipv4Payload(net.IP(t), v.Code())
	case MessageTypeValue:
		data = []byte{byte(t)}
	case ServerID:
		data, err = ipv4Payload(net.IP(t), v.Code())
	case Class:
		data = []byte(t)
	case Raw:
		data = t.Data
	default:
		return fmt.Errorf("unsupported option value %T", v)
	}
	if err != nil {
		return err
	}
	return o.Append(v.Code(), data)
}

func ipv4Payload(ip net.IP, code OptionCode) ([]byte, error) {
	v4 := ip.To4()
	if v4 == nil {
		return nil, fmt.Errorf("option %s: %v is not an IPv4 address", code, ip)
	}
	return v4, nil
}

func badLength(opt Option) error {
	return fmt.Errorf("%w: option %s has invalid length %d", ErrMalformedOptions, opt.Code, len(opt.Data))
}

func packIPs(ips []net.IP) []byte {
	b := make([]byte, 0, 4*len(ips))
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			b = append(b, v4...)
		}
	}
	return b
}

func joinIPs(ips []net.IP) string {
	s := ""
	for i, ip := range ips {
		if i > 0 {
			s += ", "
		}
		s += ip.String()
	}
	return s
}
