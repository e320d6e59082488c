package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/veesix-networks/checkdhcp/pkg/dhcp"
	"github.com/veesix-networks/checkdhcp/pkg/logger"
)

const captureSnapLen = 65536

// Capture records every request and reply of the wrapped transport to a pcap
// stream. Kernel sockets only hand over UDP payloads, so those are wrapped in
// synthetic Ethernet, IPv4 and UDP headers. Write failures are logged and never
// affect the probe.
type Capture struct {
	LinkTransport

	mu     sync.Mutex
	w      *pcapgo.Writer
	closer io.Closer
	link   *Link
	spec   Spec
	now    func() time.Time
}

// OpenCapture creates path and records inner's traffic into it.
func OpenCapture(path string, inner LinkTransport, link *Link, spec Spec) (*Capture, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create capture file: %w", err)
	}
	c, err := NewCapture(f, inner, link, spec)
	if err != nil {
		f.Close()
		return nil, err
	}
	c.closer = f
	return c, nil
}

func NewCapture(w io.Writer, inner LinkTransport, link *Link, spec Spec) (*Capture, error) {
	pw := pcapgo.NewWriter(w)
	if err := pw.WriteFileHeader(captureSnapLen, layers.LinkTypeEthernet); err != nil {
		return nil, fmt.Errorf("write pcap header: %w", err)
	}
	return &Capture{
		LinkTransport: inner,
		w:             pw,
		link:          link,
		spec:          spec,
		now:           time.Now,
	}, nil
}

func (c *Capture) Send(ctx context.Context, m *dhcp.Message) error {
	if err := c.LinkTransport.Send(ctx, m); err != nil {
		return err
	}

	var (
		frame []byte
		err   error
	)
	if f, ok := c.LinkTransport.(Framer); ok {
		frame, err = f.Frame(m)
	} else {
		frame, err = c.synthesize(
			c.link.HardwareAddr, nil,
			&net.UDPAddr{IP: c.localIP(), Port: dhcp.ServerPort},
			&net.UDPAddr{IP: c.spec.Server, Port: dhcp.ServerPort},
			m.Encode())
	}
	c.record(frame, err)
	return nil
}

func (c *Capture) ReadFrom(b []byte) (int, net.Addr, error) {
	n, addr, err := c.LinkTransport.ReadFrom(b)
	if err != nil {
		return n, addr, err
	}

	src, _ := addr.(*net.UDPAddr)
	if src == nil {
		src = &net.UDPAddr{IP: net.IPv4zero, Port: dhcp.ServerPort}
	}
	dst := &net.UDPAddr{IP: c.localIP(), Port: dhcp.ClientPort}
	if c.spec.Mode == ModeUnicast {
		dst.Port = dhcp.ServerPort
	}

	frame, ferr := c.synthesize(nil, c.link.HardwareAddr, src, dst, b[:n])
	c.record(frame, ferr)
	return n, addr, nil
}

func (c *Capture) Close() error {
	err := c.LinkTransport.Close()
	if c.closer != nil {
		if cerr := c.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (c *Capture) localIP() net.IP {
	if c.link != nil && c.link.IPv4 != nil {
		return c.link.IPv4
	}
	if c.spec.Mode == ModeUnicast {
		return net.IPv4zero
	}
	return net.IPv4bcast
}

func (c *Capture) record(frame []byte, err error) {
	log := logger.Get(logger.Transport)
	if err != nil {
		log.Warn("Capture frame build failed", "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	ci := gopacket.CaptureInfo{
		Timestamp:     c.now(),
		CaptureLength: len(frame),
		Length:        len(frame),
	}
	if err := c.w.WritePacket(ci, frame); err != nil {
		log.Warn("Capture write failed", "error", err)
	}
}

// synthesize wraps a UDP payload in Ethernet and IPv4 headers. Missing
// hardware addresses are left as zero.
func (c *Capture) synthesize(srcMAC, dstMAC net.HardwareAddr, src, dst *net.UDPAddr, payload []byte) ([]byte, error) {
	if srcMAC == nil {
		srcMAC = make(net.HardwareAddr, 6)
	}
	if dstMAC == nil {
		dstMAC = make(net.HardwareAddr, 6)
	}
	srcIP, dstIP := src.IP.To4(), dst.IP.To4()
	if srcIP == nil || dstIP == nil {
		return nil, fmt.Errorf("synthesize frame: %v -> %v is not ipv4", src.IP, dst.IP)
	}

	eth := &layers.Ethernet{
		SrcMAC:       srcMAC,
		DstMAC:       dstMAC,
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    srcIP,
		DstIP:    dstIP,
	}
	udp := &layers.UDP{
		SrcPort: layers.UDPPort(src.Port),
		DstPort: layers.UDPPort(dst.Port),
	}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		return nil, err
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(payload)); err != nil {
		return nil, fmt.Errorf("synthesize frame: %w", err)
	}
	return buf.Bytes(), nil
}
