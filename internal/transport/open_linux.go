//go:build linux

package transport

import (
	"context"
	"fmt"
)

// Open creates the transport selected by spec on link.
func Open(ctx context.Context, spec Spec, link *Link) (LinkTransport, error) {
	switch spec.Mode {
	case ModeUnicast:
		return OpenUnicast(ctx, link, spec.Server)
	case ModeBroadcast, "":
		return OpenBroadcast(ctx, link)
	default:
		return nil, setupErr("open transport", fmt.Errorf("unknown mode %q", spec.Mode))
	}
}
