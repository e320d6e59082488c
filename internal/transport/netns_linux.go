//go:build linux

package transport

import (
	"fmt"
	"runtime"

	"github.com/vishvananda/netns"
)

// EnterNetns moves the calling goroutine's OS thread into the named network
// namespace. Sockets opened on this thread afterwards belong to it. The thread
// stays locked until restore is called.
func EnterNetns(name string) (restore func() error, err error) {
	runtime.LockOSThread()

	orig, err := netns.Get()
	if err != nil {
		runtime.UnlockOSThread()
		return nil, setupErr("get current netns", err)
	}

	target, err := netns.GetFromName(name)
	if err != nil {
		orig.Close()
		runtime.UnlockOSThread()
		return nil, setupErr(fmt.Sprintf("get netns %q", name), err)
	}
	defer target.Close()

	if err := netns.Set(target); err != nil {
		orig.Close()
		runtime.UnlockOSThread()
		return nil, setupErr(fmt.Sprintf("enter netns %q", name), err)
	}

	return func() error {
		defer runtime.UnlockOSThread()
		defer orig.Close()
		if err := netns.Set(orig); err != nil {
			return fmt.Errorf("restore netns: %w", err)
		}
		return nil
	}, nil
}
