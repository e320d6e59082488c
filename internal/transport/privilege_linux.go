//go:build linux

package transport

import "golang.org/x/sys/unix"

// CheckPrivileges fails closed unless the process runs as root.
func CheckPrivileges() error {
	if unix.Geteuid() != 0 {
		return setupErr("check privileges", ErrNotPrivileged)
	}
	return nil
}
