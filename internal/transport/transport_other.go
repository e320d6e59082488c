//go:build !linux

package transport

import "context"

func LookupLink(name string) (*Link, error) {
	return nil, setupErr("find interface "+name, ErrUnsupported)
}

func EnterNetns(name string) (func() error, error) {
	return nil, setupErr("enter netns "+name, ErrUnsupported)
}

func CheckPrivileges() error {
	return setupErr("check privileges", ErrUnsupported)
}

func Open(ctx context.Context, spec Spec, link *Link) (LinkTransport, error) {
	return nil, setupErr("open transport", ErrUnsupported)
}
