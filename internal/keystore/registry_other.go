//go:build !windows

package keystore

// Supported reports whether System can return a working store.
func Supported() bool { return false }

// System returns ErrUnsupported off Windows.
func System() (Store, error) { return nil, ErrUnsupported }
