// Package keystore abstracts the machine-global key/value store that holds file
// associations and the system environment (the Windows registry). The
// orchestrators in internal/assoc only talk to the Store interface so they can
// run against the in-memory implementation in tests.
package keystore

import (
	"errors"
	"fmt"
)

// ErrUnsupported is returned by System on platforms without a registry.
var ErrUnsupported = errors.New("keystore: registry not supported on this platform")

// ErrHasSubkeys is returned by DeleteKey when the key still has children.
var ErrHasSubkeys = errors.New("key has subkeys")

// Root selects one of the predefined top-level keys.
type Root int

const (
	// ClassesRoot is HKEY_CLASSES_ROOT.
	ClassesRoot Root = iota
	// LocalMachine is HKEY_LOCAL_MACHINE.
	LocalMachine
	// CurrentUser is HKEY_CURRENT_USER.
	CurrentUser
)

func (r Root) String() string {
	switch r {
	case ClassesRoot:
		return "HKEY_CLASSES_ROOT"
	case LocalMachine:
		return "HKEY_LOCAL_MACHINE"
	case CurrentUser:
		return "HKEY_CURRENT_USER"
	default:
		return fmt.Sprintf("Root(%d)", int(r))
	}
}

// Access is the access mode requested by OpenKey.
type Access int

const (
	// Read allows querying values.
	Read Access = iota
	// ReadWrite allows querying and setting values.
	ReadWrite
)

// Store creates, opens and deletes keys.
type Store interface {
	// CreateKey opens path, creating it and any missing parents.
	CreateKey(root Root, path string) (Key, error)
	// OpenKey opens an existing key.
	OpenKey(root Root, path string, access Access) (Key, error)
	// DeleteKey removes a key that has no subkeys.
	DeleteKey(root Root, path string) error
	// DeleteTree removes a key and everything below it.
	DeleteTree(root Root, path string) error
}

// Key is an open key. The empty value name addresses the key's default value.
type Key interface {
	GetString(name string) (string, error)
	SetString(name, value string) error
	DeleteValue(name string) error
	Close() error
}

// Notifier is implemented by stores that can tell running programs the
// environment block changed.
type Notifier interface {
	NotifyEnvironmentChange() error
}

// Error records a failed store operation. Err is the underlying cause and
// matches fs.ErrNotExist or fs.ErrPermission where applicable.
type Error struct {
	Op   string
	Root Root
	Path string
	Name string
	Err  error
}

func (e *Error) Error() string {
	p := e.Root.String()
	if e.Path != "" {
		p += `\` + e.Path
	}
	if e.Name != "" {
		return fmt.Sprintf("%s %s [%s]: %v", e.Op, p, e.Name, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, p, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// FullPath renders root and path the way regedit shows them.
func FullPath(root Root, path string) string {
	if path == "" {
		return root.String()
	}
	return root.String() + `\` + path
}
