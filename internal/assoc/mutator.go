package assoc

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/VoxDroid/cargoscript/internal/keystore"
)

// Outcome is the result of a delete that did not fail.
type Outcome int

const (
	// Deleted means the key existed and was removed.
	Deleted Outcome = iota
	// AlreadyAbsent means there was nothing to remove.
	AlreadyAbsent
)

func (o Outcome) String() string {
	if o == AlreadyAbsent {
		return "already absent"
	}
	return "deleted"
}

type mutator struct {
	store keystore.Store
	log   *slog.Logger
}

// createOrSet creates path with its parents and sets one string value.
func (m mutator) createOrSet(root keystore.Root, path, name, data string) error {
	m.log.Debug("set registry value", "key", keystore.FullPath(root, path), "name", name, "data", data)
	k, err := m.store.CreateKey(root, path)
	if err != nil {
		return err
	}
	defer func() { _ = k.Close() }()
	return k.SetString(name, data)
}

// deleteIfPresent deletes a key, treating a missing key as AlreadyAbsent.
func (m mutator) deleteIfPresent(root keystore.Root, path string) (Outcome, error) {
	err := m.store.DeleteKey(root, path)
	switch {
	case err == nil:
		m.log.Debug("deleted registry key", "key", keystore.FullPath(root, path))
		return Deleted, nil
	case errors.Is(err, fs.ErrNotExist):
		m.log.Debug("registry key already absent", "key", keystore.FullPath(root, path))
		return AlreadyAbsent, nil
	default:
		return Deleted, err
	}
}

// deleteOwned deletes a key under our ProgID. Subkeys added by other tools
// (DefaultIcon, ddeexec) go with it.
func (m mutator) deleteOwned(root keystore.Root, path string) (Outcome, error) {
	out, err := m.deleteIfPresent(root, path)
	if !errors.Is(err, keystore.ErrHasSubkeys) {
		return out, err
	}
	if err := m.store.DeleteTree(root, path); err != nil {
		return Deleted, err
	}
	m.log.Debug("deleted registry key with subkeys", "key", keystore.FullPath(root, path))
	return Deleted, nil
}

// readString returns a value, reporting false when the key or value is missing.
func (m mutator) readString(root keystore.Root, path, name string) (string, bool, error) {
	k, err := m.store.OpenKey(root, path, keystore.Read)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	defer func() { _ = k.Close() }()
	v, err := k.GetString(name)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// keyExists reports whether path can be opened for reading.
func (m mutator) keyExists(root keystore.Root, path string) (bool, error) {
	k, err := m.store.OpenKey(root, path, keystore.Read)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	_ = k.Close()
	return true, nil
}
