package keystore

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-memory Store. Key paths and value names compare
// case-insensitively, and deleting a key with children fails, matching the
// registry. Writes under a path passed to Deny fail with fs.ErrPermission.
type Memory struct {
	mu            sync.Mutex
	keys          map[string]map[string]string
	denied        map[string]bool
	notifications int
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		keys:   map[string]map[string]string{},
		denied: map[string]bool{},
	}
}

func canon(root Root, path string) string {
	path = strings.Trim(path, `\`)
	if path == "" {
		return root.String()
	}
	return root.String() + `\` + strings.ToLower(path)
}

// prefixes returns canon(root, path) for every ancestor of path, shortest first.
func prefixes(root Root, path string) []string {
	parts := strings.Split(strings.Trim(path, `\`), `\`)
	out := make([]string, 0, len(parts))
	for i := range parts {
		out = append(out, canon(root, strings.Join(parts[:i+1], `\`)))
	}
	return out
}

func (m *Memory) deniedLocked(root Root, path string) bool {
	for _, p := range prefixes(root, path) {
		if m.denied[p] {
			return true
		}
	}
	return false
}

// Deny makes every write at or below path fail with fs.ErrPermission.
func (m *Memory) Deny(root Root, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.denied[canon(root, path)] = true
}

// Allow lifts a previous Deny.
func (m *Memory) Allow(root Root, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.denied, canon(root, path))
}

// Seed creates path and sets name to value, ignoring Deny.
func (m *Memory) Seed(root Root, path, name, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createLocked(root, path)[strings.ToLower(name)] = value
}

// Value reports the value stored under path, if any.
func (m *Memory) Value(root Root, path, name string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	vals, ok := m.keys[canon(root, path)]
	if !ok {
		return "", false
	}
	v, ok := vals[strings.ToLower(name)]
	return v, ok
}

// Exists reports whether the key exists.
func (m *Memory) Exists(root Root, path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.keys[canon(root, path)]
	return ok
}

// Snapshot returns a copy of every key and value, keyed by canonical path.
func (m *Memory) Snapshot() map[string]map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]map[string]string, len(m.keys))
	for k, vals := range m.keys {
		cp := make(map[string]string, len(vals))
		for n, v := range vals {
			cp[n] = v
		}
		out[k] = cp
	}
	return out
}

// Keys lists the canonical paths of all keys, sorted.
func (m *Memory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.keys))
	for k := range m.keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Notifications counts NotifyEnvironmentChange calls.
func (m *Memory) Notifications() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifications
}

// NotifyEnvironmentChange implements Notifier.
func (m *Memory) NotifyEnvironmentChange() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications++
	return nil
}

func (m *Memory) createLocked(root Root, path string) map[string]string {
	var vals map[string]string
	for _, p := range prefixes(root, path) {
		v, ok := m.keys[p]
		if !ok {
			v = map[string]string{}
			m.keys[p] = v
		}
		vals = v
	}
	return vals
}

// CreateKey implements Store.
func (m *Memory) CreateKey(root Root, path string) (Key, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deniedLocked(root, path) {
		return nil, &Error{Op: "create", Root: root, Path: path, Err: fs.ErrPermission}
	}
	m.createLocked(root, path)
	return &memKey{store: m, root: root, path: path, write: true}, nil
}

// OpenKey implements Store.
func (m *Memory) OpenKey(root Root, path string, access Access) (Key, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[canon(root, path)]; !ok {
		return nil, &Error{Op: "open", Root: root, Path: path, Err: fs.ErrNotExist}
	}
	if access == ReadWrite && m.deniedLocked(root, path) {
		return nil, &Error{Op: "open", Root: root, Path: path, Err: fs.ErrPermission}
	}
	return &memKey{store: m, root: root, path: path, write: access == ReadWrite}, nil
}

// DeleteKey implements Store.
func (m *Memory) DeleteKey(root Root, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := canon(root, path)
	if _, ok := m.keys[c]; !ok {
		return &Error{Op: "delete", Root: root, Path: path, Err: fs.ErrNotExist}
	}
	if m.deniedLocked(root, path) {
		return &Error{Op: "delete", Root: root, Path: path, Err: fs.ErrPermission}
	}
	for k := range m.keys {
		if strings.HasPrefix(k, c+`\`) {
			return &Error{Op: "delete", Root: root, Path: path, Err: ErrHasSubkeys}
		}
	}
	delete(m.keys, c)
	return nil
}

// DeleteTree implements Store.
func (m *Memory) DeleteTree(root Root, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := canon(root, path)
	if _, ok := m.keys[c]; !ok {
		return &Error{Op: "delete tree", Root: root, Path: path, Err: fs.ErrNotExist}
	}
	if m.deniedLocked(root, path) {
		return &Error{Op: "delete tree", Root: root, Path: path, Err: fs.ErrPermission}
	}
	for k := range m.keys {
		if strings.HasPrefix(k, c+`\`) {
			delete(m.keys, k)
		}
	}
	delete(m.keys, c)
	return nil
}

type memKey struct {
	store  *Memory
	root   Root
	path   string
	write  bool
	closed bool
}

func (k *memKey) GetString(name string) (string, error) {
	k.store.mu.Lock()
	defer k.store.mu.Unlock()
	if k.closed {
		return "", &Error{Op: "get", Root: k.root, Path: k.path, Name: name, Err: fs.ErrClosed}
	}
	vals, ok := k.store.keys[canon(k.root, k.path)]
	if !ok {
		return "", &Error{Op: "get", Root: k.root, Path: k.path, Name: name, Err: fs.ErrNotExist}
	}
	v, ok := vals[strings.ToLower(name)]
	if !ok {
		return "", &Error{Op: "get", Root: k.root, Path: k.path, Name: name, Err: fs.ErrNotExist}
	}
	return v, nil
}

func (k *memKey) SetString(name, value string) error {
	k.store.mu.Lock()
	defer k.store.mu.Unlock()
	if k.closed {
		return &Error{Op: "set", Root: k.root, Path: k.path, Name: name, Err: fs.ErrClosed}
	}
	if !k.write || k.store.deniedLocked(k.root, k.path) {
		return &Error{Op: "set", Root: k.root, Path: k.path, Name: name, Err: fs.ErrPermission}
	}
	vals, ok := k.store.keys[canon(k.root, k.path)]
	if !ok {
		return &Error{Op: "set", Root: k.root, Path: k.path, Name: name, Err: fs.ErrNotExist}
	}
	vals[strings.ToLower(name)] = value
	return nil
}

func (k *memKey) DeleteValue(name string) error {
	k.store.mu.Lock()
	defer k.store.mu.Unlock()
	if k.closed {
		return &Error{Op: "delete value", Root: k.root, Path: k.path, Name: name, Err: fs.ErrClosed}
	}
	if !k.write || k.store.deniedLocked(k.root, k.path) {
		return &Error{Op: "delete value", Root: k.root, Path: k.path, Name: name, Err: fs.ErrPermission}
	}
	vals, ok := k.store.keys[canon(k.root, k.path)]
	if !ok {
		return &Error{Op: "delete value", Root: k.root, Path: k.path, Name: name, Err: fs.ErrNotExist}
	}
	if _, ok := vals[strings.ToLower(name)]; !ok {
		return &Error{Op: "delete value", Root: k.root, Path: k.path, Name: name, Err: fs.ErrNotExist}
	}
	delete(vals, strings.ToLower(name))
	return nil
}

func (k *memKey) Close() error {
	k.store.mu.Lock()
	defer k.store.mu.Unlock()
	if k.closed {
		return fmt.Errorf("close %s: %w", FullPath(k.root, k.path), fs.ErrClosed)
	}
	k.closed = true
	return nil
}
