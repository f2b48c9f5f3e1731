//go:build windows

package keystore

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

const (
	hwndBroadcast   = 0xffff
	wmSettingChange = 0x001a
	smtoAbortIfHung = 0x0002
	notifyTimeoutMS = 5000
)

var procSendMessageTimeout = windows.NewLazySystemDLL("user32.dll").NewProc("SendMessageTimeoutW")

// Supported reports whether System can return a working store.
func Supported() bool { return true }

// System returns the store backed by the Windows registry.
func System() (Store, error) { return registryStore{}, nil }

type registryStore struct{}

func predefined(root Root) (registry.Key, error) {
	switch root {
	case ClassesRoot:
		return registry.CLASSES_ROOT, nil
	case LocalMachine:
		return registry.LOCAL_MACHINE, nil
	case CurrentUser:
		return registry.CURRENT_USER, nil
	}
	return 0, fmt.Errorf("unknown root %v", root)
}

func (registryStore) CreateKey(root Root, path string) (Key, error) {
	base, err := predefined(root)
	if err != nil {
		return nil, &Error{Op: "create", Root: root, Path: path, Err: err}
	}
	k, _, err := registry.CreateKey(base, path, registry.QUERY_VALUE|registry.SET_VALUE)
	if err != nil {
		return nil, &Error{Op: "create", Root: root, Path: path, Err: err}
	}
	return &registryKey{k: k, root: root, path: path}, nil
}

func (registryStore) OpenKey(root Root, path string, access Access) (Key, error) {
	base, err := predefined(root)
	if err != nil {
		return nil, &Error{Op: "open", Root: root, Path: path, Err: err}
	}
	mode := uint32(registry.QUERY_VALUE)
	if access == ReadWrite {
		mode |= registry.SET_VALUE
	}
	k, err := registry.OpenKey(base, path, mode)
	if err != nil {
		return nil, &Error{Op: "open", Root: root, Path: path, Err: err}
	}
	return &registryKey{k: k, root: root, path: path}, nil
}

func (registryStore) DeleteKey(root Root, path string) error {
	base, err := predefined(root)
	if err != nil {
		return &Error{Op: "delete", Root: root, Path: path, Err: err}
	}
	// RegDeleteKey reports a key with children as access denied; check first
	// so callers can tell it apart from a real permission problem.
	k, err := registry.OpenKey(base, path, registry.QUERY_VALUE|registry.ENUMERATE_SUB_KEYS)
	if err != nil {
		return &Error{Op: "delete", Root: root, Path: path, Err: err}
	}
	info, err := k.Stat()
	_ = k.Close()
	if err == nil && info.SubKeyCount > 0 {
		return &Error{Op: "delete", Root: root, Path: path, Err: ErrHasSubkeys}
	}
	if err := registry.DeleteKey(base, path); err != nil {
		return &Error{Op: "delete", Root: root, Path: path, Err: err}
	}
	return nil
}

// DeleteTree deletes the children of path depth first, then path itself.
func (s registryStore) DeleteTree(root Root, path string) error {
	base, err := predefined(root)
	if err != nil {
		return &Error{Op: "delete tree", Root: root, Path: path, Err: err}
	}
	k, err := registry.OpenKey(base, path, registry.ENUMERATE_SUB_KEYS)
	if err != nil {
		return &Error{Op: "delete tree", Root: root, Path: path, Err: err}
	}
	names, err := k.ReadSubKeyNames(-1)
	_ = k.Close()
	if err != nil {
		return &Error{Op: "delete tree", Root: root, Path: path, Err: err}
	}
	for _, n := range names {
		if err := s.DeleteTree(root, path+`\`+n); err != nil {
			return err
		}
	}
	if err := registry.DeleteKey(base, path); err != nil {
		return &Error{Op: "delete tree", Root: root, Path: path, Err: err}
	}
	return nil
}

// NotifyEnvironmentChange broadcasts WM_SETTINGCHANGE("Environment") so
// Explorer and other top-level windows reload the environment block.
func (registryStore) NotifyEnvironmentChange() error {
	env, err := windows.UTF16PtrFromString("Environment")
	if err != nil {
		return err
	}
	var result uintptr
	ret, _, callErr := procSendMessageTimeout.Call(
		hwndBroadcast,
		wmSettingChange,
		0,
		uintptr(unsafe.Pointer(env)),
		smtoAbortIfHung,
		notifyTimeoutMS,
		uintptr(unsafe.Pointer(&result)),
	)
	if ret == 0 {
		return fmt.Errorf("broadcast WM_SETTINGCHANGE: %w", callErr)
	}
	return nil
}

type registryKey struct {
	k    registry.Key
	root Root
	path string
}

func (r *registryKey) GetString(name string) (string, error) {
	v, _, err := r.k.GetStringValue(name)
	if err != nil {
		return "", &Error{Op: "get", Root: r.root, Path: r.path, Name: name, Err: err}
	}
	return v, nil
}

// SetString keeps REG_EXPAND_SZ values expandable.
func (r *registryKey) SetString(name, value string) error {
	var err error
	if _, typ, gerr := r.k.GetStringValue(name); gerr == nil && typ == registry.EXPAND_SZ {
		err = r.k.SetExpandStringValue(name, value)
	} else {
		err = r.k.SetStringValue(name, value)
	}
	if err != nil {
		return &Error{Op: "set", Root: r.root, Path: r.path, Name: name, Err: err}
	}
	return nil
}

func (r *registryKey) DeleteValue(name string) error {
	if err := r.k.DeleteValue(name); err != nil {
		return &Error{Op: "delete value", Root: r.root, Path: r.path, Name: name, Err: err}
	}
	return nil
}

func (r *registryKey) Close() error { return r.k.Close() }
