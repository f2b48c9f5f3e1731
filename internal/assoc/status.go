package assoc

import (
	"context"
	"strings"

	"github.com/VoxDroid/cargoscript/internal/config"
	"github.com/VoxDroid/cargoscript/internal/ctxlog"
	"github.com/VoxDroid/cargoscript/internal/keystore"
)

// Status describes what is currently registered.
type Status struct {
	Extension string
	ProgID    string
	// Handler is the ProgID the extension maps to, empty when unmapped.
	Handler        string
	ProgIDPresent  bool
	CommandLine    string
	CommandPresent bool
	PathExtToken   string
	OnPathExt      bool
	PathExtSet     bool
}

// Installed reports whether double-clicking a script would reach our handler.
func (s *Status) Installed() bool {
	return strings.EqualFold(s.Handler, s.ProgID) && s.CommandPresent
}

// Status reads the association and PATHEXT without changing anything.
// Missing keys are reported in the result, not as errors.
func (in *Installer) Status(ctx context.Context) (*Status, error) {
	m := mutator{store: in.Store, log: ctxlog.FromContext(ctx)}
	st := &Status{
		Extension:    in.Record.Extension,
		ProgID:       in.Record.ProgID,
		PathExtToken: in.Record.PathExtToken(),
	}
	var err error
	if st.Handler, _, err = m.readString(keystore.ClassesRoot, in.Record.ExtensionKey(), ""); err != nil {
		return nil, classify("status", err)
	}
	if st.ProgIDPresent, err = m.keyExists(keystore.ClassesRoot, in.Record.ProgIDKey()); err != nil {
		return nil, classify("status", err)
	}
	if st.CommandLine, st.CommandPresent, err = m.readString(keystore.ClassesRoot, in.Record.CommandKey(), ""); err != nil {
		return nil, classify("status", err)
	}
	var pathext string
	if pathext, st.PathExtSet, err = m.readString(keystore.LocalMachine, config.EnvironmentKey, config.PathExtValue); err != nil {
		return nil, classify("status", err)
	}
	st.OnPathExt = ParsePathExt(pathext).Contains(st.PathExtToken)
	return st, nil
}
