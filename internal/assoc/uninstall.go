package assoc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/VoxDroid/cargoscript/internal/config"
	"github.com/VoxDroid/cargoscript/internal/ctxlog"
	"github.com/VoxDroid/cargoscript/internal/keystore"
)

// UninstallOptions controls Uninstall.
type UninstallOptions struct {
	DryRun bool
}

// PlanUninstall lists what Uninstall would do, in order.
func PlanUninstall(r Record) []string {
	actions := []string{}
	for _, k := range r.DeleteChain() {
		actions = append(actions, fmt.Sprintf("Delete %s", keystore.FullPath(keystore.ClassesRoot, k)))
	}
	actions = append(actions,
		fmt.Sprintf("Delete %s if it still maps to %s", keystore.FullPath(keystore.ClassesRoot, r.ExtensionKey()), r.ProgID),
		fmt.Sprintf("Remove %s from %s in %s if present",
			r.PathExtToken(), config.PathExtValue, keystore.FullPath(keystore.LocalMachine, config.EnvironmentKey)),
	)
	return actions
}

// Uninstall removes the association and the PATHEXT entry. Keys that are
// already gone count as done, so running it from any partial state converges.
func (in *Installer) Uninstall(ctx context.Context, opts UninstallOptions) error {
	log := ctxlog.FromContext(ctx)
	p := newPrinter(in.Out)

	if opts.DryRun {
		p.Plain("Planned actions for file association uninstall:")
		for _, a := range PlanUninstall(in.Record) {
			p.Plain("- %s", a)
		}
		return nil
	}

	m := mutator{store: in.Store, log: log}
	missing, deleted := 0, 0
	for _, path := range in.Record.DeleteChain() {
		out, err := m.deleteOwned(keystore.ClassesRoot, path)
		if err != nil {
			return in.fail(p, "uninstall", err)
		}
		if out == AlreadyAbsent {
			missing++
			continue
		}
		deleted++
	}

	out, foreign, err := in.removeExtension(m, p)
	if err != nil {
		return in.fail(p, "uninstall", err)
	}
	switch {
	case foreign:
	case out == AlreadyAbsent:
		missing++
	default:
		deleted++
	}

	if missing > 0 {
		p.Notice("Ignored %d missing registry entries.", missing)
	}
	if deleted > 0 {
		p.Done("Deleted %s file association (%s).", in.Record.Extension, in.Record.ProgID)
	}

	token := in.Record.PathExtToken()
	changed, err := in.editPathExt(ctx, RemoveToken)
	switch {
	case missingPathExt(err):
		p.Notice("%s is not set; nothing to remove.", config.PathExtValue)
	case err != nil:
		return in.fail(p, "uninstall", err)
	case changed:
		p.Done("Removed `%s` from %s.  You may need to log out for the change to take effect.", token, config.PathExtValue)
	default:
		p.Notice("%s does not contain `%s`; left unchanged.", config.PathExtValue, token)
	}
	return nil
}

// removeExtension deletes the extension key when it still points at our
// ProgID. A key mapped to another handler is left alone. A key that also holds
// subkeys keeps them and only loses its default value. foreign is true when
// the key belongs to another handler.
func (in *Installer) removeExtension(m mutator, p *printer) (out Outcome, foreign bool, err error) {
	ext := in.Record.ExtensionKey()
	owner, ok, err := m.readString(keystore.ClassesRoot, ext, "")
	if err != nil {
		return Deleted, false, err
	}
	if !ok {
		return AlreadyAbsent, false, nil
	}
	if !strings.EqualFold(owner, in.Record.ProgID) {
		p.Notice("%s is associated with %s; left unchanged.", ext, owner)
		return AlreadyAbsent, true, nil
	}

	out, err = m.deleteIfPresent(keystore.ClassesRoot, ext)
	if !errors.Is(err, keystore.ErrHasSubkeys) {
		return out, false, err
	}
	k, err := in.Store.OpenKey(keystore.ClassesRoot, ext, keystore.ReadWrite)
	if err != nil {
		return Deleted, false, err
	}
	defer func() { _ = k.Close() }()
	if err := k.DeleteValue(""); err != nil {
		return Deleted, false, err
	}
	m.log.Debug("cleared extension default value", "key", keystore.FullPath(keystore.ClassesRoot, ext))
	return Deleted, false, nil
}
