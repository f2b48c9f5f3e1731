package assoc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/VoxDroid/cargoscript/internal/config"
	"github.com/VoxDroid/cargoscript/internal/ctxlog"
	"github.com/VoxDroid/cargoscript/internal/keystore"
)

// Installer runs the install, uninstall and status operations against a Store.
// It keeps no state between calls; every operation re-reads the store.
type Installer struct {
	Store  keystore.Store
	Record Record
	// Executable returns the path of the running program. The launcher is
	// looked up next to it.
	Executable func() (string, error)
	Out        io.Writer
}

// New returns an Installer for the default association.
func New(store keystore.Store, out io.Writer) *Installer {
	return &Installer{
		Store:      store,
		Record:     NewRecord(config.DefaultAssociation()),
		Executable: os.Executable,
		Out:        out,
	}
}

// InstallOptions controls Install.
type InstallOptions struct {
	AmendPathExt bool
	DryRun       bool
}

// Launcher resolves the companion launcher next to the running executable.
func (in *Installer) Launcher() (string, error) {
	exe := in.Executable
	if exe == nil {
		exe = os.Executable
	}
	p, err := exe()
	if err != nil {
		return "", &Error{Kind: KindIO, Op: "determine current executable", Err: err}
	}
	return ResolveLauncher(p, in.Record.LauncherName)
}

// PlanInstall lists what Install would do, in order.
func PlanInstall(r Record, commandLine string, amendPathExt bool) []string {
	actions := []string{
		fmt.Sprintf("Set %s to %s", keystore.FullPath(keystore.ClassesRoot, r.ExtensionKey()), r.ProgID),
		fmt.Sprintf("Set %s to %s", keystore.FullPath(keystore.ClassesRoot, r.ProgIDKey()), r.FriendlyName),
		fmt.Sprintf("Set %s to %s", keystore.FullPath(keystore.ClassesRoot, r.CommandKey()), commandLine),
	}
	if amendPathExt {
		actions = append(actions, fmt.Sprintf("Add %s to %s in %s if missing",
			r.PathExtToken(), config.PathExtValue, keystore.FullPath(keystore.LocalMachine, config.EnvironmentKey)))
	}
	return actions
}

// Install registers the association and, if asked, adds the extension to
// PATHEXT. It stops at the first failure; keys written before it stay.
func (in *Installer) Install(ctx context.Context, opts InstallOptions) error {
	log := ctxlog.FromContext(ctx)
	p := newPrinter(in.Out)

	launcher, err := in.Launcher()
	if err != nil {
		return err
	}
	commandLine, err := in.Record.CommandLine(launcher)
	if err != nil {
		return err
	}
	log.Debug("resolved launcher", "path", launcher)

	if opts.DryRun {
		p.Plain("Planned actions for file association install:")
		for _, a := range PlanInstall(in.Record, commandLine, opts.AmendPathExt) {
			p.Plain("- %s", a)
		}
		return nil
	}

	m := mutator{store: in.Store, log: log}
	steps := []struct{ path, value string }{
		{in.Record.ExtensionKey(), in.Record.ProgID},
		{in.Record.ProgIDKey(), in.Record.FriendlyName},
		{in.Record.CommandKey(), commandLine},
	}
	for _, s := range steps {
		if err := m.createOrSet(keystore.ClassesRoot, s.path, "", s.value); err != nil {
			return in.fail(p, "install", err)
		}
	}
	p.Done("Registered %s file association (%s).", in.Record.Extension, in.Record.ProgID)
	p.Plain("- Handler set to: %s", launcher)

	if !opts.AmendPathExt {
		return nil
	}
	token := in.Record.PathExtToken()
	changed, err := in.editPathExt(ctx, AddToken)
	if err != nil {
		return in.fail(p, "install", err)
	}
	if changed {
		p.Done("Added `%s` to %s.  You may need to log out for the change to take effect.", token, config.PathExtValue)
	} else {
		p.Notice("%s already contains `%s`; left unchanged.", config.PathExtValue, token)
	}
	return nil
}

// fail classifies a store error, printing the elevation hint for permission failures.
func (in *Installer) fail(p *printer, op string, err error) error {
	e := classify(op, err)
	if e.Kind == KindPermission {
		p.Alert(AccessDeniedMessage)
	}
	return e
}

// editPathExt reads PATHEXT, applies edit and writes the result back only
// when it changed. The key is opened for writing only in that case.
func (in *Installer) editPathExt(ctx context.Context, edit func(PathExt, string) (PathExt, bool)) (bool, error) {
	log := ctxlog.FromContext(ctx)
	k, err := in.Store.OpenKey(keystore.LocalMachine, config.EnvironmentKey, keystore.Read)
	if err != nil {
		return false, err
	}
	cur, err := k.GetString(config.PathExtValue)
	_ = k.Close()
	if err != nil {
		return false, err
	}

	next, changed := edit(ParsePathExt(cur), in.Record.PathExtToken())
	if !changed {
		log.Debug("PATHEXT unchanged", "value", cur)
		return false, nil
	}

	k, err = in.Store.OpenKey(keystore.LocalMachine, config.EnvironmentKey, keystore.ReadWrite)
	if err != nil {
		return false, err
	}
	defer func() { _ = k.Close() }()
	if err := k.SetString(config.PathExtValue, next.String()); err != nil {
		return false, err
	}
	log.Info("updated PATHEXT", "from", cur, "to", next.String())

	if n, ok := in.Store.(keystore.Notifier); ok {
		if err := n.NotifyEnvironmentChange(); err != nil {
			log.Warn("environment change broadcast failed", "err", err)
		}
	}
	return true, nil
}

// missingPathExt reports whether err means PATHEXT itself is not set.
func missingPathExt(err error) bool {
	var kerr *keystore.Error
	return errors.As(err, &kerr) && kerr.Name == config.PathExtValue && errors.Is(err, fs.ErrNotExist)
}
