package assoc

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/VoxDroid/cargoscript/internal/config"
	"github.com/VoxDroid/cargoscript/internal/keystore"
)

func TestRecordKeys(t *testing.T) {
	r := NewRecord(config.DefaultAssociation())
	require.Equal(t, ".crs", r.ExtensionKey())
	require.Equal(t, "CargoScript.Crs", r.ProgIDKey())
	require.Equal(t, `CargoScript.Crs\shell\open\command`, r.CommandKey())
	require.Equal(t, []string{
		`CargoScript.Crs\shell\open\command`,
		`CargoScript.Crs\shell\open`,
		`CargoScript.Crs\shell`,
		`CargoScript.Crs`,
	}, r.DeleteChain())
	require.Equal(t, ".CRS", r.PathExtToken())
}

func TestCommandLine(t *testing.T) {
	r := NewRecord(config.DefaultAssociation())
	got, err := r.CommandLine(`C:\Program Files\cargo-script\run-cargo-script.exe`)
	require.NoError(t, err)
	require.Equal(t, `"C:\Program Files\cargo-script\run-cargo-script.exe" "%1" %*`, got)
}

func TestCommandLineRejectsUnquotablePaths(t *testing.T) {
	r := NewRecord(config.DefaultAssociation())
	for _, p := range []string{`C:\odd"dir\run.exe`, "C:\\tab\there\\run.exe"} {
		_, err := r.CommandLine(p)
		require.Error(t, err, p)
		require.Equal(t, KindInvalid, KindOf(err))
		require.Equal(t, BlameHuman, BlameOf(err))
	}
	_, err := r.CommandLine("")
	require.Equal(t, KindInvalid, KindOf(err))
}

func TestClassify(t *testing.T) {
	perm := &keystore.Error{Op: "create", Root: keystore.ClassesRoot, Path: "X", Err: fs.ErrPermission}
	e := classify("install", perm)
	require.Equal(t, KindPermission, e.Kind)
	require.Equal(t, BlameHuman, e.Blame)
	require.ErrorIs(t, e, fs.ErrPermission)
	require.Contains(t, e.Error(), "install: create")

	e = classify("install", errors.New("boom"))
	require.Equal(t, KindIO, e.Kind)
	require.Equal(t, BlameSystem, e.Blame)
}

func TestBlameOfWrapped(t *testing.T) {
	inner := &Error{Kind: KindNotFound, Blame: BlameHuman, Err: errors.New("missing")}
	wrapped := fmt.Errorf("install: %w", inner)
	require.Equal(t, BlameHuman, BlameOf(wrapped))
	require.Equal(t, KindNotFound, KindOf(wrapped))
	require.Equal(t, BlameSystem, BlameOf(errors.New("plain")))
	require.Equal(t, "missing", inner.Error())
	require.Equal(t, "not found", KindNotFound.String())
}
