package assoc

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/VoxDroid/cargoscript/internal/config"
	"github.com/VoxDroid/cargoscript/internal/keystore"
)

const defaultPathExt = ".COM;.EXE;.BAT;.CMD;.VBS;.VBE;.JS;.JSE;.WSF;.WSH;.MSC"

type fixture struct {
	store    *keystore.Memory
	inst     *Installer
	out      *bytes.Buffer
	launcher string
}

func newFixture(t *testing.T, pathext string) *fixture {
	t.Helper()
	rec := NewRecord(config.DefaultAssociation())
	dir, exe := writeBinaries(t, rec.LauncherName, true)
	store := keystore.NewMemory()
	store.Seed(keystore.LocalMachine, config.EnvironmentKey, config.PathExtValue, pathext)
	out := &bytes.Buffer{}
	return &fixture{
		store: store,
		inst: &Installer{
			Store:      store,
			Record:     rec,
			Executable: func() (string, error) { return exe, nil },
			Out:        out,
		},
		out:      out,
		launcher: filepath.Join(dir, rec.LauncherName),
	}
}

func (f *fixture) pathext(t *testing.T) string {
	t.Helper()
	v, ok := f.store.Value(keystore.LocalMachine, config.EnvironmentKey, config.PathExtValue)
	require.True(t, ok)
	return v
}

func (f *fixture) install(t *testing.T, opts InstallOptions) {
	t.Helper()
	require.NoError(t, f.inst.Install(context.Background(), opts))
}

func (f *fixture) uninstall(t *testing.T) {
	t.Helper()
	require.NoError(t, f.inst.Uninstall(context.Background(), UninstallOptions{}))
}

func TestInstallRegistersAssociation(t *testing.T) {
	f := newFixture(t, defaultPathExt)
	f.install(t, InstallOptions{})

	v, ok := f.store.Value(keystore.ClassesRoot, ".crs", "")
	require.True(t, ok)
	require.Equal(t, "CargoScript.Crs", v)
	v, ok = f.store.Value(keystore.ClassesRoot, "CargoScript.Crs", "")
	require.True(t, ok)
	require.Equal(t, "Cargo Script", v)
	v, ok = f.store.Value(keystore.ClassesRoot, `CargoScript.Crs\shell\open\command`, "")
	require.True(t, ok)
	require.Equal(t, `"`+f.launcher+`" "%1" %*`, v)

	require.Equal(t, defaultPathExt, f.pathext(t))
	require.Zero(t, f.store.Notifications())
	require.Contains(t, f.out.String(), "Registered .crs file association")
	require.Contains(t, f.out.String(), "Handler set to: "+f.launcher)
	require.NotContains(t, f.out.String(), "PATHEXT")
}

func TestInstallAmendsPathExt(t *testing.T) {
	f := newFixture(t, defaultPathExt)
	f.install(t, InstallOptions{AmendPathExt: true})

	require.Equal(t, defaultPathExt+";.CRS", f.pathext(t))
	require.Equal(t, 1, f.store.Notifications())
	require.Contains(t, f.out.String(), "Added `.CRS` to PATHEXT")
	require.Contains(t, f.out.String(), "log out")
}

func TestInstallIsIdempotent(t *testing.T) {
	f := newFixture(t, defaultPathExt)
	f.install(t, InstallOptions{AmendPathExt: true})
	once := f.store.Snapshot()

	f.out.Reset()
	f.install(t, InstallOptions{AmendPathExt: true})
	if diff := cmp.Diff(once, f.store.Snapshot()); diff != "" {
		t.Fatalf("second install changed the store (-once +twice):\n%s", diff)
	}
	require.Equal(t, 1, f.store.Notifications(), "no-op PATHEXT edit must not notify")
	require.Contains(t, f.out.String(), "PATHEXT already contains `.CRS`")
}

func TestInstallSkipsPathExtWhenPresentInAnyCase(t *testing.T) {
	f := newFixture(t, ".COM;.crs;.EXE")
	f.install(t, InstallOptions{AmendPathExt: true})
	require.Equal(t, ".COM;.crs;.EXE", f.pathext(t))
	require.Zero(t, f.store.Notifications())
}

func TestInstallNoOpPathExtNeedsNoWriteAccess(t *testing.T) {
	f := newFixture(t, ".COM;.CRS")
	f.store.Deny(keystore.LocalMachine, config.EnvironmentKey)
	f.install(t, InstallOptions{AmendPathExt: true})
	require.NotContains(t, f.out.String(), AccessDeniedMessage)
}

func TestInstallMissingLauncher(t *testing.T) {
	f := newFixture(t, defaultPathExt)
	require.NoError(t, os.Remove(f.launcher))
	before := f.store.Snapshot()

	err := f.inst.Install(context.Background(), InstallOptions{AmendPathExt: true})
	require.Error(t, err)
	require.Equal(t, KindNotFound, KindOf(err))
	require.Equal(t, BlameHuman, BlameOf(err))
	require.Equal(t, before, f.store.Snapshot())
}

func TestInstallPermissionDeniedOnProgID(t *testing.T) {
	f := newFixture(t, defaultPathExt)
	f.store.Deny(keystore.ClassesRoot, "CargoScript.Crs")

	err := f.inst.Install(context.Background(), InstallOptions{AmendPathExt: true})
	require.Error(t, err)
	require.Equal(t, KindPermission, KindOf(err))
	require.Equal(t, BlameHuman, BlameOf(err))
	require.Contains(t, f.out.String(), AccessDeniedMessage)
	require.NotContains(t, f.out.String(), "Registered")

	// The extension key was written before the failure; nothing after it was.
	require.True(t, f.store.Exists(keystore.ClassesRoot, ".crs"))
	require.False(t, f.store.Exists(keystore.ClassesRoot, "CargoScript.Crs"))
	require.Equal(t, defaultPathExt, f.pathext(t))
	require.Zero(t, f.store.Notifications())

	// Re-running with access converges.
	f.store.Allow(keystore.ClassesRoot, "CargoScript.Crs")
	f.install(t, InstallOptions{AmendPathExt: true})
	require.Equal(t, defaultPathExt+";.CRS", f.pathext(t))
}

func TestInstallPermissionDeniedOnPathExt(t *testing.T) {
	f := newFixture(t, defaultPathExt)
	f.store.Deny(keystore.LocalMachine, config.EnvironmentKey)

	err := f.inst.Install(context.Background(), InstallOptions{AmendPathExt: true})
	require.Equal(t, KindPermission, KindOf(err))
	require.Contains(t, f.out.String(), "Registered .crs file association")
	require.Contains(t, f.out.String(), AccessDeniedMessage)
	require.Equal(t, defaultPathExt, f.pathext(t))
}

func TestInstallMissingEnvironmentKeyIsFatal(t *testing.T) {
	f := newFixture(t, defaultPathExt)
	f.store = keystore.NewMemory()
	f.inst.Store = f.store

	err := f.inst.Install(context.Background(), InstallOptions{AmendPathExt: true})
	require.Error(t, err)
	require.Equal(t, KindIO, KindOf(err))
	require.Equal(t, BlameSystem, BlameOf(err))
	// Registered but not Installed.
	require.True(t, f.store.Exists(keystore.ClassesRoot, `CargoScript.Crs\shell\open\command`))
}

func TestInstallExecutableUnknown(t *testing.T) {
	f := newFixture(t, defaultPathExt)
	before := f.store.Snapshot()
	f.inst.Executable = func() (string, error) { return "", os.ErrPermission }
	err := f.inst.Install(context.Background(), InstallOptions{})
	require.Equal(t, KindIO, KindOf(err))
	require.Equal(t, before, f.store.Snapshot())
}

func TestInstallRejectsQuoteInLauncherPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("quotes are not valid in Windows file names")
	}
	f := newFixture(t, defaultPathExt)
	dir := filepath.Join(t.TempDir(), `odd"dir`)
	require.NoError(t, os.Mkdir(dir, 0o755))
	exe := filepath.Join(dir, "cargo-script")
	for _, name := range []string{exe, filepath.Join(dir, f.inst.Record.LauncherName)} {
		require.NoError(t, os.WriteFile(name, []byte("exe"), 0o755))
	}
	f.inst.Executable = func() (string, error) { return exe, nil }
	before := f.store.Snapshot()

	err := f.inst.Install(context.Background(), InstallOptions{})
	require.Equal(t, KindInvalid, KindOf(err))
	require.Equal(t, BlameHuman, BlameOf(err))
	require.Equal(t, before, f.store.Snapshot())
}

func TestInstallDryRun(t *testing.T) {
	f := newFixture(t, defaultPathExt)
	before := f.store.Snapshot()
	f.install(t, InstallOptions{AmendPathExt: true, DryRun: true})

	require.Equal(t, before, f.store.Snapshot())
	out := f.out.String()
	require.Contains(t, out, "Planned actions for file association install:")
	require.Contains(t, out, `HKEY_CLASSES_ROOT\CargoScript.Crs\shell\open\command to "`+f.launcher+`" "%1" %*`)
	require.Contains(t, out, "Add .CRS to PATHEXT")
}

func TestUninstallAfterInstallRestoresPathExt(t *testing.T) {
	const orig = ".com;.Exe;.BAT;.py"
	f := newFixture(t, orig)
	f.install(t, InstallOptions{AmendPathExt: true})
	require.Equal(t, orig+";.CRS", f.pathext(t))

	f.out.Reset()
	f.uninstall(t)
	require.Equal(t, orig, f.pathext(t))
	require.Equal(t, []string{`HKEY_LOCAL_MACHINE\` + strings.ToLower(config.EnvironmentKey)}, nonRootKeys(f.store))
	require.Contains(t, f.out.String(), "Deleted .crs file association")
	require.Contains(t, f.out.String(), "Removed `.CRS` from PATHEXT")
	require.NotContains(t, f.out.String(), "Ignored")
	require.Equal(t, 2, f.store.Notifications())
}

func TestUninstallTwiceReportsAbsence(t *testing.T) {
	f := newFixture(t, defaultPathExt)
	f.install(t, InstallOptions{AmendPathExt: true})
	f.uninstall(t)
	once := f.store.Snapshot()

	f.out.Reset()
	f.uninstall(t)
	require.Equal(t, once, f.store.Snapshot())
	out := f.out.String()
	require.Contains(t, out, "Ignored 5 missing registry entries.")
	require.NotContains(t, out, "Deleted")
	require.Contains(t, out, "PATHEXT does not contain `.CRS`")
}

func TestUninstallPartialState(t *testing.T) {
	f := newFixture(t, defaultPathExt)
	f.store.Seed(keystore.ClassesRoot, `CargoScript.Crs\shell`, "", "")

	f.uninstall(t)
	require.False(t, f.store.Exists(keystore.ClassesRoot, "CargoScript.Crs"))
	require.Contains(t, f.out.String(), "Ignored 3 missing registry entries.")
	require.Contains(t, f.out.String(), "Deleted .crs file association")
}

func TestUninstallWithoutExtensionMapping(t *testing.T) {
	f := newFixture(t, ".COM;.crs")
	f.store.Seed(keystore.ClassesRoot, `CargoScript.Crs\shell\open\command`, "", `"x" "%1" %*`)

	f.uninstall(t)
	require.False(t, f.store.Exists(keystore.ClassesRoot, "CargoScript.Crs"))
	require.Equal(t, ".COM", f.pathext(t), "lower-case token must be removed")
	require.Contains(t, f.out.String(), "Ignored 1 missing registry entries.")
}

func TestUninstallLeavesForeignExtension(t *testing.T) {
	f := newFixture(t, defaultPathExt)
	f.install(t, InstallOptions{})
	f.store.Seed(keystore.ClassesRoot, ".crs", "", "Other.Handler")

	f.out.Reset()
	f.uninstall(t)
	v, ok := f.store.Value(keystore.ClassesRoot, ".crs", "")
	require.True(t, ok)
	require.Equal(t, "Other.Handler", v)
	require.Contains(t, f.out.String(), ".crs is associated with Other.Handler; left unchanged.")
	require.NotContains(t, f.out.String(), "Ignored")
}

func TestUninstallKeepsExtensionSubkeys(t *testing.T) {
	f := newFixture(t, defaultPathExt)
	f.install(t, InstallOptions{})
	f.store.Seed(keystore.ClassesRoot, `.crs\OpenWithProgids`, "Other.Handler", "")

	f.uninstall(t)
	require.True(t, f.store.Exists(keystore.ClassesRoot, `.crs\OpenWithProgids`))
	_, ok := f.store.Value(keystore.ClassesRoot, ".crs", "")
	require.False(t, ok, "default value should be cleared")
}

func TestUninstallRemovesExtraProgIDSubkeys(t *testing.T) {
	f := newFixture(t, defaultPathExt)
	f.install(t, InstallOptions{AmendPathExt: true})
	f.store.Seed(keystore.ClassesRoot, `CargoScript.Crs\DefaultIcon`, "", `C:\tools\crs.ico`)
	f.store.Seed(keystore.ClassesRoot, `CargoScript.Crs\shell\open\ddeexec`, "", "")

	f.out.Reset()
	f.uninstall(t)
	require.False(t, f.store.Exists(keystore.ClassesRoot, "CargoScript.Crs"))
	require.False(t, f.store.Exists(keystore.ClassesRoot, ".crs"))
	require.Equal(t, defaultPathExt, f.pathext(t))
	require.Contains(t, f.out.String(), "Deleted .crs file association")

	f.out.Reset()
	f.uninstall(t)
	require.Contains(t, f.out.String(), "Ignored 5 missing registry entries.")
}

func TestErrorsNameTheKeyOnce(t *testing.T) {
	f := newFixture(t, defaultPathExt)
	f.install(t, InstallOptions{})
	f.store.Deny(keystore.ClassesRoot, "CargoScript.Crs")

	err := f.inst.Uninstall(context.Background(), UninstallOptions{})
	require.Error(t, err)
	require.Equal(t, 1, strings.Count(err.Error(), `HKEY_CLASSES_ROOT\CargoScript.Crs`), err.Error())
	require.True(t, strings.HasPrefix(err.Error(), "uninstall: "), err.Error())

	f.store.Allow(keystore.ClassesRoot, "CargoScript.Crs")
	f.store.Deny(keystore.ClassesRoot, ".crs")
	err = f.inst.Install(context.Background(), InstallOptions{})
	require.Error(t, err)
	require.Equal(t, 1, strings.Count(err.Error(), `HKEY_CLASSES_ROOT\.crs`), err.Error())
	require.True(t, strings.HasPrefix(err.Error(), "install: "), err.Error())
}

func TestUninstallPermissionDenied(t *testing.T) {
	f := newFixture(t, defaultPathExt)
	f.install(t, InstallOptions{AmendPathExt: true})
	f.store.Deny(keystore.ClassesRoot, "CargoScript.Crs")

	f.out.Reset()
	err := f.inst.Uninstall(context.Background(), UninstallOptions{})
	require.Equal(t, KindPermission, KindOf(err))
	require.Contains(t, f.out.String(), AccessDeniedMessage)
	require.Equal(t, defaultPathExt+";.CRS", f.pathext(t))
}

func TestUninstallWithoutPathExtValue(t *testing.T) {
	f := newFixture(t, defaultPathExt)
	f.store = keystore.NewMemory()
	f.store.Seed(keystore.LocalMachine, config.EnvironmentKey, "Path", `C:\Windows`)
	f.inst.Store = f.store

	f.uninstall(t)
	require.Contains(t, f.out.String(), "PATHEXT is not set; nothing to remove.")
}

func TestUninstallMissingEnvironmentKeyIsFatal(t *testing.T) {
	f := newFixture(t, defaultPathExt)
	f.store = keystore.NewMemory()
	f.inst.Store = f.store

	err := f.inst.Uninstall(context.Background(), UninstallOptions{})
	require.Equal(t, KindIO, KindOf(err))
}

func TestUninstallDryRun(t *testing.T) {
	f := newFixture(t, defaultPathExt)
	f.install(t, InstallOptions{AmendPathExt: true})
	before := f.store.Snapshot()

	f.out.Reset()
	require.NoError(t, f.inst.Uninstall(context.Background(), UninstallOptions{DryRun: true}))
	require.Equal(t, before, f.store.Snapshot())
	require.Contains(t, f.out.String(), `- Delete HKEY_CLASSES_ROOT\CargoScript.Crs\shell\open\command`)
	require.Contains(t, f.out.String(), "Remove .CRS from PATHEXT")
}

func TestStatus(t *testing.T) {
	f := newFixture(t, defaultPathExt)
	st, err := f.inst.Status(context.Background())
	require.NoError(t, err)
	require.False(t, st.Installed())
	require.False(t, st.OnPathExt)
	require.True(t, st.PathExtSet)

	f.install(t, InstallOptions{AmendPathExt: true})
	st, err = f.inst.Status(context.Background())
	require.NoError(t, err)
	require.True(t, st.Installed())
	require.True(t, st.ProgIDPresent)
	require.Equal(t, "CargoScript.Crs", st.Handler)
	require.Equal(t, `"`+f.launcher+`" "%1" %*`, st.CommandLine)
	require.True(t, st.OnPathExt)
}

// nonRootKeys lists keys other than the implicit ancestors of the environment key.
func nonRootKeys(m *keystore.Memory) []string {
	env := `HKEY_LOCAL_MACHINE\` + strings.ToLower(config.EnvironmentKey)
	out := []string{}
	for _, k := range m.Keys() {
		if strings.HasPrefix(env, k+`\`) {
			continue
		}
		out = append(out, k)
	}
	return out
}
