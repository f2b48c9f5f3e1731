package assoc

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	verbatimPrefix    = `\\?\`
	verbatimUNCPrefix = `\\?\UNC\`
)

// ResolveLauncher canonicalizes exe and returns the path of its sibling
// launcher called name. The launcher must exist.
func ResolveLauncher(exe, name string) (string, error) {
	abs, err := filepath.Abs(exe)
	if err != nil {
		return "", &Error{Kind: KindIO, Op: "resolve executable", Err: err}
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", &Error{Kind: KindIO, Op: "canonicalize " + abs, Err: err}
	}
	launcher := filepath.Join(filepath.Dir(canonical), name)
	info, err := os.Stat(launcher)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", &Error{Kind: KindNotFound, Blame: BlameHuman, Op: "resolve launcher", Err: fmt.Errorf("%q not found", launcher)}
	case err != nil:
		return "", &Error{Kind: KindIO, Op: "resolve launcher", Err: err}
	case info.IsDir():
		return "", &Error{Kind: KindNotFound, Blame: BlameHuman, Op: "resolve launcher", Err: fmt.Errorf("%q is a directory", launcher)}
	}
	return TrimVerbatimPrefix(launcher), nil
}

// TrimVerbatimPrefix strips the extended-length prefix Explorer cannot parse
// in a command line. \\?\UNC\server\share becomes \\server\share.
func TrimVerbatimPrefix(p string) string {
	switch {
	case strings.HasPrefix(p, verbatimUNCPrefix):
		return `\\` + p[len(verbatimUNCPrefix):]
	case strings.HasPrefix(p, verbatimPrefix):
		return p[len(verbatimPrefix):]
	}
	return p
}
