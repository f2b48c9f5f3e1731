// Package assoc installs and removes the script file association and keeps
// the system PATHEXT list in step with it.
package assoc

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/VoxDroid/cargoscript/internal/config"
)

// Record derives every registry name the association uses.
type Record struct {
	config.Association
}

// NewRecord wraps an association identity.
func NewRecord(a config.Association) Record {
	return Record{Association: a}
}

func keyPath(parts ...string) string {
	return strings.Join(parts, `\`)
}

// ExtensionKey maps the extension to the ProgID.
func (r Record) ExtensionKey() string { return r.Extension }

// ProgIDKey holds the friendly name.
func (r Record) ProgIDKey() string { return r.ProgID }

// CommandKey holds the open command line.
func (r Record) CommandKey() string { return keyPath(r.ProgID, "shell", "open", "command") }

// DeleteChain lists the ProgID subtree leaf first. The extension key is not
// part of it since it may be shared with other handlers.
func (r Record) DeleteChain() []string {
	return []string{
		keyPath(r.ProgID, "shell", "open", "command"),
		keyPath(r.ProgID, "shell", "open"),
		keyPath(r.ProgID, "shell"),
		r.ProgID,
	}
}

// PathExtToken is the extension as added to PATHEXT.
func (r Record) PathExtToken() string {
	return cases.Upper(language.Und).String(r.Extension)
}

// CommandLine renders the open command for launcher. The path is embedded
// inside double quotes verbatim, so quotes and control characters are rejected.
func (r Record) CommandLine(launcher string) (string, error) {
	if launcher == "" {
		return "", &Error{Kind: KindInvalid, Blame: BlameSystem, Op: "build command line", Err: fmt.Errorf("empty launcher path")}
	}
	if i := strings.IndexFunc(launcher, func(c rune) bool { return c == '"' || unicode.IsControl(c) }); i >= 0 {
		bad, _ := utf8.DecodeRuneInString(launcher[i:])
		return "", &Error{
			Kind:  KindInvalid,
			Blame: BlameHuman,
			Op:    "build command line",
			Err:   fmt.Errorf("launcher path %q contains %q, which cannot be quoted in a shell command", launcher, bad),
		}
	}
	return fmt.Sprintf(`"%s" "%%1" %%*`, launcher), nil
}
