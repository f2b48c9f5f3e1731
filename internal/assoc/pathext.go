package assoc

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PathExt is the ordered token list stored in PATHEXT.
type PathExt []string

// ParsePathExt splits a PATHEXT value on ';'. Entries are kept verbatim,
// empty ones included, so String gives back the original value.
func ParsePathExt(s string) PathExt {
	if s == "" {
		return nil
	}
	return strings.Split(s, ";")
}

func (p PathExt) String() string { return strings.Join(p, ";") }

func sameToken(fold cases.Caser, entry, token string) bool {
	return fold.String(entry) == fold.String(token)
}

// Contains reports whether any entry matches token case-insensitively.
func (p PathExt) Contains(token string) bool {
	fold := cases.Fold()
	for _, e := range p {
		if sameToken(fold, e, token) {
			return true
		}
	}
	return false
}

// AddToken appends token in upper case unless an entry already matches it.
func AddToken(list PathExt, token string) (PathExt, bool) {
	if list.Contains(token) {
		return list, false
	}
	out := make(PathExt, 0, len(list)+1)
	out = append(out, list...)
	return append(out, cases.Upper(language.Und).String(token)), true
}

// RemoveToken drops every entry matching token case-insensitively.
func RemoveToken(list PathExt, token string) (PathExt, bool) {
	fold := cases.Fold()
	out := make(PathExt, 0, len(list))
	for _, e := range list {
		if sameToken(fold, e, token) {
			continue
		}
		out = append(out, e)
	}
	if len(out) == len(list) {
		return list, false
	}
	return out, true
}
