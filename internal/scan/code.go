// Package scan turns scanned or typed codes into job, material and machine references.
package scan

import (
	"regexp"
	"strings"
)

type Type string

const (
	TypeJob      Type = "job"
	TypeMaterial Type = "material"
	TypeMachine  Type = "machine"
	TypeUnknown  Type = "unknown"
)

func (t Type) Valid() bool {
	switch t {
	case TypeJob, TypeMaterial, TypeMachine:
		return true
	}

	return false
}

// Prefix families, longest first within each type so MC- is not read as M-.
var prefixes = []struct {
	prefix string
	t      Type
}{
	{"MACH-", TypeMachine},
	{"MC-", TypeMachine},
	{"MAT-", TypeMaterial},
	{"M-", TypeMaterial},
	{"JOB-", TypeJob},
	{"J-", TypeJob},
	{"PER-", TypeJob},
}

func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func Classify(code string) Type {
	c := Normalize(code)

	for _, p := range prefixes {
		if strings.HasPrefix(c, p.prefix) && len(c) > len(p.prefix) {
			return p.t
		}
	}

	return TypeUnknown
}

var (
	scanPathRe = regexp.MustCompile(`(?i)/scan/([^/?#\s]+)`)
	idSegRe    = regexp.MustCompile(`(?i)(?:^|[/=])((?:MACH|MC|MAT|M|JOB|J|PER)-[A-Z0-9][A-Z0-9_-]*)(?:[/?#&]|$)`)
)

// ExtractID pulls an entity id out of a QR payload or URL. A /scan/ segment
// wins only when it carries a known prefix; otherwise any prefixed id in the
// path or query is preferred over it. Codes without a recognizable id are
// returned trimmed but otherwise unchanged, since they may be serial numbers
// or supplier SKUs.
func ExtractID(code string) string {
	c := strings.TrimSpace(code)

	seg := scanPathRe.FindStringSubmatch(c)
	if seg != nil && Classify(seg[1]) != TypeUnknown {
		return seg[1]
	}

	if m := idSegRe.FindStringSubmatch(c); m != nil {
		return m[1]
	}

	if seg != nil {
		return seg[1]
	}

	return c
}
