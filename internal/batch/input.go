// Package batch fans out supervised profile fetches across an input list
// under a concurrency ceiling and streams per-item results.
package batch

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Normalize trims surrounding whitespace and leading "@" characters from a
// raw handle. NFKC folding runs first so full-width variants of the same
// handle compare equal.
func Normalize(raw string) string {
	s := norm.NFKC.String(raw)
	return strings.Trim(s, "@ \t\r\n")
}

// Admit normalizes the raw identifiers and drops the ones that are empty
// after trimming. Duplicates are collapsed to their first occurrence so no
// identifier is dispatched twice; input order is otherwise preserved.
func Admit(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	admitted := make([]string, 0, len(raw))
	for _, r := range raw {
		id := Normalize(r)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		admitted = append(admitted, id)
	}
	return admitted
}

// LoadIdentifiers reads raw identifiers from a file. YAML files hold a plain
// sequence of handles; anything else is treated as one handle per line with
// "#" comments.
func LoadIdentifiers(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "batch: read identifiers file %s", path)
	}

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		var ids []string
		if err := yaml.Unmarshal(data, &ids); err != nil {
			return nil, eris.Wrapf(err, "batch: parse identifiers file %s", path)
		}
		return ids, nil
	}

	var ids []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	return ids, nil
}
