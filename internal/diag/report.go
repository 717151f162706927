package diag

import (
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	cerrors "github.com/civc-lang/civc/internal/errors"
)

// BuildReport assembles the --diag-json document: the cumulative error
// list plus identifier/operator usage counts, built incrementally with
// sjson rather than a hand-rolled struct tree (spec §A).
func BuildReport(errs []*cerrors.CompilerError, identCounts, binopCounts map[string]int) (string, error) {
	doc := "{}"
	var err error

	sorted := cerrors.SortedErrors(errs)
	for i, e := range sorted {
		base := "errors." + strconv.Itoa(i)
		if doc, err = sjson.Set(doc, base+".kind", e.Kind.String()); err != nil {
			return "", err
		}
		if doc, err = sjson.Set(doc, base+".message", e.Message); err != nil {
			return "", err
		}
		if doc, err = sjson.Set(doc, base+".line", e.Pos.Line); err != nil {
			return "", err
		}
		if doc, err = sjson.Set(doc, base+".column", e.Pos.Column); err != nil {
			return "", err
		}
	}

	if doc, err = setCounts(doc, "identifiers", identCounts); err != nil {
		return "", err
	}
	if doc, err = setCounts(doc, "operators", binopCounts); err != nil {
		return "", err
	}

	return doc, nil
}

func setCounts(doc, field string, counts map[string]int) (string, error) {
	var err error
	for _, name := range sortedKeys(counts) {
		doc, err = sjson.Set(doc, field+"."+sjsonKey(name), counts[name])
		if err != nil {
			return "", err
		}
	}
	return doc, nil
}

// sjsonKey backslash-escapes the path metacharacters gjson/sjson
// reserve (".", "*", "?", "|", "#", "@") so operator names like "*"
// are set and read back as literal keys instead of path wildcards.
func sjsonKey(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ReadIdentifierCount queries a previously-built report document for a
// single identifier's count, using gjson rather than unmarshaling the
// whole document — useful for tooling that only needs one field.
func ReadIdentifierCount(doc, name string) (int, bool) {
	res := gjson.Get(doc, "identifiers."+sjsonKey(name))
	if !res.Exists() {
		return 0, false
	}
	return int(res.Int()), true
}

// ReadBinopCount queries a previously-built report document for a single
// operator's usage count, e.g. "*" or "/".
func ReadBinopCount(doc, op string) (int, bool) {
	res := gjson.Get(doc, "operators."+sjsonKey(op))
	if !res.Exists() {
		return 0, false
	}
	return int(res.Int()), true
}
