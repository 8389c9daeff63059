package cart

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

var lineNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("aura-taste.cart-line"))

// LineID derives the identity of a selection. Extras are compared as a set,
// so the same extras in a different order give the same id.
func LineID(productRef, size string, extras []string) string {
	set := NormalizeExtras(extras)
	sort.Strings(set)
	var b strings.Builder
	b.WriteString(strings.TrimSpace(productRef))
	b.WriteByte(0)
	b.WriteString(strings.TrimSpace(size))
	b.WriteByte(0)
	b.WriteString(strings.Join(set, "\x1f"))
	return uuid.NewSHA1(lineNamespace, []byte(b.String())).String()
}

// NormalizeExtras trims, drops blanks and removes duplicates, keeping the
// first-seen order.
func NormalizeExtras(extras []string) []string {
	if len(extras) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(extras))
	out := make([]string, 0, len(extras))
	for _, e := range extras {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
