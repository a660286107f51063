package documents

import (
	"strconv"
	"strings"

	"github.com/gosimple/slug"
)

const (
	maxHandleLength = 200
	fallbackHandle  = "untitled"
)

// Slugify turns a name into a handle base: lowercase ASCII words joined by
// dashes, "untitled" when nothing survives.
func Slugify(name string) string {
	base := slug.Make(name)
	if len(base) > maxHandleLength {
		base = strings.TrimRight(base[:maxHandleLength], "-")
	}
	if base == "" {
		return fallbackHandle
	}
	return base
}

// pickHandle returns base if it is not in existing, else base-N for the
// smallest N >= 2 that is free.
func pickHandle(base string, existing []string) string {
	taken := make(map[string]struct{}, len(existing))
	for _, h := range existing {
		taken[h] = struct{}{}
	}
	if _, ok := taken[base]; !ok {
		return base
	}
	for n := 2; ; n++ {
		candidate := base + "-" + strconv.Itoa(n)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}
