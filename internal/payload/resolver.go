package payload

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	markerPattern     = regexp.MustCompile(`\{\{([^{}]+)\}\}`)
	positionalPattern = regexp.MustCompile(`\{\{\s*(\d+)\s*\}\}`)
)

// MissingPolicy decides what an unresolvable marker becomes.
type MissingPolicy int

const (
	// MissingEmpty replaces the marker with "".
	MissingEmpty MissingPolicy = iota
	// MissingKeep leaves the original {{token}} in place.
	MissingKeep
)

// Resolver substitutes {{path}} markers with values from a Source. Numeric
// markers such as {{1}} belong to the provider and are never touched.
type Resolver struct {
	Missing MissingPolicy
}

// Resolve uses the default empty-string policy.
func Resolve(text string, src Source) string {
	return Resolver{}.Resolve(text, src)
}

func (r Resolver) Resolve(text string, src Source) string {
	if !strings.Contains(text, "{{") {
		return text
	}
	return markerPattern.ReplaceAllStringFunc(text, func(marker string) string {
		token := strings.TrimSpace(marker[2 : len(marker)-2])
		if token == "" || isDigits(token) {
			return marker
		}
		if v, ok := lookup(src, token); ok {
			return v
		}
		if r.Missing == MissingKeep {
			return marker
		}
		return ""
	})
}

func lookup(src Source, path string) (string, bool) {
	if src == nil {
		return "", false
	}
	if fs, ok := src.(FormattedSource); ok && !strings.Contains(path, ".") {
		if v, ok := fs.GetFormatted(path); ok && v != "" {
			return v, true
		}
	}
	v, ok := src.Get(path)
	if !ok || v == nil {
		return "", false
	}
	return Display(v), true
}

// Display renders a field value the way it should appear inside message text.
func Display(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format(time.DateOnly)
		}
		return val.Format(time.DateTime)
	case *time.Time:
		if val == nil {
			return ""
		}
		return Display(*val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case fmt.Stringer:
		return val.String()
	}
	return fmt.Sprint(v)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// PositionalMarkers returns the distinct numbered markers in order of first
// appearance, as their numbers.
func PositionalMarkers(text string) []int {
	var out []int
	seen := map[int]struct{}{}
	for _, m := range positionalPattern.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// replacePositional substitutes numbered markers whose "{{n}}" key is present
// in values. Others are left for the provider.
func replacePositional(text string, values map[string]string) string {
	if len(values) == 0 {
		return text
	}
	return positionalPattern.ReplaceAllStringFunc(text, func(marker string) string {
		n := positionalPattern.FindStringSubmatch(marker)[1]
		if v, ok := values["{{"+n+"}}"]; ok {
			return v
		}
		return marker
	})
}

func sampleValues(markers []int) []string {
	out := make([]string, len(markers))
	for i, n := range markers {
		out[i] = "Sample" + strconv.Itoa(n)
	}
	return out
}
