package workflow

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern: ${stepId.key} or ${inputKey}, dotted paths into the merged
// context environment.
var placeholderRe = regexp.MustCompile(`\$\{([a-zA-Z0-9_][a-zA-Z0-9_.\-]*)\}`)

// Interpolate substitutes ${path} placeholders in a config value from
// the run's merged data environment. Unresolved placeholders become the
// empty string.
func Interpolate(s string, env map[string]any) string {
	if s == "" || !strings.Contains(s, "${") {
		return s
	}

	return placeholderRe.ReplaceAllStringFunc(s, func(match string) string {
		path := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return resolvePath(path, env)
	})
}

func resolvePath(path string, env map[string]any) string {
	parts := strings.Split(path, ".")
	var current any = env
	for _, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return ""
		}
		current, ok = m[part]
		if !ok {
			return ""
		}
	}
	switch v := current.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
