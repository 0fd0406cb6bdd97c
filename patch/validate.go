package patch

import (
	"fmt"
	"strings"
)

// ValidateOperations checks every op path against allowed. An empty allow-list
// permits everything. Array segments may be matched by "-" or "*" patterns.
func ValidateOperations(ops []Operation, allowed map[string]bool) error {
	for i, op := range ops {
		if err := validatePathAllowed(op.Path, allowed); err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
	}
	return nil
}

// AllowList builds the lookup set ValidateOperations expects.
func AllowList(paths []string) map[string]bool {
	allowed := make(map[string]bool, len(paths))
	for _, p := range paths {
		allowed[p] = true
	}
	return allowed
}

func validatePathAllowed(path string, allowed map[string]bool) error {
	if len(allowed) == 0 {
		return nil
	}
	if allowed[path] || matchesWildcard(path, allowed) {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrPathNotAllowed, path)
}

func matchesWildcard(path string, allowed map[string]bool) bool {
	segments := strings.Split(path, "/")
	return matchWildcardRecursive(segments, 0, allowed, false)
}

func matchWildcardRecursive(segments []string, index int, allowed map[string]bool, hasWildcard bool) bool {
	if index >= len(segments) {
		return hasWildcard && allowed[strings.Join(segments, "/")]
	}

	if index == 0 {
		return matchWildcardRecursive(segments, index+1, allowed, hasWildcard)
	}

	original := segments[index]
	defer func() { segments[index] = original }()

	for _, wildcard := range []string{"-", "*"} {
		segments[index] = wildcard
		if matchWildcardRecursive(segments, index+1, allowed, true) {
			return true
		}
	}

	segments[index] = original
	return matchWildcardRecursive(segments, index+1, allowed, hasWildcard)
}
