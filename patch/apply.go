package patch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	jsonpatch "github.com/evanphx/json-patch/v5"
)

// Coercer rewrites the value written to the top-level field key before the
// patch runs, e.g. to turn "3" into 3 for a count field.
type Coercer func(key string, value any) any

type ApplyOption func(*applyOptions)

type applyOptions struct {
	coerce Coercer
}

// WithCoercer runs c on every add or replace that targets a whole top-level
// field. Writes into nested elements are left alone.
func WithCoercer(c Coercer) ApplyOption {
	return func(o *applyOptions) { o.coerce = c }
}

// Apply runs ops against current and decodes the result back into T. A patch
// that would leave a value of the wrong type in a field fails with
// ErrTypeMismatch and current is left untouched.
func Apply[T any](current T, ops []Operation, opts ...ApplyOption) (T, error) {
	if len(ops) == 0 {
		return current, nil
	}
	var o applyOptions
	for _, opt := range opts {
		opt(&o)
	}

	doc, err := sonic.Marshal(current)
	if err != nil {
		return current, fmt.Errorf("encoding application: %w", err)
	}
	var tree any
	if err := sonic.Unmarshal(doc, &tree); err != nil {
		return current, fmt.Errorf("decoding application tree: %w", err)
	}

	prepared := make([]Operation, 0, len(ops))
	for _, op := range ops {
		op, keep := fixOperation(tree, op)
		if !keep {
			continue
		}
		if o.coerce != nil && op.Op != OperationRemove && op.Path == "/"+escapeJSONPointer(TopLevelKey(op.Path)) {
			op.Value = o.coerce(TopLevelKey(op.Path), op.Value)
		}
		prepared = append(prepared, op)
	}
	if len(prepared) == 0 {
		return current, nil
	}

	raw, err := sonic.Marshal(prepared)
	if err != nil {
		return current, fmt.Errorf("encoding operations: %w", err)
	}
	p, err := jsonpatch.DecodePatch(raw)
	if err != nil {
		return current, fmt.Errorf("decoding operations: %w", err)
	}
	patched, err := p.Apply(doc)
	if err != nil {
		return current, fmt.Errorf("applying operations: %w", err)
	}

	var result T
	if err := sonic.Unmarshal(patched, &result); err != nil {
		return current, fmt.Errorf("%w: %w", ErrTypeMismatch, err)
	}
	return result, nil
}

// FixOperations turns replace on a missing path into add and drops removes
// of paths that do not exist, so a stale patch does not fail as a whole.
func FixOperations(currentJSON []byte, ops []Operation) []Operation {
	var tree any
	if err := sonic.Unmarshal(currentJSON, &tree); err != nil {
		return ops
	}
	fixed := make([]Operation, 0, len(ops))
	for _, op := range ops {
		if op, keep := fixOperation(tree, op); keep {
			fixed = append(fixed, op)
		}
	}
	return fixed
}

func fixOperation(tree any, op Operation) (Operation, bool) {
	_, found := resolve(tree, op.Path)
	switch {
	case op.Op == OperationReplace && !found:
		op.Op = OperationAdd
	case op.Op == OperationRemove && !found:
		return op, false
	}
	return op, true
}

// resolve walks a decoded JSON tree along pointer.
func resolve(tree any, pointer string) (any, bool) {
	if pointer == "" {
		return tree, true
	}
	if pointer[0] != '/' {
		return nil, false
	}
	node := tree
	for _, token := range strings.Split(pointer[1:], "/") {
		token = unescapeJSONPointer(token)
		switch n := node.(type) {
		case map[string]any:
			next, ok := n[token]
			if !ok {
				return nil, false
			}
			node = next
		case []any:
			i, err := strconv.Atoi(token)
			if err != nil || i < 0 || i >= len(n) {
				return nil, false
			}
			node = n[i]
		default:
			return nil, false
		}
	}
	return node, true
}

// TopLevelKey returns the first reference token of path.
func TopLevelKey(path string) string {
	path = strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		path = path[:i]
	}
	return unescapeJSONPointer(path)
}

func unescapeJSONPointer(token string) string {
	token = strings.ReplaceAll(token, "~1", "/")
	return strings.ReplaceAll(token, "~0", "~")
}

func escapeJSONPointer(token string) string {
	token = strings.ReplaceAll(token, "~", "~0")
	return strings.ReplaceAll(token, "/", "~1")
}
