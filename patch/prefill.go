package patch

import (
	"fmt"
	"reflect"

	"github.com/bytedance/sonic"
)

// Prefill returns the operations that copy every non-zero value of initial
// onto current. Zero values in initial never overwrite current.
func Prefill[T any](current, initial T) ([]Operation, error) {
	currentMap, err := toMap(current)
	if err != nil {
		return nil, fmt.Errorf("failed to convert current state: %w", err)
	}
	initialMap, err := toMap(initial)
	if err != nil {
		return nil, fmt.Errorf("failed to convert initial state: %w", err)
	}

	ops := make([]Operation, 0)
	prefillMap("", currentMap, initialMap, &ops)
	return ops, nil
}

func toMap(v any) (map[string]any, error) {
	data, err := sonic.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := sonic.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func prefillMap(prefix string, current, initial map[string]any, ops *[]Operation) {
	for key, initialValue := range initial {
		if isZeroValue(initialValue) {
			continue
		}

		path := prefix + "/" + escapeJSONPointer(key)
		currentValue, existsInCurrent := current[key]

		switch v := initialValue.(type) {
		case map[string]any:
			if currentMap, ok := currentValue.(map[string]any); ok {
				prefillMap(path, currentMap, v, ops)
			} else {
				*ops = append(*ops, Replace(path, v))
			}
			continue
		case []any:
			if !anyNonZero(v) {
				continue
			}
		}

		switch {
		case !existsInCurrent:
			*ops = append(*ops, Operation{Op: OperationAdd, Path: path, Value: initialValue})
		case !reflect.DeepEqual(currentValue, initialValue):
			*ops = append(*ops, Replace(path, initialValue))
		}
	}
}

// anyNonZero reports whether a list carries information beyond placeholder
// entries, e.g. empty breed slots that only hold their priority.
func anyNonZero(list []any) bool {
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			if !isZeroValue(item) {
				return true
			}
			continue
		}
		for k, v := range m {
			if k == "priority" {
				continue
			}
			if !isZeroValue(v) {
				return true
			}
		}
	}
	return false
}

func isZeroValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case float64:
		return val == 0
	case bool:
		return !val
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	default:
		return false
	}
}
