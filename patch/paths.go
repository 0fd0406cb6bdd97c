package patch

import (
	"reflect"
	"strings"
)

// PointerPaths lists the JSON pointers of every exported field reachable
// from T. Slice elements appear as "-" and map values as "*".
func PointerPaths[T any]() []string {
	var zero T
	typ := reflect.TypeOf(zero)
	if typ == nil {
		return []string{}
	}
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return []string{}
	}

	paths := make([]string, 0)
	collectPaths(typ, "", &paths, make(map[reflect.Type]bool))
	return paths
}

func collectPaths(typ reflect.Type, prefix string, paths *[]string, visited map[reflect.Type]bool) {
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if visited[typ] {
		return
	}

	switch typ.Kind() {
	case reflect.Struct:
		visited[typ] = true
		defer delete(visited, typ)

		for i := 0; i < typ.NumField(); i++ {
			field := typ.Field(i)
			if !field.IsExported() {
				continue
			}
			name := jsonFieldName(field)
			if name == "-" {
				continue
			}
			fieldPath := prefix + "/" + escapeJSONPointer(name)
			*paths = append(*paths, fieldPath)
			collectPaths(field.Type, fieldPath, paths, visited)
		}

	case reflect.Slice, reflect.Array:
		arrayPath := prefix + "/-"
		*paths = append(*paths, arrayPath)
		if isStructLike(typ.Elem()) {
			collectPaths(typ.Elem(), arrayPath, paths, visited)
		}

	case reflect.Map:
		mapPath := prefix + "/*"
		*paths = append(*paths, mapPath)
		if isStructLike(typ.Elem()) {
			collectPaths(typ.Elem(), mapPath, paths, visited)
		}
	}
}

func isStructLike(t reflect.Type) bool {
	return t.Kind() == reflect.Struct || (t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.Struct)
}

func jsonFieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name
	}
	return field.Name
}
