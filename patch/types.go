// Package patch applies RFC6902 JSON patches to typed values and restricts
// them to an allow-list of JSON pointers.
package patch

const (
	OperationAdd     = "add"
	OperationRemove  = "remove"
	OperationReplace = "replace"
)

type Operation struct {
	Op    string `json:"op" jsonschema:"required,enum=add,enum=remove,enum=replace,description=RFC6902 operation"`
	Path  string `json:"path" jsonschema:"required,description=JSON pointer of the field to change"`
	Value any    `json:"value,omitempty" jsonschema:"description=New value for add and replace"`
}

// Document is a batch of operations, in the shape a tool call returns them.
type Document struct {
	Ops []Operation `json:"ops" jsonschema:"required,description=Operations to apply in order"`
}

// Replace is shorthand for a single replace operation on path.
func Replace(path string, value any) Operation {
	return Operation{Op: OperationReplace, Path: path, Value: value}
}
