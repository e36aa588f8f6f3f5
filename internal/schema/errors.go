package schema

import "fmt"

// SchemaError is returned for Duplicate, UnknownType, and UnknownEndpoint
// failures (spec §4.B, §7).
type SchemaError struct {
	Kind    string
	Message string
}

func (e SchemaError) Error() string {
	return fmt.Sprintf("schema error (%v): %v", e.Kind, e.Message)
}

func Duplicate(kind, name string) error {
	return SchemaError{
		Kind:    "Duplicate",
		Message: fmt.Sprintf("%s type %q is already declared", kind, name),
	}
}

func UnknownType(name string) error {
	return SchemaError{
		Kind:    "UnknownType",
		Message: fmt.Sprintf("type %q is not declared", name),
	}
}

func UnknownEndpoint(edgeName, nodeName string) error {
	return SchemaError{
		Kind:    "UnknownEndpoint",
		Message: fmt.Sprintf("edge %q references undeclared node type %q", edgeName, nodeName),
	}
}
