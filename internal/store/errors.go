package store

import "fmt"

// BackendError is returned by GraphStore implementations, mirroring the
// teacher's GraphError{Kind, Message} convention.
type BackendError struct {
	Kind    string
	Message string
}

func (e BackendError) Error() string {
	return fmt.Sprintf("store error (%v): %v", e.Kind, e.Message)
}

func NotFound(kind, id string) error {
	return BackendError{Kind: "NotFound", Message: fmt.Sprintf("%s %s does not exist", kind, id)}
}

func EndpointMismatch(edgeType, expected, got string) error {
	return BackendError{
		Kind:    "EndpointMismatch",
		Message: fmt.Sprintf("edge type %q expects endpoint type %q, got %q", edgeType, expected, got),
	}
}

func WriteOnReadOnlyTx() error {
	return BackendError{Kind: "ReadOnlyTx", Message: "cannot mutate within a read-only transaction"}
}

func TxClosed() error {
	return BackendError{Kind: "TxClosed", Message: "transaction is already committed or aborted"}
}
