package service

// FailureKind tags why an operation failed, so callers can branch on the
// category without parsing error strings.
type FailureKind string

const (
	FailureNone             FailureKind = ""
	FailureNotFound         FailureKind = "not_found"
	FailureConflict         FailureKind = "conflict"
	FailureCapacityExceeded FailureKind = "capacity_exceeded"
	FailureForbidden        FailureKind = "forbidden"
	FailureValidation       FailureKind = "validation"
	FailureStore            FailureKind = "store"
	FailureUnauthorized     FailureKind = "unauthorized"
)

// OperationResult is the outcome of a service operation. Business-rule
// failures are returned as values, never as Go errors.
type OperationResult struct {
	Succeeded bool
	Kind      FailureKind
	Errors    []string
}

func Success() OperationResult {
	return OperationResult{Succeeded: true}
}

func Failure(kind FailureKind, errors ...string) OperationResult {
	return OperationResult{Succeeded: false, Kind: kind, Errors: errors}
}

// ErrorText joins the result's errors into a single display string.
func (r OperationResult) ErrorText() string {
	text := ""
	for i, e := range r.Errors {
		if i > 0 {
			text += "; "
		}
		text += e
	}
	return text
}
