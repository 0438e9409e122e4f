package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNaming reports an identifier that cannot be turned into a valid resource name.
	ErrNaming = errors.New("invalid resource name")
	// ErrInvalidDeployment reports a deployment request rejected before any cluster call.
	ErrInvalidDeployment = errors.New("invalid deployment")
	// ErrEnvConflict reports an environment variable defined by more than one source.
	ErrEnvConflict = errors.New("environment variable defined more than once")
	// ErrProjectNotFound is returned by project record stores.
	ErrProjectNotFound = errors.New("project not found")
)

// ClusterErrorKind classifies cluster API failures.
type ClusterErrorKind string

const (
	ClusterErrorConflict  ClusterErrorKind = "Conflict"
	ClusterErrorNotFound  ClusterErrorKind = "NotFound"
	ClusterErrorTransient ClusterErrorKind = "Transient"
	ClusterErrorForbidden ClusterErrorKind = "Forbidden"
	ClusterErrorInvalid   ClusterErrorKind = "Invalid"
)

// ClusterAPIError is the error type returned by cluster clients.
type ClusterAPIError struct {
	Kind ClusterErrorKind
	// Op names the failed call, e.g. "create secret lcm-service-w1-p2/tosca-env".
	Op  string
	Err error
}

func (e *ClusterAPIError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *ClusterAPIError) Unwrap() error { return e.Err }

// ClusterErrorKindOf returns the kind of the first ClusterAPIError in err's chain.
func ClusterErrorKindOf(err error) (ClusterErrorKind, bool) {
	var ce *ClusterAPIError
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return "", false
}

func IsConflict(err error) bool {
	k, ok := ClusterErrorKindOf(err)
	return ok && k == ClusterErrorConflict
}

func IsNotFound(err error) bool {
	k, ok := ClusterErrorKindOf(err)
	return ok && k == ClusterErrorNotFound
}

func IsForbidden(err error) bool {
	k, ok := ClusterErrorKindOf(err)
	return ok && k == ClusterErrorForbidden
}

func IsTransient(err error) bool {
	k, ok := ClusterErrorKindOf(err)
	return ok && k == ClusterErrorTransient
}

// StepError identifies the deployment step that failed.
type StepError struct {
	Phase DeployPhase
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("deploy step %s: %v", e.Phase, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// RoutingWarning is a non-fatal problem encountered while inheriting platform routing.
type RoutingWarning struct {
	Message string
	Err     error
}

func (w RoutingWarning) String() string {
	if w.Err == nil {
		return w.Message
	}
	return w.Message + ": " + w.Err.Error()
}
