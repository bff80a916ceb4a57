package lode

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// Sentinel errors for storage failure classification.
// Use errors.Is(err, ErrXxx) for typed assertions.
var (
	// ErrPermissionDenied indicates a filesystem permission failure.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrNotFound indicates a missing path, bucket or key.
	ErrNotFound = errors.New("not found")
	// ErrDiskFull indicates storage is out of space or quota.
	ErrDiskFull = errors.New("no space left on device")
	// ErrTimeout indicates an operation timed out.
	ErrTimeout = errors.New("operation timed out")
	// ErrThrottled indicates rate limiting by the object store.
	ErrThrottled = errors.New("rate limited")
	// ErrAuth indicates missing, invalid or expired credentials.
	ErrAuth = errors.New("authentication failed")
	// ErrAccessDenied indicates valid credentials without permission.
	ErrAccessDenied = errors.New("access denied")
	// ErrNetwork indicates a connection or name resolution failure.
	ErrNetwork = errors.New("network error")
	// ErrUnclassified marks storage failures matching no other kind.
	ErrUnclassified = errors.New("storage error")
)

// Storage operations named in StorageError.Op.
const (
	OpInit  = "init"
	OpRead  = "read"
	OpWrite = "write"
)

// StorageError is a classified dataset failure. errors.Is matches its Kind,
// errors.As reaches the underlying error.
type StorageError struct {
	Kind error
	Op   string
	// Path is the dataset, partition or snapshot involved, if any.
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error { return e.Err }

// Is reports whether target is the error's kind.
func (e *StorageError) Is(target error) bool { return errors.Is(e.Kind, target) }

// Transient reports whether retrying the operation may succeed.
func (e *StorageError) Transient() bool {
	switch e.Kind {
	case ErrTimeout, ErrThrottled, ErrNetwork:
		return true
	default:
		return false
	}
}

// NewStorageError creates a classified storage error.
func NewStorageError(kind error, op, path string, err error) *StorageError {
	return &StorageError{Kind: kind, Op: op, Path: path, Err: err}
}

// WrapWriteError classifies a failed record write. A nil err stays nil.
func WrapWriteError(err error, path string) error { return wrap(OpWrite, path, err) }

// WrapReadError classifies a failed snapshot read. A nil err stays nil.
func WrapReadError(err error, path string) error { return wrap(OpRead, path, err) }

// WrapInitError classifies a failed dataset open. A nil err stays nil.
func WrapInitError(err error, dataset string) error { return wrap(OpInit, dataset, err) }

// IsTransient reports whether err is a StorageError worth retrying.
func IsTransient(err error) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Transient()
}

func wrap(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewStorageError(classifyError(err), op, path, err)
}

// messageKinds maps lowercase message fragments to kinds, first match wins.
// S3 service errors reach us only as text, so order matters: AccessDenied
// must win over the generic "denied" permission fragments.
var messageKinds = []struct {
	kind      error
	fragments []string
}{
	{ErrAccessDenied, []string{"accessdenied", "forbidden", "403"}},
	{ErrPermissionDenied, []string{"permission denied", "eacces", "access denied"}},
	{ErrNotFound, []string{"no such file", "does not exist", "not found", "enoent", "404", "nosuchkey", "nosuchbucket"}},
	{ErrDiskFull, []string{"no space left", "disk full", "enospc", "quota exceeded"}},
	{ErrTimeout, []string{"timeout", "timed out", "deadline exceeded"}},
	{ErrThrottled, []string{"slowdown", "rate exceeded", "throttl", "429", "toomanyrequests"}},
	{ErrAuth, []string{"nocredentialproviders", "credentials", "invalidaccesskeyid",
		"signaturedoesnotmatch", "expiredtoken", "401", "unauthorized"}},
	{ErrNetwork, []string{"connection refused", "no route to host", "network unreachable", "dns", "dial tcp"}},
}

// classifyError determines the sentinel for err. Typed checks run before
// message fragments.
func classifyError(err error) error {
	var timeoutErr interface{ Timeout() bool }
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &timeoutErr) && timeoutErr.Timeout():
		return ErrTimeout
	case errors.Is(err, fs.ErrPermission):
		return ErrPermissionDenied
	case errors.Is(err, fs.ErrNotExist):
		return ErrNotFound
	}

	msg := strings.ToLower(err.Error())
	for _, mk := range messageKinds {
		for _, frag := range mk.fragments {
			if strings.Contains(msg, frag) {
				return mk.kind
			}
		}
	}
	return ErrUnclassified
}
