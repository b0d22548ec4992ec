package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrRemoteFetchFailed = errors.New("remote fetch failed")
)

// NotFoundError reports that the catalog has no card or set with the given id.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// RemoteFetchError wraps a network or service failure talking to the catalog.
type RemoteFetchError struct {
	Op  string
	Err error
}

func (e *RemoteFetchError) Error() string {
	return fmt.Sprintf("catalog %s failed: %v", e.Op, e.Err)
}

func (e *RemoteFetchError) Unwrap() error {
	return e.Err
}

func (e *RemoteFetchError) Is(target error) bool {
	return target == ErrRemoteFetchFailed
}

// asRemoteError leaves NotFound and already-classified errors alone and
// wraps everything else, including context deadlines, as a fetch failure.
func asRemoteError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrRemoteFetchFailed) {
		return err
	}
	return &RemoteFetchError{Op: op, Err: err}
}
