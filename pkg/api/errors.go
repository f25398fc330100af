package api

import (
	"errors"
	"fmt"
)

// RemoteError reports a non-success response from the trigger-registry API.
// It carries the upstream status and, when the registry returned an RFC 7807
// problem document, its type and detail.
type RemoteError struct {
	Op     string
	Status int
	Kind   string
	Detail string
}

func (e *RemoteError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("%s: upstream returned %d (%s): %s", e.Op, e.Status, e.Kind, e.Detail)
	}

	return fmt.Sprintf("%s: upstream returned %d: %s", e.Op, e.Status, e.Detail)
}

// IsRemoteError checks if an error is a failure reported by the remote
// trigger-registry API.
func IsRemoteError(err error) bool {
	var remoteError *RemoteError

	return errors.As(err, &remoteError)
}
