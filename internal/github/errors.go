package github

import (
	"errors"
	"fmt"
)

var (
	ErrKeyLoad           = errors.New("private key could not be loaded")
	ErrSigning           = errors.New("app assertion could not be signed")
	ErrSerialization     = errors.New("payload could not be serialized")
	ErrTransport         = errors.New("github api unreachable")
	ErrRemoteRejected    = errors.New("github api rejected the request")
	ErrResponseParse     = errors.New("unexpected github api response")
	ErrInvalidRepository = errors.New("repository must be in owner/name form")
)

// RemoteError is returned when GitHub answers with a non-2xx status.
type RemoteError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: github responded %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: github responded %d: %s", e.Op, e.StatusCode, e.Body)
}

func (e *RemoteError) Is(target error) bool {
	return target == ErrRemoteRejected
}
