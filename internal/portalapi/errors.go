package portalapi

import (
	"errors"
	"fmt"
)

// ErrNotFound matches APIError values with status 404.
var ErrNotFound = errors.New("portalapi: not found")

// ErrUnauthorized matches APIError values with status 401 or 403.
var ErrUnauthorized = errors.New("portalapi: unauthorized")

// APIError is returned for non-2xx backend responses.
type APIError struct {
	Status  int
	Path    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d for %s", e.Status, e.Path)
	}
	return fmt.Sprintf("backend returned %d for %s: %s", e.Status, e.Path, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == 404
	case ErrUnauthorized:
		return e.Status == 401 || e.Status == 403
	}
	return false
}
