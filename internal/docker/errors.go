package docker

import "errors"

// ErrNotFound indicates the requested Docker resource was not found.
var ErrNotFound = errors.New("docker: resource not found")

// ErrNoLoadedRef indicates a loaded archive produced no identifiable image
// reference, so follow-up operations like retagging cannot proceed.
var ErrNoLoadedRef = errors.New("docker: loaded image reference not reported by daemon")
