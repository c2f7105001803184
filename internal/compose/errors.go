package compose

import "errors"

// Registry invariant violations. The device/image/port binding must stay
// 1:1:1 across the whole stack, so adds reject any reuse.
var (
	ErrServiceExists      = errors.New("compose: service name already in use")
	ErrContainerNameInUse = errors.New("compose: container name already in use")
	ErrHostPortInUse      = errors.New("compose: host port already in use")
	ErrImageInUse         = errors.New("compose: image reference already in use")
)
