package common

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every engine package. Callers classify failures with errors.Is.
var (
	// ErrConfiguration marks a setup-time mistake (bad schema, bad mesh parameters, bad config value).
	// Configuration errors are fatal and are always detected before any GPU buffer is created.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidParameter marks a numeric argument outside its documented domain.
	ErrInvalidParameter = fmt.Errorf("%w: invalid parameter", ErrConfiguration)

	// ErrSchemaOverrun marks a buffer schema whose fields do not fit inside the declared stride.
	ErrSchemaOverrun = fmt.Errorf("%w: schema field overruns stride", ErrConfiguration)

	// ErrCapabilityUnavailable is reported once at bootstrap when no compatible adapter or device exists.
	ErrCapabilityUnavailable = errors.New("gpu capability unavailable")

	// ErrTransientGPU wraps failures reported by the device or queue (buffer creation, submission).
	// These are never retried.
	ErrTransientGPU = errors.New("gpu operation failed")

	// ErrFrameInProgress is returned when a frame is started while another one is still open.
	ErrFrameInProgress = errors.New("frame already in progress")
)
