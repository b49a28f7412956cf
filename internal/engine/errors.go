package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents a fatal error detected while the engine runs.
//
// Runtime errors include:
//   - Render thread panic: a backend or DrawGraphics panicked on a render thread
//   - Callback panic: pre-draw or post-initialization panicked on the control thread
//   - Window creation failure: the factory could not create a window
//   - Camera mismatch: camera count differs from the window's viewport count
//   - Context violation: a GPU context was made current on two threads
//
// Run joins every render thread before returning a RuntimeError.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// ThreadID identifies the render thread, or -1 for the control thread.
	ThreadID int

	// Frame is the frame being produced when the error occurred.
	Frame int64

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying error, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	ErrCodeRenderThreadPanic  RuntimeErrorCode = "RENDER_THREAD_PANIC"
	ErrCodeCallbackPanic      RuntimeErrorCode = "CALLBACK_PANIC"
	ErrCodeWindowCreateFailed RuntimeErrorCode = "WINDOW_CREATE_FAILED"
	ErrCodeCameraMismatch     RuntimeErrorCode = "CAMERA_MISMATCH"
	ErrCodeContextViolation   RuntimeErrorCode = "CONTEXT_VIOLATION"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.ThreadID >= 0 {
		return fmt.Sprintf("%s: %s (thread=%d, frame=%d)", e.Code, e.Message, e.ThreadID, e.Frame)
	}
	if e.Frame > 0 {
		return fmt.Sprintf("%s: %s (frame=%d)", e.Code, e.Message, e.Frame)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsRenderThreadPanic returns true if err is a panic recovered on a render thread.
// Uses errors.As to handle wrapped errors.
func IsRenderThreadPanic(err error) bool {
	return hasCode(err, ErrCodeRenderThreadPanic)
}

// IsCallbackPanic returns true if err is a panic in a control-thread callback.
func IsCallbackPanic(err error) bool {
	return hasCode(err, ErrCodeCallbackPanic)
}

// IsWindowCreateError returns true if a window could not be created.
func IsWindowCreateError(err error) bool {
	return hasCode(err, ErrCodeWindowCreateFailed)
}

// IsCameraMismatch returns true if a window was registered with the wrong
// number of cameras.
func IsCameraMismatch(err error) bool {
	return hasCode(err, ErrCodeCameraMismatch)
}

// IsContextViolation returns true if a GPU context was claimed twice.
func IsContextViolation(err error) bool {
	return hasCode(err, ErrCodeContextViolation)
}

// NewPanicError creates a RuntimeError from a recovered panic value.
// threadID -1 means the control thread.
func NewPanicError(threadID int, frame int64, stage string, recovered any) *RuntimeError {
	code := ErrCodeRenderThreadPanic
	if threadID < 0 {
		code = ErrCodeCallbackPanic
	}
	re := &RuntimeError{
		Code:     code,
		Message:  fmt.Sprintf("panic in %s: %v", stage, recovered),
		ThreadID: threadID,
		Frame:    frame,
		Details:  map[string]string{"stage": stage},
	}
	switch v := recovered.(type) {
	case *RuntimeError:
		// Contract violations raised by the engine keep their own code.
		v.ThreadID, v.Frame = threadID, frame
		return v
	case error:
		re.Err = v
	}
	return re
}

// NewWindowCreateError creates a RuntimeError for a failed factory call.
func NewWindowCreateError(index int, title string, err error) *RuntimeError {
	return &RuntimeError{
		Code:     ErrCodeWindowCreateFailed,
		Message:  fmt.Sprintf("create window %d %q: %v", index, title, err),
		ThreadID: -1,
		Details:  map[string]string{"window": fmt.Sprintf("%d", index), "title": title},
		Err:      err,
	}
}

// NewCameraMismatchError creates a RuntimeError for a camera/viewport count
// mismatch.
func NewCameraMismatchError(title string, cameras, viewports int) *RuntimeError {
	return &RuntimeError{
		Code:     ErrCodeCameraMismatch,
		Message:  fmt.Sprintf("window %q has %d cameras for %d viewports", title, cameras, viewports),
		ThreadID: -1,
		Details: map[string]string{
			"cameras":   fmt.Sprintf("%d", cameras),
			"viewports": fmt.Sprintf("%d", viewports),
		},
	}
}
