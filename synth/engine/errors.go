package engine

import "errors"

// Errors returned by engine and stream operations. Every operation reports
// failure through one of these (possibly wrapped); callers must treat any
// error as terminal for that operation.
var (
	// ErrEngineClosed indicates use of an engine after Shutdown.
	ErrEngineClosed = errors.New("engine: engine has been shut down")

	// ErrStreamOpen indicates Open while another stream is still open.
	ErrStreamOpen = errors.New("engine: a stream is already open")

	// ErrStreamClosed indicates use of a stream after Close.
	ErrStreamClosed = errors.New("engine: stream has been closed")

	// ErrNotPrepared indicates rendering or transport control before Prepare.
	ErrNotPrepared = errors.New("engine: stream not prepared")

	// ErrInvalidState indicates an operation invoked from a state that does
	// not permit it, such as rendering after playback stopped.
	ErrInvalidState = errors.New("engine: operation invalid in current state")

	// ErrBufferTooSmall indicates a render buffer shorter than one block.
	ErrBufferTooSmall = errors.New("engine: output buffer smaller than one mix block")

	// ErrBeyondEnd indicates a seek target past the stream duration.
	ErrBeyondEnd = errors.New("engine: seek position beyond stream duration")
)
