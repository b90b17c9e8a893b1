package job

import "fmt"

// Error kinds for one document. All are terminal for the current
// job and local to it: the watch loop logs them and moves on.

// MissingSourceError means the raw video the document names is absent.
// Nothing is rendered.
type MissingSourceError struct {
	Path string
}

func (e *MissingSourceError) Error() string {
	return fmt.Sprintf("raw video not found: %s", e.Path)
}

// SegmentError wraps an engine failure on one segment. The remaining
// segments are not attempted.
type SegmentError struct {
	Index  int
	Output string
	Err    error
}

func (e *SegmentError) Error() string {
	return fmt.Sprintf("segment %d render failed: %v", e.Index, e.Err)
}

func (e *SegmentError) Unwrap() error { return e.Err }

// FinalizeError wraps a concatenation/mix failure. The thumbnail stage
// still runs independently.
type FinalizeError struct {
	Err error
}

func (e *FinalizeError) Error() string {
	return fmt.Sprintf("finalize failed: %v", e.Err)
}

func (e *FinalizeError) Unwrap() error { return e.Err }

// ThumbnailError is isolated: logged, never fails the job.
type ThumbnailError struct {
	Err error
}

func (e *ThumbnailError) Error() string {
	return fmt.Sprintf("thumbnail failed: %v", e.Err)
}

func (e *ThumbnailError) Unwrap() error { return e.Err }
