package bacpac

import "fmt"

// NotFoundError reports that the source archive path does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("archive not found: %s", e.Path)
}

// MissingEntryError reports a required entry absent from the archive. The
// archive is never mutated when this is returned.
type MissingEntryError struct {
	Entry   string
	Archive string
}

func (e *MissingEntryError) Error() string {
	return fmt.Sprintf("entry %s not found in %s", e.Entry, e.Archive)
}

// ReadError reports an I/O or archive-format failure during extraction.
type ReadError struct {
	Message string
	Cause   error
}

func (e *ReadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("read failure: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("read failure: %s", e.Message)
}

func (e *ReadError) Unwrap() error {
	return e.Cause
}

// WriteError reports an I/O or archive-format failure during the rewrite.
type WriteError struct {
	Message string
	Cause   error
}

func (e *WriteError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("write failure: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("write failure: %s", e.Message)
}

func (e *WriteError) Unwrap() error {
	return e.Cause
}
