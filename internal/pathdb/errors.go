package pathdb

import "fmt"

// FileExistsError is returned by Insert when a live (non-deleted) row
// already occupies the target path.
type FileExistsError struct {
	Path string
}

func (e *FileExistsError) Error() string {
	return fmt.Sprintf("file already exists: %s", e.Path)
}

// CreateFileError is returned by Insert and Update when the underlying
// store operation fails. Both operations surface the same kind; the
// underlying cause is available via errors.Unwrap for diagnostics.
type CreateFileError struct {
	Path  string
	cause error
}

func (e *CreateFileError) Error() string {
	return fmt.Sprintf("cannot create file: %s", e.Path)
}

func (e *CreateFileError) Unwrap() error { return e.cause }

// DeleteFileError is returned by Delete and ForceDelete when the underlying
// store operation fails. The underlying cause is available via errors.Unwrap.
type DeleteFileError struct {
	Path  string
	cause error
}

func (e *DeleteFileError) Error() string {
	return fmt.Sprintf("cannot delete file: %s", e.Path)
}

func (e *DeleteFileError) Unwrap() error { return e.cause }
