package serv

import (
	"errors"
	"io/fs"
	"net/http"
	"syscall"
)

var (
	// ErrNotFound is returned when the requested file does not exist or
	// the request path is not allowed to address a file under the root.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned for dotfiles when dotfiles are denied.
	ErrForbidden = errors.New("forbidden")

	// ErrAccessDenied is returned when the filesystem refuses to open a file.
	ErrAccessDenied = errors.New("access denied")

	// ErrStartup wraps every error that prevents the service from starting.
	ErrStartup = errors.New("startup failed")
)

// classifyFSError maps a filesystem error onto the service error taxonomy.
func classifyFSError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist),
		errors.Is(err, syscall.ENOTDIR),
		errors.Is(err, syscall.ENAMETOOLONG),
		errors.Is(err, syscall.EINVAL):
		return ErrNotFound
	case errors.Is(err, fs.ErrPermission):
		return ErrAccessDenied
	}
	return err
}

// httpStatus returns the response status for an error from the file handler.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}
