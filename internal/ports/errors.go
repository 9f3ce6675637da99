package ports

import "errors"

var (
	// ErrNotFound reports that a referenced order or catalog item does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStaffNotFound reports that a staff id could not be resolved to a role.
	ErrStaffNotFound = errors.New("staff not found")
)
