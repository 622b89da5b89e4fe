package utils

import "errors"

/*
   Sentinel errors for listings domain logic.
   The controller can do: if errors.Is(err, ErrXYZ) { ... }
*/
var (
	// ErrPropertyNotFound is returned when the target property does not
	// exist *or* is not owned by the caller. The two cases are deliberately
	// indistinguishable so that ownership probing leaks nothing.
	ErrPropertyNotFound = errors.New("property_not_found")

	ErrUploadFailed = errors.New("upload_failed")
)
