package snyk

import (
	"fmt"

	"golang.org/x/xerrors"
)

var (
	// ErrFetch is returned when a page could not be retrieved.
	ErrFetch = xerrors.New("fetch error")
	// ErrParse is returned when a page or its URL is not a recognizable advisory.
	ErrParse = xerrors.New("parse error")
	// ErrUnknownEcosystem is returned for package manager tokens outside PackageManagers.
	ErrUnknownEcosystem = xerrors.New("unknown ecosystem")
	// ErrMissingRequiredField is returned when a mandatory advisory field is absent.
	ErrMissingRequiredField = xerrors.New("missing required field")
)

// RowError reports a failure for a single affected-package row of a page.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("affected package row %d: %s", e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

func missingField(name string) error {
	return xerrors.Errorf("%s: %w", name, ErrMissingRequiredField)
}
