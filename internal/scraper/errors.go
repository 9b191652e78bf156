package scraper

import "errors"

var (
	// ErrInvalidArgument is returned before any network access when a user id,
	// listing kind or other required argument is malformed.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrSession is returned when no session has been configured.
	ErrSession = errors.New("no session configured")

	// ErrExtraction is returned when an occupied record slot cannot be
	// turned into a record.
	ErrExtraction = errors.New("extraction failed")
)
