package catalog

import "errors"

var (
	// ErrEmptyTag is returned when a tag is blank after trimming.
	ErrEmptyTag = errors.New("tag value is empty")
	// ErrDuplicateTag is returned when the tag already exists in its category.
	ErrDuplicateTag = errors.New("tag already exists")
	// ErrUnknownCategory is returned for a category outside listing.Categories.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrBusy is returned while another mutation of the same job is in flight.
	ErrBusy = errors.New("job is already being processed")
	// ErrReloadRaced is returned when mutations kept landing during a reload.
	ErrReloadRaced = errors.New("catalog changed while reloading")
)
