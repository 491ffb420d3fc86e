package driver

import "errors"

var (
	ErrDriverNotFound    = errors.New("driver not found")
	ErrDriverNotApproved = errors.New("driver is not approved")
)
