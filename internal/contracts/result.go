package contracts

import "errors"

// Status is the explicit result discriminator every core operation
// returns. Expected empty-data conditions are statuses, not errors.
type Status string

const (
	StatusSuccess Status = "success"
	StatusNoData  Status = "no_data"
	StatusError   Status = "error"
)

// ErrNotFound is returned by repositories when a row does not exist.
var ErrNotFound = errors.New("not found")
