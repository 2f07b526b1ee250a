package database

import "errors"

// ErrConditionFailed is returned by conditional writes when the stored value
// no longer matches the expected precondition.
var ErrConditionFailed = errors.New("conditional update failed")
