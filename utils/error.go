package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// ErrorVersionConflict reports a lost optimistic-concurrency race on the
// yearly report document. Callers retry with a fresh read.
var ErrorVersionConflict = errors.New("report version conflict")
