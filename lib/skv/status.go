package skv

import (
	"fmt"
)

// Status codes returned by store operations. They follow the HTTP status
// code groups, callers only ever branch on Is2xxOK and IsNotFound.
const (
	CodeOK              = 200
	CodeCreated         = 201
	CodeBadRequest      = 400
	CodeNotFound        = 404
	CodeTimeout         = 408 // transaction deadline exceeded
	CodeConflict        = 409 // lock held by another transaction
	CodeGone            = 410 // transaction already ended
	CodeInternalError   = 500
	codeFirstNonSuccess = 300
)

// Status is the outcome of a store operation.
type Status struct {
	Code    int
	Message string
}

// NewStatus creates a status with a formatted message.
func NewStatus(code int, format string, args ...interface{}) Status {
	return Status{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Is2xxOK reports whether the operation succeeded.
func (s Status) Is2xxOK() bool {
	return s.Code >= CodeOK && s.Code < codeFirstNonSuccess
}

// IsNotFound reports whether the operation found no record.
func (s Status) IsNotFound() bool {
	return s.Code == CodeNotFound
}

func (s Status) String() string {
	if s.Message == "" {
		return fmt.Sprintf("%d", s.Code)
	}
	return fmt.Sprintf("%d %s", s.Code, s.Message)
}

// Frequently used statuses.
var (
	StatusOK       = Status{Code: CodeOK, Message: "OK"}
	StatusCreated  = Status{Code: CodeCreated, Message: "Created"}
	StatusNotFound = Status{Code: CodeNotFound, Message: "record not found"}
)
