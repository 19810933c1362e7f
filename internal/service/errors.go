package service

import (
	"errors"
	"fmt"
	"net/http"

	gomysql "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

type Code string

const (
	CodeValidation    Code = "validation"
	CodeLocked        Code = "locked"
	CodeDuplicate     Code = "duplicate"
	CodeNotConfigured Code = "not_configured"
	CodeStore         Code = "store"
)

// Error is the structured failure every service operation returns.
type Error struct {
	Code   Code
	Msg    string
	Cutoff string // set for CodeLocked
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same code, so errors.Is(err, ErrLocked)
// works regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrValidation    = &Error{Code: CodeValidation, Msg: "invalid input"}
	ErrLocked        = &Error{Code: CodeLocked, Msg: "date locked"}
	ErrDuplicate     = &Error{Code: CodeDuplicate, Msg: "already submitted"}
	ErrNotConfigured = &Error{Code: CodeNotConfigured, Msg: "center not configured"}
	ErrStore         = &Error{Code: CodeStore, Msg: "store failure"}
)

func validationError(msg string) *Error {
	return &Error{Code: CodeValidation, Msg: msg}
}

func lockedError(cutoff string) *Error {
	return &Error{Code: CodeLocked, Msg: fmt.Sprintf("date locked by administration (<= %s)", cutoff), Cutoff: cutoff}
}

func storeError(op string, err error) *Error {
	return &Error{Code: CodeStore, Msg: op, Err: err}
}

// CodeOf extracts the error code, defaulting to CodeStore for foreign errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeStore
}

// HTTPStatus maps an error code onto the response status used by handlers.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeLocked:
		return http.StatusLocked
	case CodeDuplicate:
		return http.StatusConflict
	case CodeNotConfigured:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var me *gomysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
