// Package errs provides types and support related to web error functionality.
package errs

import (
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
)

// Error represents an error in the system.
type Error struct {
	Code     ErrCode `json:"code"`
	Message  string  `json:"message"`
	FuncName string  `json:"-"`
	FileName string  `json:"-"`
}

// New constructs an error based on an app error.
func New(code ErrCode, err error) *Error {
	pc, filename, line, _ := runtime.Caller(1)

	return &Error{
		Code:     code,
		Message:  err.Error(),
		FuncName: runtime.FuncForPC(pc).Name(),
		FileName: fmt.Sprintf("%s:%d", filename, line),
	}
}

// Errorf constructs an error based on an error format string.
func Errorf(code ErrCode, format string, v ...any) *Error {
	pc, filename, line, _ := runtime.Caller(1)

	return &Error{
		Code:     code,
		Message:  fmt.Sprintf(format, v...),
		FuncName: runtime.FuncForPC(pc).Name(),
		FileName: fmt.Sprintf("%s:%d", filename, line),
	}
}

// Error implements the error interface.
func (err *Error) Error() string {
	return err.Message
}

// Encode implements the web.Encoder interface.
func (err *Error) Encode() ([]byte, string, error) {
	type response struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}

	resp := response{
		Code:    err.Code.String(),
		Message: err.Message,
	}

	// Internal details never leave the service.
	if err.Code == Internal || err.Code == InternalOnlyLog {
		resp.Message = "internal server error"
	}

	data, jerr := json.Marshal(resp)
	return data, "application/json", jerr
}

// HTTPStatus implements the web HTTPStatus interface so the code can be used
// to set the HTTP response status.
func (err *Error) HTTPStatus() int {
	return httpStatus[err.Code]
}

// Equal provides support for the go-cmp package and testing.
func (err *Error) Equal(err2 *Error) bool {
	return err.Code == err2.Code && err.Message == err2.Message
}

// IsError tests the concrete error is of the Error type.
func IsError(err error) bool {
	var er *Error
	return errors.As(err, &er)
}

// GetError returns a copy of the Error pointer.
func GetError(err error) *Error {
	var er *Error
	if !errors.As(err, &er) {
		return &Error{}
	}
	return er
}
