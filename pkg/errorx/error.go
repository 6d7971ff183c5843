package errorx

import "fmt"

var Unknown = Error{Code: 100000, Message: "Request failed"}

type Error struct {
	Code    Code
	Message string
}

func New(code Code, format string, a ...any) Error {
	return Error{Code: code, Message: fmt.Sprintf(format, a...)}
}

func (e Error) Error() string {
	return e.Message
}

// Is reports whether err is an Error carrying the given code.
func Is(err error, code Code) bool {
	var errx Error
	if !As(err, &errx) {
		return false
	}

	return errx.Code == code
}
