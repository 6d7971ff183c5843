package errorx

import "errors"

func As(err error, target *Error) bool {
	return errors.As(err, target)
}
