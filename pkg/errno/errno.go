package errno

import (
	"errors"
	"fmt"
)

// BizError 业务错误，携带错误码和底层原因
type BizError struct {
	Errno *Errno
	Cause error
}

// NewBizError 用底层错误包装业务错误码
func NewBizError(errno *Errno, cause error) *BizError {
	return &BizError{Errno: errno, Cause: cause}
}

func (e *BizError) Error() string {
	if e.Cause == nil {
		return e.Errno.Message
	}
	return fmt.Sprintf("%s: %v", e.Errno.Message, e.Cause)
}

func (e *BizError) Unwrap() error {
	return e.Cause
}

// Decode 提取错误对应的错误码，非业务错误归为未知错误
func Decode(err error) *Errno {
	if err == nil {
		return OK
	}

	var en *Errno
	if errors.As(err, &en) {
		return en
	}

	var biz *BizError
	if errors.As(err, &biz) {
		return biz.Errno
	}

	return ErrUnknown
}
