package errno

// code=0 请求成功
// code=4xx 客户端请求错误
// code=5xx 服务器端错误
// code=2xxxx 业务处理错误码

type Errno struct {
	Code    int
	Message string
}

// Error 实现error接口
func (e *Errno) Error() string {
	return e.Message
}

var (
	OK = &Errno{Code: 200, Message: "Success"}

	ErrParameterInvalid = &Errno{Code: 400, Message: "Invalid parameter %s"}
	ErrInvalidParam     = &Errno{Code: 400, Message: "Invalid parameter"}
	ErrUnauthorized     = &Errno{Code: 401, Message: "Unauthorized"}
	ErrNotFound         = &Errno{Code: 404, Message: "Not found"}

	ErrInternalServer = &Errno{Code: 500, Message: "Internal server error"}
	ErrDatabase       = &Errno{Code: 501, Message: "Database error"}
	ErrUnknown        = &Errno{Code: 510, Message: "Unknown error"}

	// 业务错误码
	ErrMissingParam         = &Errno{Code: 20001, Message: "Missing required parameter"}
	ErrOwnerTypeRequired    = &Errno{Code: 20002, Message: "Owner type is required"}
	ErrOwnerIDRequired      = &Errno{Code: 20003, Message: "Owner ID is required"}
	ErrOwnerAttrRequired    = &Errno{Code: 20004, Message: "Owner attribute is required"}
	ErrSourceValueRequired  = &Errno{Code: 20005, Message: "Source value is required"}
	ErrJobUUIDRequired      = &Errno{Code: 20006, Message: "Job UUID is required"}
	ErrEncodingJobNotFound  = &Errno{Code: 20007, Message: "Encoding job not found"}
	ErrInvalidEncodeStatus  = &Errno{Code: 20008, Message: "Invalid encode status"}
	ErrSubmissionFailed     = &Errno{Code: 20009, Message: "Provider submission failed"}
	ErrNotificationInvalid  = &Errno{Code: 20010, Message: "Notification payload not recognized"}
	ErrProviderNotConfigure = &Errno{Code: 20011, Message: "Encoding provider not configured"}
	ErrOwnerAttrUnreadable  = &Errno{Code: 20012, Message: "Owner attribute is not readable"}
)
