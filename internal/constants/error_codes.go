package constants

const (
	// Client-side error codes, surfaced alongside server codes in api.Error.
	ErrCodeNetwork         = "NETWORK_ERROR"
	ErrCodeRequestFailed   = "REQUEST_FAILED"
	ErrCodeEmptyResponse   = "EMPTY_RESPONSE"
	ErrCodeInvalidResponse = "INVALID_RESPONSE"
	ErrCodeInvalidRequest  = "INVALID_REQUEST"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeNotLoggedIn     = "NOT_LOGGED_IN"
)

const (
	MsgNetworkError  = "Network error, please check your connection and try again"
	MsgRequestFailed = "Request failed, please try again"
	MsgSessionEnded  = "Your session has ended, please log in again"
)
