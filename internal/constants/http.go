package constants

import "time"

const (
	HeaderAuthorization = "Authorization"
	HeaderUserID        = "User-Id"
	HeaderRequestID     = "X-Request-Id"

	DefaultHTTPTimeout      = 15 * time.Second
	DefaultChatPollInterval = 5 * time.Second
	DefaultMaxResponseBytes = 4 << 20 // 4 MB
	DefaultUploadMaxBytes   = 10 << 20
)
