package models

// CrashReport is the flat payload accepted by the crash report endpoint.
type CrashReport struct {
	ID          string `json:"id,omitempty"`
	AppVersion  string `json:"appVersion" validate:"required"`
	Platform    string `json:"platform" validate:"required"`
	DeviceModel string `json:"deviceModel,omitempty"`
	OSVersion   string `json:"osVersion,omitempty"`
	Message     string `json:"message" validate:"required"`
	StackTrace  string `json:"stackTrace,omitempty"`
	Timestamp   string `json:"timestamp" validate:"required"`
	UserID      *int64 `json:"userId,omitempty"`
}
