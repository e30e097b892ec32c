package handlers

// Common error message constants shared across handlers
const (
	ErrMsgInvalidRequestBody = "Invalid request body"
	ErrMsgUnauthorized       = "Unauthorized"
	ErrMsgPermissionDenied   = "Permission denied"
	ErrMsgNotFound           = "Not found"
	ErrMsgInternal           = "Internal server error"
	ErrMsgAIFailed           = "The AI model did not return a usable answer"
	ErrMsgUserNotRegistered  = "User is not registered in the directory"
)

// API path constants
const (
	AuthAPIBasePath = "/api/v1/auth"
)

// Audit action constants
const (
	AuditActionLogin       = "auth.login"
	AuditActionLoginDenied = "auth.login.denied"
	AuditActionOAuthError  = "auth.oauth.error"
)

const oauthStateCookie = "rc_oauth_state"
