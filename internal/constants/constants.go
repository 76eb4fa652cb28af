package constants

import "time"

// Context keys
const (
	ContextKeyUserID    = "user_id"
	ContextKeyCaller    = "caller"
	ContextKeyRequestID = "request_id"
)

// Headers
const (
	HeaderAuthorization = "Authorization"
	HeaderServiceKey    = "X-Service-Key"
	HeaderRequestID     = "X-Request-ID"
)

// Validation limits
const (
	MinPasswordLength = 8
	MaxUsernameLength = 100
	MaxTeamNameLength = 255
	MaxTitleLength    = 255
	MaxFilenameLength = 255
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
	MaxPage         = 100000
)

// AI task generation
const (
	MaxAIGeneratedTasks = 20
	MaxAIInputLength    = 8000
)

// Default admin password used when admin.password is not configured.
const DefaultAdminPassword = "adminpassword"

// TokenType is returned alongside every issued access token.
const TokenType = "bearer"

// Database connection defaults
const (
	DefaultConnectRetries = 30
	DefaultRetryInterval  = 2 * time.Second
)
