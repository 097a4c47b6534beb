// File: utils/constants.go
package utils

// Gin context keys set by middleware.
const (
	ContextClientIDKey = "clientID"
	ContextRoleKey     = "role"
	ContextLoggerKey   = "logger"
)
