package common

// Define a custom type for context keys
type contextKey string

const (
	LoggerKey         contextKey = "LoggerKey"
	RequestContextKey contextKey = "RequestContextKey"

	TotalCountHeader = "X-Total-Count"
)
