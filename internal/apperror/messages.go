package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	CodeConfigurationError: "Configuration error",

	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	CodeRedisConnectionFailed: "Failed to connect to Redis",
	CodeSubscribeFailed:       "Failed to subscribe to update channel",
	CodePublishFailed:         "Failed to publish order book update",
	CodeSnapshotFetchFailed:   "Failed to fetch order book snapshot",
	CodeSnapshotMissing:       "Order book snapshot not present in store",

	CodeInvalidOrderbook:    "Invalid order book data",
	CodeInvalidNotification: "Invalid update notification",
	CodeBookNotFound:        "Order book not held in working set",
	CodeInvalidFeeSchedule:  "Invalid fee schedule",

	CodeEthereumConnectionFailed: "Failed to connect to Ethereum node",
	CodeGasEstimationFailed:      "Gas estimation failed",

	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketClosed:          "WebSocket connection closed",
	CodeWebSocketSendError:       "Failed to send WebSocket message",

	CodeCircuitOpen:     "Circuit breaker is open",
	CodeCircuitHalfOpen: "Circuit breaker is half-open",
}
