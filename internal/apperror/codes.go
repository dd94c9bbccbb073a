package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Transport errors (Redis pub/sub and snapshot store)
const (
	CodeRedisConnectionFailed Code = "REDIS_CONNECTION_FAILED"
	CodeSubscribeFailed       Code = "SUBSCRIBE_FAILED"
	CodePublishFailed         Code = "PUBLISH_FAILED"
	CodeSnapshotFetchFailed   Code = "SNAPSHOT_FETCH_FAILED"
	CodeSnapshotMissing       Code = "SNAPSHOT_MISSING"
)

// Order book and analysis errors
const (
	CodeInvalidOrderbook    Code = "INVALID_ORDERBOOK"
	CodeInvalidNotification Code = "INVALID_NOTIFICATION"
	CodeBookNotFound        Code = "BOOK_NOT_FOUND"
	CodeInvalidFeeSchedule  Code = "INVALID_FEE_SCHEDULE"
)

// Blockchain errors
const (
	CodeEthereumConnectionFailed Code = "ETHEREUM_CONNECTION_FAILED"
	CodeGasEstimationFailed      Code = "GAS_ESTIMATION_FAILED"
)

// WebSocket errors
const (
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"
	CodeWebSocketSendError       Code = "WEBSOCKET_SEND_ERROR"
)

// Circuit breaker errors
const (
	CodeCircuitOpen     Code = "CIRCUIT_OPEN"
	CodeCircuitHalfOpen Code = "CIRCUIT_HALF_OPEN"
)
