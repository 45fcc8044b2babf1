package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidOrder         ErrorCode = 105
	ErrCodeInvalidType          ErrorCode = 107
	ErrCodeInvalidPeriod        ErrorCode = 108
	ErrCodeMissingParameter     ErrorCode = 109
	ErrCodeInvalidVersion       ErrorCode = 110
	ErrCodeInvalidMultiplier    ErrorCode = 111
	ErrCodeInvalidBar           ErrorCode = 120
	ErrCodeNonMonotoneTime      ErrorCode = 121
	ErrCodeMissingColumn        ErrorCode = 122
	ErrCodeInvalidSize          ErrorCode = 123
	ErrCodeInvalidPriceLevel    ErrorCode = 124
	ErrCodeEmptyData            ErrorCode = 125

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeNoDataFound           ErrorCode = 204
	ErrCodeSeriesNotFound        ErrorCode = 206

	// Indicator errors (300-399)
	ErrCodeIndicatorNotFound      ErrorCode = 300
	ErrCodeIndicatorAlreadyExists ErrorCode = 301
	ErrCodeIndicatorCalculation   ErrorCode = 302
	ErrCodeRegistrationClosed     ErrorCode = 303
	ErrCodeIndicatorOutOfBounds   ErrorCode = 304
	ErrCodeIndicatorCycle         ErrorCode = 305

	// Strategy errors (400-499)
	ErrCodeStrategyNotLoaded    ErrorCode = 400
	ErrCodeStrategyConfigError  ErrorCode = 401
	ErrCodeStrategyRuntimeError ErrorCode = 402
	ErrCodeUnsupportedStrategy  ErrorCode = 403
	ErrCodeVersionMismatch      ErrorCode = 404

	// Trading errors (500-599)
	ErrCodeOrderFailed       ErrorCode = 500
	ErrCodePositionNotFound  ErrorCode = 501
	ErrCodeInsufficientFunds ErrorCode = 503
	ErrCodeNaNInput          ErrorCode = 504
	ErrCodeOrderNotFound     ErrorCode = 505

	// Backtest errors (600-699)
	ErrCodeBacktestInitFailed    ErrorCode = 601
	ErrCodeBacktestConfigError   ErrorCode = 602
	ErrCodeBacktestDataPathError ErrorCode = 603
	ErrCodeBacktestNoStrategies  ErrorCode = 604
	ErrCodeBacktestNoDatasource  ErrorCode = 608
	ErrCodeBacktestWriteFailed   ErrorCode = 609

	// Callback errors (800-899)
	ErrCodeCallbackFailed ErrorCode = 800
)
