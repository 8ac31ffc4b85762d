package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidRiskConfig    ErrorCode = 102
	ErrCodeInsufficientData     ErrorCode = 103
	ErrCodeInvalidTimeframe     ErrorCode = 104
	ErrCodeInvalidPeriod        ErrorCode = 105
	ErrCodeMissingParameter     ErrorCode = 106
	ErrCodeInvalidVersion       ErrorCode = 107

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeHistoricalDataFailed  ErrorCode = 203

	// Signal errors (300-399)
	ErrCodeIndicatorCalculation    ErrorCode = 300
	ErrCodeSignalGenerationFailed  ErrorCode = 301
	ErrCodeUnsupportedSignalSource ErrorCode = 302

	// Position errors (500-599)
	ErrCodePositionAlreadyOpen ErrorCode = 500
	ErrCodeNoOpenPosition      ErrorCode = 501
	ErrCodeInvalidEntryPrice   ErrorCode = 502

	// Backtest errors (600-699)
	ErrCodeBacktestNotInitialized ErrorCode = 600
	ErrCodeBacktestInitFailed     ErrorCode = 601
	ErrCodeBacktestConfigError    ErrorCode = 602
	ErrCodeResultWriteFailed      ErrorCode = 603
	ErrCodeResultReadFailed       ErrorCode = 604
	ErrCodeVersionMismatch        ErrorCode = 605

	// Market data errors (700-799)
	ErrCodeMarketDataFetchFailed ErrorCode = 700
	ErrCodeMarketDataWriteFailed ErrorCode = 701
	ErrCodeMarketDataParseFailed ErrorCode = 702
	ErrCodeInvalidTimespan       ErrorCode = 703
	ErrCodeInvalidProvider       ErrorCode = 704
	ErrCodeOrderBookFailed       ErrorCode = 705

	// Callback and notification errors (800-899)
	ErrCodeCallbackFailed     ErrorCode = 800
	ErrCodeNotificationFailed ErrorCode = 801
)
