package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown   ErrorCode = 1
	ErrCodeCancelled ErrorCode = 2

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101

	// Store errors (200-299)
	ErrCodeTableNotFound    ErrorCode = 200
	ErrCodeStoreUnavailable ErrorCode = 201
	ErrCodeQueryFailed      ErrorCode = 202
	ErrCodeExportFailed     ErrorCode = 203
	ErrCodeImportFailed     ErrorCode = 204
	ErrCodeVersionMismatch  ErrorCode = 205

	// Signal errors (300-399)
	ErrCodeNoPredictions     ErrorCode = 300
	ErrCodeNoPrices          ErrorCode = 301
	ErrCodeEmptyCrossSection ErrorCode = 302

	// Rebalance errors (400-499)
	ErrCodeSinkRejected ErrorCode = 400

	// Replay errors (500-599)
	ErrCodeCallbackFailed ErrorCode = 500

	// Filing errors (600-699)
	ErrCodeMalformedSectionHeader ErrorCode = 600
	ErrCodeDocumentFailed         ErrorCode = 601
	ErrCodeTokenizeFailed         ErrorCode = 602

	// Phrase errors (700-799)
	ErrCodeCorpusMissing ErrorCode = 700
	ErrCodeCorpusEmpty   ErrorCode = 701
)
