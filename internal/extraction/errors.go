package extraction

import "fmt"

// ExtractionErrorCode represents specific extraction error types.
type ExtractionErrorCode string

const (
	ErrPDFOpenFailed       ExtractionErrorCode = "PDF_OPEN_FAILED"
	ErrPDFEncrypted        ExtractionErrorCode = "PDF_ENCRYPTED"
	ErrScannedDocument     ExtractionErrorCode = "SCANNED_DOCUMENT"
	ErrNoTransactionsFound ExtractionErrorCode = "NO_TRANSACTIONS_FOUND"
	ErrSubprocessFailed    ExtractionErrorCode = "SUBPROCESS_FAILED"
	ErrSubprocessTimeout   ExtractionErrorCode = "SUBPROCESS_TIMEOUT"
)

// ExtractionError is a structured error for extraction failures.
type ExtractionError struct {
	Code      ExtractionErrorCode
	Message   string
	Retryable bool
	Cause     error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// IsRetryable returns whether this error is retryable.
func (e *ExtractionError) IsRetryable() bool {
	return e.Retryable
}
