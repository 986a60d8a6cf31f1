package bilianalyzer

import (
	"github.com/X-Olivia/bilibili-content-analyzer/analysis"
	"github.com/X-Olivia/bilibili-content-analyzer/bilibili"
	apihttp "github.com/X-Olivia/bilibili-content-analyzer/http"
	"github.com/X-Olivia/bilibili-content-analyzer/internal/retry"
	"github.com/X-Olivia/bilibili-content-analyzer/storage"
)

// Error handling types exported for library users.
//
// All error types support the standard error handling patterns:
//
// Using errors.Is() for sentinel errors:
//
//	if errors.Is(err, bilibili.ErrVideoNotFound) {
//		fmt.Println("video not found")
//	}
//
// Using errors.As() for wrapped errors:
//
//	var apiErr *bilibili.APIError
//	if errors.As(err, &apiErr) {
//		fmt.Printf("API rejected request: code=%d %s\n", apiErr.Code, apiErr.Message)
//	}

// Type aliases for convenient error handling.
type (
	// APIError is a Bilibili API business-level rejection (code != 0).
	APIError = bilibili.APIError
	// RateLimitError indicates throttling or an anti-crawler ban.
	RateLimitError = apihttp.RateLimitError
	// HTTPError is a non-2xx response that is not a rate limit.
	HTTPError = apihttp.HTTPError
	// RetryableError wraps errors that occurred after retries were exhausted.
	RetryableError = retry.RetryableError
)

// Sentinel errors exported from sub-packages.
var (
	// ErrBadPayload indicates a response body that could not be decoded.
	ErrBadPayload = bilibili.ErrBadPayload
	// ErrVideoNotFound indicates the requested video does not exist.
	ErrVideoNotFound = bilibili.ErrVideoNotFound
	// ErrRequestFailed indicates a network-level request failure.
	ErrRequestFailed = apihttp.ErrRequestFailed
	// ErrNoResponse indicates no HTTP response was received.
	ErrNoResponse = apihttp.ErrNoResponse

	// ErrNotFound indicates a run was not found in storage.
	ErrNotFound = storage.ErrNotFound
	// ErrEmptyDataset indicates analysis was attempted on an empty dataset.
	ErrEmptyDataset = analysis.ErrEmptyDataset
)

// IsRetryable reports whether an error should be retried.
// It returns false for permanent errors like ErrVideoNotFound.
func IsRetryable(err error) bool {
	return retry.IsRetryable(err)
}
