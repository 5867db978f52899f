// Package extraction turns uploaded statement PDFs into transaction records.
// PDF parsing itself runs in a separate OS process so that crashes or
// resource exhaustion on hostile documents never take down the server.
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"
)

const (
	defaultTimeout   = 30 * time.Second
	maxResultBytes   = 1 << 20 // 1MB cap on subprocess output
	passwordArgName  = "--password"
)

// SubprocessResult is the single JSON document the pdfextract subprocess
// writes to stdout. It is always well-formed: the subprocess converts every
// internal failure into {success:false, error}.
type SubprocessResult struct {
	Success bool   `json:"success"`
	Text    string `json:"text,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Runner invokes the pdfextract subprocess.
type Runner struct {
	binPath string
	timeout time.Duration
	retry   RetryConfig
}

// NewRunner creates a runner for the extractor binary at binPath.
func NewRunner(binPath string) *Runner {
	return &Runner{binPath: binPath, timeout: defaultTimeout, retry: DefaultSubprocessRetryConfig}
}

// WithTimeout overrides the per-invocation timeout.
func (r *Runner) WithTimeout(d time.Duration) *Runner {
	r.timeout = d
	return r
}

// ExtractText feeds pdfData to the subprocess on stdin and returns the
// extracted text. Transient failures (timeouts) are retried with backoff;
// document-level failures are not. The raw PDF bytes never touch disk.
func (r *Runner) ExtractText(ctx context.Context, pdfData []byte, password string) (string, error) {
	return WithRetry(ctx, r.retry, func(ctx context.Context) (string, error) {
		return r.extractOnce(ctx, pdfData, password)
	})
}

func (r *Runner) extractOnce(ctx context.Context, pdfData []byte, password string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := []string{}
	if password != "" {
		args = append(args, fmt.Sprintf("%s=%s", passwordArgName, password))
	}

	cmd := exec.CommandContext(ctx, r.binPath, args...)
	cmd.Stdin = bytes.NewReader(pdfData)

	var stdout bytes.Buffer
	cmd.Stdout = &limitedWriter{w: &stdout, n: maxResultBytes}
	cmd.Stderr = io.Discard

	runErr := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return "", &ExtractionError{
			Code:      ErrSubprocessTimeout,
			Message:   fmt.Sprintf("pdf extraction exceeded %s", r.timeout),
			Retryable: true,
		}
	}

	var result SubprocessResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		// No parseable result at all: the subprocess died before writing one
		return "", &ExtractionError{
			Code:    ErrSubprocessFailed,
			Message: "pdf extractor produced no result",
			Cause:   errors.Join(runErr, err),
		}
	}

	if !result.Success {
		return "", &ExtractionError{
			Code:    ErrPDFOpenFailed,
			Message: result.Error,
		}
	}
	return result.Text, nil
}

// limitedWriter caps how much subprocess output is buffered; overflow is
// discarded rather than failing the write, since a valid result fits well
// within the cap.
type limitedWriter struct {
	w io.Writer
	n int64
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	if l.n <= 0 {
		return len(p), nil
	}
	if int64(len(p)) > l.n {
		if _, err := l.w.Write(p[:l.n]); err != nil {
			return 0, err
		}
		l.n = 0
		return len(p), nil
	}
	l.n -= int64(len(p))
	return l.w.Write(p)
}
