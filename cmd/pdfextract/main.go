// Command pdfextract reads a PDF from stdin and writes exactly one JSON
// result document to stdout. It exists so that PDF parsing, which can panic
// or hang on hostile input, runs isolated from the server process: the worst
// a malformed PDF can do is kill this subprocess.
//
// Output shape: {"success": true, "text": "..."} or
// {"success": false, "error": "..."}. Exit code 0 on success, 1 on failure.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/finwise-app/finwise/backend/internal/extraction"
)

// maxInputBytes bounds how much stdin is read.
const maxInputBytes = 50 << 20

func main() {
	password := flag.String("password", "", "password for encrypted PDFs")
	flag.Parse()

	result := run(*password)

	// The single JSON document is the whole contract: always emit it, even
	// on failure, before exiting.
	if err := json.NewEncoder(os.Stdout).Encode(result); err != nil {
		os.Exit(1)
	}
	if !result.Success {
		os.Exit(1)
	}
}

func run(password string) (result extraction.SubprocessResult) {
	defer func() {
		if r := recover(); r != nil {
			result = extraction.SubprocessResult{
				Success: false,
				Error:   fmt.Sprintf("pdf processing panicked: %v", r),
			}
		}
	}()

	data, err := io.ReadAll(io.LimitReader(os.Stdin, maxInputBytes))
	if err != nil {
		return extraction.SubprocessResult{Success: false, Error: fmt.Sprintf("read stdin: %v", err)}
	}
	if len(data) == 0 {
		return extraction.SubprocessResult{Success: false, Error: "no input"}
	}

	analysis := extraction.AnalyzePDF(data, password)
	if analysis.Error != nil {
		return extraction.SubprocessResult{Success: false, Error: analysis.Error.Error()}
	}
	if analysis.IsScanned {
		return extraction.SubprocessResult{Success: false, Error: "document appears to be scanned; no extractable text"}
	}

	return extraction.SubprocessResult{Success: true, Text: analysis.ExtractedText}
}
