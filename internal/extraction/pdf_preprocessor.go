package extraction

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	maxTextBytes     = 100 * 1024 // 100KB cap for extracted text
	scannedThreshold = 50         // chars per page below which PDF is considered scanned
)

// PDFAnalysis contains the results of extracting text from a PDF document.
type PDFAnalysis struct {
	PageCount     int
	ExtractedText string
	IsScanned     bool
	Error         error
}

// AnalyzePDF extracts text and metadata from raw PDF bytes. It is wrapped in
// recover() because the PDF library panics on some malformed inputs; the
// untrusted-input isolation boundary is the pdfextract subprocess, this
// function must still never take a caller down.
func AnalyzePDF(data []byte, password string) (result *PDFAnalysis) {
	result = &PDFAnalysis{
		PageCount: 1,
		IsScanned: true,
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[PDF] recovered from panic during analysis: %v", r)
			result.Error = &ExtractionError{
				Code:    ErrPDFOpenFailed,
				Message: fmt.Sprintf("panic during PDF analysis: %v", r),
			}
		}
	}()

	var reader *pdf.Reader
	var err error
	if password != "" {
		reader, err = pdf.NewReaderEncrypted(bytes.NewReader(data), int64(len(data)), func() string { return password })
	} else {
		reader, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	}
	if err != nil {
		code := ErrPDFOpenFailed
		if strings.Contains(err.Error(), "encrypted") {
			code = ErrPDFEncrypted
		}
		result.Error = &ExtractionError{Code: code, Message: "open PDF reader", Cause: err}
		return result
	}

	result.PageCount = reader.NumPage()
	if result.PageCount < 1 {
		result.PageCount = 1
	}

	plainText, err := reader.GetPlainText()
	if err != nil {
		result.Error = &ExtractionError{Code: ErrPDFOpenFailed, Message: "extract plain text", Cause: err}
		return result
	}

	textBytes, err := io.ReadAll(io.LimitReader(plainText, int64(maxTextBytes)))
	if err != nil {
		result.Error = &ExtractionError{Code: ErrPDFOpenFailed, Message: "read plain text", Cause: err}
		return result
	}

	result.ExtractedText = string(textBytes)
	result.IsScanned = isLikelyScanned(result.ExtractedText, result.PageCount)
	return result
}

// isLikelyScanned reports whether the text density is too low for the PDF to
// contain a real text layer.
func isLikelyScanned(text string, pageCount int) bool {
	if pageCount < 1 {
		pageCount = 1
	}
	return len(strings.TrimSpace(text))/pageCount < scannedThreshold
}
