package extraction

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimalPDF builds a valid one-page PDF whose content stream draws the given
// text, recording each object's byte offset so the xref table is exact.
func minimalPDF(text string) []byte {
	var buf bytes.Buffer
	offsets := make([]int, 0, 5)
	writeObj := func(body string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(body)
	}

	buf.WriteString("%PDF-1.4\n")
	writeObj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	writeObj("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")
	writeObj("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] " +
		"/Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>\nendobj\n")
	writeObj("4 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")
	stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
	writeObj(fmt.Sprintf("5 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(stream), stream))

	xrefStart := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xrefStart)
	return buf.Bytes()
}

func TestAnalyzePDFWellFormedDocument(t *testing.T) {
	// Long enough to clear the scanned-document text density threshold.
	line := "01/02/2024 WOOLWORTHS METRO 45.20 02/02/2024 SALARY DEPOSIT 4500.00"
	result := AnalyzePDF(minimalPDF(line), "")

	require.NotNil(t, result)
	require.NoError(t, result.Error)
	assert.Equal(t, 1, result.PageCount)
	assert.False(t, result.IsScanned)
	assert.Contains(t, result.ExtractedText, "WOOLWORTHS METRO")
	assert.Contains(t, result.ExtractedText, "SALARY DEPOSIT")
}

func TestAnalyzePDFCorruptBytes(t *testing.T) {
	result := AnalyzePDF([]byte("this is not a pdf"), "")
	require.NotNil(t, result)
	assert.Error(t, result.Error)
	assert.True(t, result.IsScanned)
	assert.Empty(t, result.ExtractedText)
}

func TestAnalyzePDFEmptyInput(t *testing.T) {
	result := AnalyzePDF(nil, "")
	require.NotNil(t, result)
	assert.Error(t, result.Error)
}

func TestIsLikelyScanned(t *testing.T) {
	assert.True(t, isLikelyScanned("", 1))
	assert.True(t, isLikelyScanned("short", 1))
	assert.False(t, isLikelyScanned(strings.Repeat("transaction line text ", 20), 1))
	// Dense text spread over many pages can still be scanned-like
	assert.True(t, isLikelyScanned("a little text", 10))
}

func TestSubprocessResultShape(t *testing.T) {
	ok := SubprocessResult{Success: true, Text: "hello"}
	raw, err := json.Marshal(ok)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"text":"hello"}`, string(raw))

	fail := SubprocessResult{Success: false, Error: "open PDF reader: bad header"}
	raw, err = json.Marshal(fail)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":"open PDF reader: bad header"}`, string(raw))
}

func TestLimitedWriterCapsOutput(t *testing.T) {
	var buf bytes.Buffer
	lw := &limitedWriter{w: &buf, n: 10}

	n, err := lw.Write([]byte("0123456789abcdef"))
	require.NoError(t, err)
	assert.Equal(t, 16, n) // reports full write so the subprocess is not broken
	assert.Equal(t, "0123456789", buf.String())

	// Further writes are swallowed
	n, err = lw.Write([]byte("more"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "0123456789", buf.String())
}
