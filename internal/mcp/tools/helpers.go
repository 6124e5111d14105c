// Package tools contains the MCP tool implementations for the Purl log explorer.
package tools

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/purl-logs/purl-explorer/pkg/client"
)

// MIME type constant.
const MimeJSON = "application/json"

// Default and maximum page sizes for tools returning log entries.
const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

var printer = message.NewPrinter(language.English)

// FormatCount renders n with thousands separators.
func FormatCount(n int) string {
	return printer.Sprintf("%d", n)
}

// clampLimit applies the default page size and caps at MaxPageSize.
func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	return min(limit, MaxPageSize)
}

// page returns entries[offset:offset+limit], clamped to the slice bounds.
func page(entries []client.LogRecord, offset, limit int) []client.LogRecord {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(entries) {
		return nil
	}
	end := min(offset+limit, len(entries))
	return entries[offset:end]
}

// pageHint describes how much of the buffer a page shows and how to get more.
func pageHint(shown, offset, buffered, total int) string {
	switch {
	case buffered == 0:
		return "No logs matched. Widen the range or loosen the query."
	case offset+shown < buffered:
		return printer.Sprintf("Showing %d of %d buffered (%s matched). Use purl_get_results with offset=%d for more.",
			shown, buffered, FormatCount(total), offset+shown)
	case total > buffered:
		return printer.Sprintf("Buffer holds the newest %d of %s matches. Narrow the query or range to see the rest.",
			buffered, FormatCount(total))
	default:
		return "Use purl_get_log_context with a log id for surrounding lines, or purl_get_trace with a trace_id."
	}
}
