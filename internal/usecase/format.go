package usecase

import (
	"bytes"
	"encoding/json"
	"strings"

	"dental-order-agent/internal/domain"
)

const codeFence = "```"

var specialCharEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

func escapeSpecialChars(text string) string {
	return specialCharEscaper.Replace(text)
}

// createSafeMessage renders v as four-space indented JSON, escapes it, and
// wraps it in an <input> block.
func createSafeMessage(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	body := strings.TrimSuffix(buf.String(), "\n")
	return "<input>\n" + escapeSpecialChars(body) + "\n</input>", nil
}

// processBotResponse converts the first fenced block marker pair into
// <pre><code> tags. Only one pair is converted; any later fences are left as
// they are.
func processBotResponse(reply string) string {
	if !strings.Contains(reply, codeFence) {
		return reply
	}
	reply = strings.Replace(reply, codeFence, "<pre><code>", 1)
	return strings.Replace(reply, codeFence, "</code></pre>", 1)
}

// formatDocumentInfo lists attached document titles for the agent prompt.
func formatDocumentInfo(docs []domain.Document) string {
	titles := make([]string, 0, len(docs))
	for _, d := range docs {
		titles = append(titles, "- "+d.Title)
	}
	return "\nAttached Documents:\n" + strings.Join(titles, "\n")
}
