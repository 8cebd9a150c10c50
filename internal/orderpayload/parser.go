// Package orderpayload turns the order_data argument the agent sends into a
// flat map of order attributes.
//
// The agent produces one of three shapes:
//
//	{"order_details": {"tooth_position": "16", ...}}   JSON, nested
//	{"tooth_position": "16", ...}                        JSON, flat
//	{order_details={tooth_position=16, product=Crown}}   brace/equals micro-format
//
// The micro-format grammar accepted here is
//
//	payload := any* "order_details={" body ( "}" any* )?
//	body    := piece ( ", " piece )*
//	piece   := key "=" value | text-without-"="
//
// Keys and values are whitespace-trimmed. There are no escapes: a value that
// contains ", " is split into two pieces, a value that contains "}" ends the
// body early, and nested braces are not recognised. Pieces without "=" are
// dropped. JSON may carry comments and trailing commas. Parsing never fails;
// malformed input yields a partial or empty map.
package orderpayload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/jsonc"
)

const (
	marker        = "order_details={"
	detailsKey    = "order_details"
	pairSeparator = ", "
)

// Parse returns the order attributes held in v. Strings are parsed as
// described in the package documentation; maps are used as-is; anything else
// yields an empty map.
func Parse(v any) map[string]string {
	switch t := v.(type) {
	case nil:
		return map[string]string{}
	case string:
		return ParseString(t)
	case json.RawMessage:
		return parseRaw(t)
	case []byte:
		return parseRaw(t)
	case map[string]string:
		out := make(map[string]string, len(t))
		for k, val := range t {
			out[k] = val
		}
		return out
	case map[string]any:
		return stringify(t)
	default:
		return map[string]string{}
	}
}

// ParseString parses a textual order payload.
func ParseString(s string) map[string]string {
	if body, ok := scanBody(s); ok {
		out := make(map[string]string)
		for _, p := range splitPairs(body) {
			out[p.key] = p.value
		}
		return out
	}
	return parseJSON(s)
}

// parseRaw handles structured data that reached us still encoded: a JSON
// string is parsed as text, a JSON object is used directly.
func parseRaw(b []byte) map[string]string {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return map[string]string{}
		}
		return ParseString(s)
	}
	var obj map[string]any
	if err := json.Unmarshal(jsonc.ToJSON(trimmed), &obj); err != nil {
		return map[string]string{}
	}
	return stringify(obj)
}

type pair struct {
	key   string
	value string
}

// scanBody returns the text between the first marker and the first closing
// brace after it. Without a closing brace the rest of the input is the body.
func scanBody(s string) (string, bool) {
	idx := strings.Index(s, marker)
	if idx < 0 {
		return "", false
	}
	rest := s[idx+len(marker):]
	if end := strings.IndexByte(rest, '}'); end >= 0 {
		rest = rest[:end]
	}
	return rest, true
}

func splitPairs(body string) []pair {
	pieces := strings.Split(body, pairSeparator)
	out := make([]pair, 0, len(pieces))
	for _, piece := range pieces {
		k, v, ok := strings.Cut(piece, "=")
		if !ok {
			continue
		}
		out = append(out, pair{key: strings.TrimSpace(k), value: strings.TrimSpace(v)})
	}
	return out
}

// parseJSON accepts JSON with comments and trailing commas, which agents
// occasionally emit.
func parseJSON(s string) map[string]string {
	var obj map[string]any
	if err := json.Unmarshal(jsonc.ToJSON([]byte(s)), &obj); err != nil {
		return map[string]string{}
	}
	if nested, ok := obj[detailsKey]; ok {
		inner, ok := nested.(map[string]any)
		if !ok {
			return map[string]string{}
		}
		return stringify(inner)
	}
	return stringify(obj)
}

// stringify converts decoded JSON values to strings. Strings pass through,
// null becomes empty, everything else is rendered as compact JSON.
func stringify(m map[string]any) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		switch t := v.(type) {
		case string:
			out[k] = t
		case nil:
			out[k] = ""
		default:
			b, err := json.Marshal(t)
			if err != nil {
				out[k] = fmt.Sprint(t)
				continue
			}
			out[k] = string(b)
		}
	}
	return out
}
