package huefeed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const widgetSelector = ".view-data-widget .data-widget"

var errPayloadNotObject = errors.New("widget payload is not a JSON object")

var quoteEntities = strings.NewReplacer("&quot;", `"`, "&#34;", `"`)

// Field is one key/value pair of a widget payload.
type Field struct {
	Key   string
	Value string
}

// Payload is a decoded widget payload. Fields keep their document order.
type Payload []Field

// Get returns the value stored under key.
func (p Payload) Get(key string) (string, bool) {
	for _, f := range p {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Encode renders the payload as an application/x-www-form-urlencoded body.
func (p Payload) Encode() string {
	var b strings.Builder
	for i, f := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(f.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(f.Value))
	}
	return b.String()
}

// ExtractWidgetPayloads finds every widget data element in html and decodes
// its data-value attribute. Elements without the attribute are skipped
// silently; elements whose payload does not decode are logged and skipped.
func ExtractWidgetPayloads(html string, logger *zap.Logger) ([]Payload, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse landing page: %w", err)
	}
	var payloads []Payload
	doc.Find(widgetSelector).Each(func(i int, sel *goquery.Selection) {
		raw, ok := sel.Attr("data-value")
		if !ok || raw == "" {
			return
		}
		payload, err := DecodePayload(raw)
		if err != nil {
			logger.Warn("failed to parse widget payload",
				zap.Int("index", i),
				zap.String("raw", raw),
				zap.Error(err),
			)
			return
		}
		payloads = append(payloads, payload)
	})
	return payloads, nil
}

// DecodePayload turns an attribute value into a Payload. Strings are kept
// verbatim, null becomes "", numbers and booleans keep their JSON spelling and
// nested values are kept as compact JSON. A repeated key keeps its first
// position and takes the last value.
func DecodePayload(raw string) (Payload, error) {
	dec := json.NewDecoder(strings.NewReader(quoteEntities.Replace(raw)))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode widget payload: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errPayloadNotObject
	}

	payload := Payload{}
	index := map[string]int{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode widget key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("decode widget key: unexpected token %v", keyTok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("decode widget value for %q: %w", key, err)
		}
		text, err := formValue(value)
		if err != nil {
			return nil, fmt.Errorf("decode widget value for %q: %w", key, err)
		}
		if pos, seen := index[key]; seen {
			payload[pos].Value = text
			continue
		}
		index[key] = len(payload)
		payload = append(payload, Field{Key: key, Value: text})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode widget payload: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode widget payload: trailing data after object")
	}
	return payload, nil
}

func formValue(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "", nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", fmt.Errorf("unmarshal string: %w", err)
		}
		return s, nil
	case 'n':
		return "", nil
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err != nil {
			return "", fmt.Errorf("compact nested value: %w", err)
		}
		return buf.String(), nil
	default:
		return string(trimmed), nil
	}
}
