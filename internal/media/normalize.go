// Package media normalizes the wire encodings of screen and audio chunks
// into one canonical binary form before re-emission.
package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const DefaultMIMEType = "application/octet-stream"

// Wrapper objects may nest ({data: {type, data}}); anything deeper is
// pathological input and gets rejected instead of walked.
const maxWrapperDepth = 2

var (
	ErrUnsupportedShape = errors.New("unsupported payload shape")
	ErrNestedTooDeep    = errors.New("payload wrappers nested too deep")
	ErrBadEncoding      = errors.New("payload encoding invalid")
)

// Frame is the canonical in-memory form of one media chunk.
type Frame struct {
	MIMEType string
	Bytes    []byte
}

// Normalize converts any accepted wire shape into a Frame or fails
// explicitly. Accepted shapes: a raw byte slice, a base64 string, a
// data: URI string, and a wrapper object carrying a data field and an
// optional type field (recursively one of the former).
//
// It never drops bytes silently: a shape or encoding it cannot decode in
// full is an error, not a truncated Frame.
func Normalize(payload any, fallbackMIME string) (Frame, error) {
	if fallbackMIME == "" {
		fallbackMIME = DefaultMIMEType
	}
	return normalize(payload, fallbackMIME, 0)
}

func normalize(payload any, mime string, depth int) (Frame, error) {
	switch p := payload.(type) {
	case []byte:
		// Copy so the Frame does not alias a transport read buffer.
		buf := make([]byte, len(p))
		copy(buf, p)
		return Frame{MIMEType: mime, Bytes: buf}, nil
	case string:
		return normalizeString(p, mime)
	case map[string]any:
		return normalizeWrapper(p, mime, depth)
	default:
		return Frame{}, fmt.Errorf("%w: %T", ErrUnsupportedShape, payload)
	}
}

func normalizeWrapper(obj map[string]any, mime string, depth int) (Frame, error) {
	if depth >= maxWrapperDepth {
		return Frame{}, ErrNestedTooDeep
	}
	data, ok := obj["data"]
	if !ok {
		return Frame{}, fmt.Errorf("%w: wrapper object without data field", ErrUnsupportedShape)
	}
	if t, ok := obj["type"].(string); ok && t != "" {
		mime = t
	}
	return normalize(data, mime, depth+1)
}

func normalizeString(s, mime string) (Frame, error) {
	if rest, ok := strings.CutPrefix(s, "data:"); ok {
		return normalizeDataURI(rest, mime)
	}
	raw, err := base64.StdEncoding.Strict().DecodeString(s)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrBadEncoding, err)
	}
	return Frame{MIMEType: mime, Bytes: raw}, nil
}

// normalizeDataURI handles the part after the "data:" prefix. The segment
// before the first comma is the meta; a ";base64" suffix selects base64
// decoding, otherwise the body is percent-encoded text.
func normalizeDataURI(rest, fallback string) (Frame, error) {
	meta, body, ok := strings.Cut(rest, ",")
	if !ok {
		return Frame{}, fmt.Errorf("%w: data URI without comma", ErrBadEncoding)
	}
	if mime, isB64 := strings.CutSuffix(meta, ";base64"); isB64 {
		raw, err := base64.StdEncoding.Strict().DecodeString(body)
		if err != nil {
			return Frame{}, fmt.Errorf("%w: %v", ErrBadEncoding, err)
		}
		if mime == "" {
			mime = fallback
		}
		return Frame{MIMEType: mime, Bytes: raw}, nil
	}
	text, err := url.PathUnescape(body)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrBadEncoding, err)
	}
	mime := meta
	if mime == "" {
		mime = fallback
	}
	return Frame{MIMEType: mime, Bytes: []byte(text)}, nil
}
