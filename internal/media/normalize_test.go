package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"
)

func TestNormalizeByteSlice(t *testing.T) {
	src := []byte{0x00, 0xff, 0x10, 0x7f}
	frame, err := Normalize(src, "image/jpeg")
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if frame.MIMEType != "image/jpeg" {
		t.Errorf("MIMEType = %q, want image/jpeg", frame.MIMEType)
	}
	if !bytes.Equal(frame.Bytes, src) {
		t.Errorf("Bytes = %v, want %v", frame.Bytes, src)
	}

	// The frame must not alias the caller's buffer.
	src[0] = 0xaa
	if frame.Bytes[0] == 0xaa {
		t.Error("frame aliases the input buffer")
	}
}

func TestNormalizeByteSliceDefaultMIME(t *testing.T) {
	frame, err := Normalize([]byte{1, 2, 3}, "")
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if frame.MIMEType != DefaultMIMEType {
		t.Errorf("MIMEType = %q, want %q", frame.MIMEType, DefaultMIMEType)
	}
}

func TestNormalizeBase64RoundTrip(t *testing.T) {
	src := []byte("arbitrary bytes \x00\x01\x02 with nul")
	encoded := base64.StdEncoding.EncodeToString(src)

	frame, err := Normalize(encoded, "audio/mpeg")
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if frame.MIMEType != "audio/mpeg" {
		t.Errorf("MIMEType = %q, want audio/mpeg", frame.MIMEType)
	}
	if !bytes.Equal(frame.Bytes, src) {
		t.Errorf("Bytes = %q, want %q", frame.Bytes, src)
	}
}

func TestNormalizeDataURIBase64(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G'}
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(payload)

	frame, err := Normalize(uri, "application/octet-stream")
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if frame.MIMEType != "image/png" {
		t.Errorf("MIMEType = %q, want image/png", frame.MIMEType)
	}
	if !bytes.Equal(frame.Bytes, payload) {
		t.Errorf("Bytes = %v, want %v", frame.Bytes, payload)
	}
}

func TestNormalizeDataURIPercentEncoded(t *testing.T) {
	frame, err := Normalize("data:text/plain,hello%20world", "")
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if frame.MIMEType != "text/plain" {
		t.Errorf("MIMEType = %q, want text/plain", frame.MIMEType)
	}
	if string(frame.Bytes) != "hello world" {
		t.Errorf("Bytes = %q, want %q", frame.Bytes, "hello world")
	}
}

func TestNormalizeDataURIEmptyMeta(t *testing.T) {
	frame, err := Normalize("data:,plain", "text/html")
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if frame.MIMEType != "text/html" {
		t.Errorf("MIMEType = %q, want fallback text/html", frame.MIMEType)
	}
}

func TestNormalizeWrapper(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("frame"))
	payload := map[string]any{"type": "audio/mpeg", "data": encoded}

	frame, err := Normalize(payload, "application/octet-stream")
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if frame.MIMEType != "audio/mpeg" {
		t.Errorf("MIMEType = %q, want audio/mpeg", frame.MIMEType)
	}
	if string(frame.Bytes) != "frame" {
		t.Errorf("Bytes = %q, want %q", frame.Bytes, "frame")
	}
}

func TestNormalizeWrapperKeepsFallbackWithoutType(t *testing.T) {
	payload := map[string]any{"data": base64.StdEncoding.EncodeToString([]byte("x"))}
	frame, err := Normalize(payload, "video/webm")
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if frame.MIMEType != "video/webm" {
		t.Errorf("MIMEType = %q, want video/webm", frame.MIMEType)
	}
}

func TestNormalizeNestedWrapperBound(t *testing.T) {
	inner := map[string]any{"data": base64.StdEncoding.EncodeToString([]byte("deep"))}
	twoLevels := map[string]any{"data": inner}
	if _, err := Normalize(twoLevels, ""); err != nil {
		t.Errorf("two wrapper levels should normalize, got %v", err)
	}

	threeLevels := map[string]any{"data": map[string]any{"data": inner}}
	if _, err := Normalize(threeLevels, ""); !errors.Is(err, ErrNestedTooDeep) {
		t.Errorf("three wrapper levels: err = %v, want ErrNestedTooDeep", err)
	}
}

func TestNormalizeRejectsMalformedBase64(t *testing.T) {
	for _, input := range []string{"not!base64", "abc", "====", "a b c d"} {
		if _, err := Normalize(input, ""); !errors.Is(err, ErrBadEncoding) {
			t.Errorf("Normalize(%q): err = %v, want ErrBadEncoding", input, err)
		}
	}
}

func TestNormalizeRejectsUnsupportedShapes(t *testing.T) {
	for _, input := range []any{nil, 42, 3.14, true, []any{"a"}, map[string]any{"type": "image/png"}} {
		if _, err := Normalize(input, ""); !errors.Is(err, ErrUnsupportedShape) {
			t.Errorf("Normalize(%#v): err = %v, want ErrUnsupportedShape", input, err)
		}
	}
}

func TestNormalizeRejectsDataURIWithoutComma(t *testing.T) {
	if _, err := Normalize("data:image/png;base64", ""); !errors.Is(err, ErrBadEncoding) {
		t.Errorf("err = %v, want ErrBadEncoding", err)
	}
}
