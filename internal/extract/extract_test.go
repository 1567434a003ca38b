package extract

import (
	"errors"
	"strings"
	"testing"
)

func TestPlainTextExtract(t *testing.T) {
	text, meta, err := PlainText{}.Extract([]byte("# A Study of Retrieval\n\nBody text here."))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(text, "Body text here.") {
		t.Errorf("text = %q", text)
	}
	if meta["title"] != "A Study of Retrieval" {
		t.Errorf("title = %q, want heading without markers", meta["title"])
	}
	if meta["chars"] == "" {
		t.Error("chars metadata missing")
	}
}

func TestPlainTextStripsBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Title line\nrest")...)
	text, meta, err := PlainText{}.Extract(data)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if strings.HasPrefix(text, "\uFEFF") {
		t.Error("BOM survived extraction")
	}
	if meta["title"] != "Title line" {
		t.Errorf("title = %q", meta["title"])
	}
}

func TestPlainTextRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "binary", data: []byte{0x25, 0x50, 0x44, 0x46, 0x00, 0x01}},
		{name: "invalid utf-8", data: []byte{0xff, 0xfe, 0x41}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := PlainText{}.Extract(tt.data)
			if !errors.Is(err, ErrUnreadable) {
				t.Errorf("error = %v, want ErrUnreadable", err)
			}
		})
	}
}

func TestGuessTitleLongLine(t *testing.T) {
	long := strings.Repeat("t", 300)
	_, meta, err := PlainText{}.Extract([]byte(long))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(meta["title"]) != 200 {
		t.Errorf("title length = %d, want capped at 200", len(meta["title"]))
	}
}
