package source

import (
	"bytes"
	"io"
	"testing"
	"testing/iotest"
)

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		encoding string
		want     string
	}{
		{"plain utf-8", []byte("clc,localidad"), "", "clc,localidad"},
		{"BOM is skipped", append([]byte{0xEF, 0xBB, 0xBF}, "clc"...), "utf-8", "clc"},
		{"only BOM", []byte{0xEF, 0xBB, 0xBF}, "utf-8", ""},
		{"partial BOM is kept as replacement", []byte{0xEF, 0xBB, 'a'}, "utf-8", "??a"},
		{"multibyte kept", []byte("Córdoba"), "utf8", "Córdoba"},
		{"invalid byte replaced", []byte{'C', 0xF3, 'r', 'd'}, "utf-8", "C?rd"},
		{"latin1 decoded", []byte{'C', 0xF3, 'r', 'd', 'o', 'b', 'a'}, "latin1", "Córdoba"},
		{"windows-1252 decoded", []byte{'R', 0xED, 'o', 's'}, "windows-1252", "Ríos"},
		{"empty input", nil, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := decodeText(bytes.NewReader(tt.input), tt.encoding)
			if err != nil {
				t.Fatalf("decodeText() error = %v", err)
			}
			got, err := io.ReadAll(r)
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeText_UnknownEncoding(t *testing.T) {
	if _, err := decodeText(bytes.NewReader(nil), "utf-16"); err == nil {
		t.Error("decodeText(utf-16) expected error")
	}
}

func TestUTF8Sanitizer_SplitRunes(t *testing.T) {
	input := []byte("Entre Ríos, Neuquén, Añatuya")

	// OneByteReader splits every multi-byte rune across reads.
	r := newUTF8Sanitizer(iotest.OneByteReader(bytes.NewReader(input)))
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(got) != string(input) {
		t.Errorf("got %q, want %q", got, input)
	}
}

func TestUTF8Sanitizer_TruncatedAtEOF(t *testing.T) {
	input := append([]byte("ab"), 0xC3)

	got, err := io.ReadAll(newUTF8Sanitizer(bytes.NewReader(input)))
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(got) != "ab?" {
		t.Errorf("got %q, want %q", got, "ab?")
	}
}

func TestUTF8Sanitizer_TinyReads(t *testing.T) {
	input := []byte("Tucumán")
	r := newUTF8Sanitizer(bytes.NewReader(input))

	var got []byte
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		got = append(got, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
	}
	if string(got) != string(input) {
		t.Errorf("got %q, want %q", got, input)
	}
}
