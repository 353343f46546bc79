package source

// text.go prepares text sources for parsing. Spreadsheet exports of this
// dataset arrive as UTF-8 with a Windows BOM, as UTF-8 with stray invalid
// bytes, or as Latin-1. The readers here normalize all of them to clean
// UTF-8 while streaming.

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText wraps r so it yields UTF-8 without a BOM.
// encoding is utf-8 (default), latin1/iso-8859-1 or windows-1252.
func decodeText(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf-8", "utf8":
		return newUTF8Sanitizer(skipBOM(r)), nil
	case "latin1", "iso-8859-1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("unsupported text encoding %q", encoding)
	}
}

// skipBOM drops a leading UTF-8 byte order mark.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// sanitizeChunk is how much the sanitizer reads from its source at a time.
const sanitizeChunk = 4096

// utf8Sanitizer replaces each invalid UTF-8 byte with '?' on the fly.
// A multi-byte sequence split across reads is carried over to the next read.
type utf8Sanitizer struct {
	r       io.Reader
	buf     []byte // read buffer, reused once out is drained
	out     []byte // sanitized bytes not yet returned
	pending []byte // incomplete rune at the end of the last chunk
	err     error  // sticky error from r
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{
		r:       r,
		buf:     make([]byte, sanitizeChunk+utf8.UTFMax),
		pending: make([]byte, 0, utf8.UTFMax),
	}
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(s.out) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		s.fill()
	}
	n := copy(p, s.out)
	s.out = s.out[n:]
	return n, nil
}

func (s *utf8Sanitizer) fill() {
	n := copy(s.buf, s.pending)
	s.pending = s.pending[:0]

	m, err := s.r.Read(s.buf[n : n+sanitizeChunk])
	s.err = err
	s.out = s.buf[:s.sanitize(s.buf[:n+m], err != nil)]
}

// sanitize rewrites data in place and returns the number of bytes to emit.
// Unless final, a trailing incomplete rune is moved to pending.
func (s *utf8Sanitizer) sanitize(data []byte, final bool) int {
	w := 0
	for i := 0; i < len(data); {
		if data[i] < utf8.RuneSelf {
			data[w] = data[i]
			w++
			i++
			continue
		}

		rest := data[i:]
		if !final && !utf8.FullRune(rest) {
			s.pending = append(s.pending, rest...)
			return w
		}

		r, size := utf8.DecodeRune(rest)
		if r == utf8.RuneError && size == 1 {
			data[w] = '?'
			w++
			i++
			continue
		}
		w += copy(data[w:], rest[:size])
		i += size
	}
	return w
}
