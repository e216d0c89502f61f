package stocktake

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Counting sheets come out of spreadsheet programs in whatever encoding the
// workstation uses; these are the ones seen on the shop floor.
var (
	byteOrderMarks = []struct {
		mark []byte
		enc  encoding.Encoding
	}{
		{[]byte{0xEF, 0xBB, 0xBF}, nil},
		{[]byte{0xFF, 0xFE}, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)},
		{[]byte{0xFE, 0xFF}, unicode.UTF16(unicode.BigEndian, unicode.UseBOM)},
	}

	detected = map[string]encoding.Encoding{
		"ISO-8859-1":   charmap.Windows1252,
		"windows-1252": charmap.Windows1252,
		"ISO-8859-15":  charmap.ISO8859_15,
		"ISO-8859-2":   charmap.ISO8859_2,
		"windows-1250": charmap.Windows1250,
	}
)

const sniffSize = 4096

// utf8Reader returns r decoded to UTF-8. A BOM wins, then valid UTF-8 is
// passed through, then chardet guesses, and Windows-1252 is the fallback.
func utf8Reader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReaderSize(r, sniffSize)

	head, err := br.Peek(sniffSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("peek: %w", err)
	}

	for _, bom := range byteOrderMarks {
		if !bytes.HasPrefix(head, bom.mark) {
			continue
		}

		if bom.enc == nil {
			_, _ = br.Discard(len(bom.mark))
			return br, nil
		}

		return transform.NewReader(br, bom.enc.NewDecoder()), nil
	}

	if validUTF8(head, len(head) == sniffSize) {
		return br, nil
	}

	if res, err := chardet.NewTextDetector().DetectBest(head); err == nil {
		if res.Charset == "UTF-8" {
			return br, nil
		}

		if enc, ok := detected[res.Charset]; ok {
			return transform.NewReader(br, enc.NewDecoder()), nil
		}
	}

	return transform.NewReader(br, charmap.Windows1252.NewDecoder()), nil
}

// validUTF8 reports whether b is UTF-8. A truncated sniff may end mid-rune,
// so a trailing partial rune is ignored.
func validUTF8(b []byte, truncated bool) bool {
	if truncated && len(b) > 0 {
		if start := lastRuneStart(b); !utf8.FullRune(b[start:]) {
			b = b[:start]
		}
	}

	return utf8.Valid(b)
}

func lastRuneStart(b []byte) int {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			return i
		}
	}

	return len(b) - 1
}
