package feed

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Taipei is the fixed +08:00 zone feed dates are rendered in.
var Taipei = time.FixedZone("Asia/Taipei", 8*60*60)

// CDATA marshals as a <![CDATA[...]]> section.
type CDATA string

func (s CDATA) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return e.EncodeElement(struct {
		Value string `xml:",cdata"`
	}{string(s)}, start)
}

func isXMLChar(r rune) bool {
	return r == '\t' || r == '\n' || r == '\r' ||
		(r >= 0x20 && r <= 0xD7FF) ||
		(r >= 0xE000 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0x10FFFF)
}

// StripInvalidXMLChars drops runes outside of the XML 1.0 character range.
func StripInvalidXMLChars(s string) string {
	return strings.Map(func(r rune) rune {
		if isXMLChar(r) {
			return r
		}
		return -1
	}, s)
}

// GUID is the hex SHA-224 digest of s.
func GUID(s string) string {
	sum := sha256.Sum224([]byte(s))
	return hex.EncodeToString(sum[:])
}

// UnixMillis is t in epoch milliseconds, rounded to the nearest one.
func UnixMillis(t time.Time) int64 {
	return t.Round(time.Millisecond).UnixMilli()
}

// Marshal renders v as an indented XML document with declaration.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	e := xml.NewEncoder(&buf)
	e.Indent("", "  ")
	if err := e.Encode(v); err != nil {
		return nil, errors.Wrap(err, "failed to encode xml")
	}
	if err := e.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to flush xml")
	}
	return buf.Bytes(), nil
}
