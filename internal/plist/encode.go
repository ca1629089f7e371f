package plist

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strconv"
	"unicode/utf8"
)

const (
	xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"
	// DocType is the declaration Encode emits. Some consumers require the older "Apple Computer" owner; see
	// package xmlfix.
	DocType    = `<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">` + "\n"
	plistOpen  = `<plist version="1.0">` + "\n"
	plistClose = "</plist>\n"

	// DateLayout is the ISO-8601 form used for <date> elements.
	DateLayout = "2006-01-02T15:04:05Z"
)

// ErrNilValue is returned when a tree contains a nil node.
var ErrNilValue = errors.New("plist: nil value")

// EncodeOptions controls the textual layout of [Encode].
type EncodeOptions struct {
	// Indent is repeated once per nesting level. Defaults to a tab.
	Indent string
}

// Encode serializes v as a complete XML property list document.
//
// The root value starts at column zero inside <plist>. Dictionaries and arrays place each child on its own line,
// one indent deeper; scalars are written inline. Empty containers are self-closed.
func Encode(v Value, opts EncodeOptions) ([]byte, error) {
	if opts.Indent == "" {
		opts.Indent = "\t"
	}
	e := &encoder{indent: opts.Indent}
	e.buf.WriteString(xmlHeader)
	e.buf.WriteString(DocType)
	e.buf.WriteString(plistOpen)
	if err := e.value(v, 0); err != nil {
		return nil, err
	}
	e.buf.WriteString(plistClose)
	return e.buf.Bytes(), nil
}

type encoder struct {
	buf    bytes.Buffer
	indent string
}

func (e *encoder) pad(depth int) {
	for range depth {
		e.buf.WriteString(e.indent)
	}
}

func (e *encoder) value(v Value, depth int) error {
	e.pad(depth)
	switch x := v.(type) {
	case nil:
		return ErrNilValue
	case String:
		e.element("string", string(x))
	case Integer:
		e.raw("integer", strconv.FormatInt(int64(x), 10))
	case Unsigned:
		e.raw("integer", strconv.FormatUint(uint64(x), 10))
	case Real:
		e.raw("real", formatReal(float64(x)))
	case Date:
		e.raw("date", x.Time().Format(DateLayout))
	case Bool:
		if x {
			e.buf.WriteString("<true/>\n")
		} else {
			e.buf.WriteString("<false/>\n")
		}
	case Data:
		e.raw("data", base64.StdEncoding.EncodeToString(x))
	case *Dict:
		if x == nil {
			return ErrNilValue
		}
		return e.dict(x, depth)
	case Array:
		return e.array(x, depth)
	default:
		return fmt.Errorf("plist: unsupported value %T", v)
	}
	return nil
}

func (e *encoder) dict(d *Dict, depth int) error {
	if d.Len() == 0 {
		e.buf.WriteString("<dict/>\n")
		return nil
	}
	e.buf.WriteString("<dict>\n")
	for k, v := range d.All() {
		e.pad(depth + 1)
		e.element("key", k)
		if err := e.value(v, depth+1); err != nil {
			if errors.Is(err, ErrNilValue) {
				return fmt.Errorf("%w at key %q", err, k)
			}
			return err
		}
	}
	e.pad(depth)
	e.buf.WriteString("</dict>\n")
	return nil
}

func (e *encoder) array(a Array, depth int) error {
	if len(a) == 0 {
		e.buf.WriteString("<array/>\n")
		return nil
	}
	e.buf.WriteString("<array>\n")
	for _, v := range a {
		if err := e.value(v, depth+1); err != nil {
			return err
		}
	}
	e.pad(depth)
	e.buf.WriteString("</array>\n")
	return nil
}

func (e *encoder) raw(tag, text string) {
	e.buf.WriteString("<" + tag + ">")
	e.buf.WriteString(text)
	e.buf.WriteString("</" + tag + ">\n")
}

func (e *encoder) element(tag, text string) {
	e.buf.WriteString("<" + tag + ">")
	escapeText(&e.buf, text)
	e.buf.WriteString("</" + tag + ">\n")
}

// escapeText writes s with markup characters escaped. Quotes stay literal; characters XML cannot carry are
// replaced with U+FFFD.
func escapeText(buf *bytes.Buffer, s string) {
	for i := 0; i < len(s); {
		r, width := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == '&':
			buf.WriteString("&amp;")
		case r == '<':
			buf.WriteString("&lt;")
		case r == '>':
			buf.WriteString("&gt;")
		case r == '\r':
			buf.WriteString("&#13;")
		case r == utf8.RuneError && width == 1, !isXMLChar(r):
			buf.WriteRune(utf8.RuneError)
		default:
			buf.WriteString(s[i : i+width])
		}
		i += width
	}
}

func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}

func formatReal(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "+infinity"
	case math.IsInf(f, -1):
		return "-infinity"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
