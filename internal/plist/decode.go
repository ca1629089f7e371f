package plist

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// ParseError describes why a document could not be decoded.
type ParseError struct {
	Line   int
	Column int
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("plist: line %d col %d: %s", e.Line, e.Column, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// Decode parses an XML property list. The root element must be <plist> wrapping a single value, or a bare <dict>.
func Decode(data []byte) (Value, error) {
	p := newParser(bytes.NewReader(data))

	start, err := p.nextStart()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, p.errorf(nil, "document has no root element")
		}
		return nil, err
	}

	var root Value
	switch start.Name.Local {
	case "plist":
		root, err = p.parsePlist()
	case "dict":
		root, err = p.parseDict()
	default:
		return nil, p.errorf(nil, "unexpected root element <%s>", start.Name.Local)
	}
	if err != nil {
		return nil, err
	}

	if err := p.expectEOF(); err != nil {
		return nil, err
	}
	return root, nil
}

type parser struct {
	d *xml.Decoder
}

func newParser(r io.Reader) *parser {
	d := xml.NewDecoder(r)
	d.Strict = true
	d.Entity = xml.HTMLEntity
	return &parser{d: d}
}

func (p *parser) errorf(err error, format string, args ...any) *ParseError {
	line, col := p.d.InputPos()
	return &ParseError{Line: line, Column: col, Reason: fmt.Sprintf(format, args...), Err: err}
}

// token returns the next token, converting decoder failures into [ParseError]. io.EOF is returned unchanged.
func (p *parser) token() (xml.Token, error) {
	tok, err := p.d.Token()
	if err == nil {
		return tok, nil
	}
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	return nil, p.errorf(err, "malformed XML")
}

// nextStart skips prolog, comments and whitespace until the next start element.
func (p *parser) nextStart() (xml.StartElement, error) {
	for {
		tok, err := p.token()
		if err != nil {
			return xml.StartElement{}, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return t, nil
		case xml.EndElement:
			return xml.StartElement{}, p.errorf(nil, "unexpected </%s>", t.Name.Local)
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return xml.StartElement{}, p.errorf(nil, "unexpected text %q", truncate(string(t)))
			}
		}
	}
}

// nextChild returns the next child start element, or ok=false once the parent's end tag is consumed.
func (p *parser) nextChild(parent string) (xml.StartElement, bool, error) {
	for {
		tok, err := p.token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return xml.StartElement{}, false, p.errorf(err, "unterminated <%s>", parent)
			}
			return xml.StartElement{}, false, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return t, true, nil
		case xml.EndElement:
			return xml.StartElement{}, false, nil
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return xml.StartElement{}, false, p.errorf(nil, "unexpected text %q in <%s>", truncate(string(t)), parent)
			}
		}
	}
}

func (p *parser) expectEOF() error {
	for {
		tok, err := p.token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return p.errorf(nil, "unexpected <%s> after root element", t.Name.Local)
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return p.errorf(nil, "unexpected text after root element")
			}
		}
	}
}

// text collects character data up to the end of the current element.
func (p *parser) text(name string) (string, error) {
	var sb strings.Builder
	for {
		tok, err := p.token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", p.errorf(err, "unterminated <%s>", name)
			}
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.StartElement:
			return "", p.errorf(nil, "unexpected <%s> inside <%s>", t.Name.Local, name)
		case xml.EndElement:
			return sb.String(), nil
		}
	}
}

func (p *parser) parsePlist() (Value, error) {
	start, ok, err := p.nextChild("plist")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, p.errorf(nil, "empty <plist>")
	}
	v, err := p.parseValue(start)
	if err != nil {
		return nil, err
	}
	if extra, ok, err := p.nextChild("plist"); err != nil {
		return nil, err
	} else if ok {
		return nil, p.errorf(nil, "<plist> holds more than one value (found <%s>)", extra.Name.Local)
	}
	return v, nil
}

func (p *parser) parseValue(start xml.StartElement) (Value, error) {
	name := start.Name.Local
	switch name {
	case "dict":
		return p.parseDict()
	case "array":
		return p.parseArray()
	case "true", "false":
		s, err := p.text(name)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(s) != "" {
			return nil, p.errorf(nil, "<%s> must be empty", name)
		}
		return Bool(name == "true"), nil
	}

	s, err := p.text(name)
	if err != nil {
		return nil, err
	}

	switch name {
	case "string":
		return String(s), nil
	case "integer":
		return p.parseInteger(s)
	case "real":
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, p.errorf(err, "invalid <real> %q", truncate(s))
		}
		return Real(f), nil
	case "date":
		t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
		if err != nil {
			return nil, p.errorf(err, "invalid <date> %q", truncate(s))
		}
		return NewDate(t), nil
	case "data":
		b, err := base64.StdEncoding.DecodeString(stripSpace(s))
		if err != nil {
			return nil, p.errorf(err, "invalid <data>")
		}
		return Data(b), nil
	case "key":
		return nil, p.errorf(nil, "<key> outside of <dict>")
	default:
		return nil, p.errorf(nil, "unknown element <%s>", name)
	}
}

func (p *parser) parseInteger(s string) (Value, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return Integer(n), nil
	}
	if u, uerr := strconv.ParseUint(strings.TrimPrefix(s, "+"), 10, 64); uerr == nil {
		return Unsigned(u), nil
	}
	return nil, p.errorf(err, "invalid <integer> %q", truncate(s))
}

func (p *parser) parseDict() (*Dict, error) {
	d := &Dict{}
	for {
		start, ok, err := p.nextChild("dict")
		if err != nil {
			return nil, err
		}
		if !ok {
			return d, nil
		}
		if start.Name.Local != "key" {
			return nil, p.errorf(nil, "expected <key> in <dict>, found <%s>", start.Name.Local)
		}
		key, err := p.text("key")
		if err != nil {
			return nil, err
		}
		if d.Has(key) {
			return nil, p.errorf(nil, "duplicate key %q", key)
		}

		vstart, ok, err := p.nextChild("dict")
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, p.errorf(nil, "key %q has no value", key)
		}
		v, err := p.parseValue(vstart)
		if err != nil {
			return nil, err
		}
		d.Set(key, v)
	}
}

func (p *parser) parseArray() (Array, error) {
	a := Array{}
	for {
		start, ok, err := p.nextChild("array")
		if err != nil {
			return nil, err
		}
		if !ok {
			return a, nil
		}
		v, err := p.parseValue(start)
		if err != nil {
			return nil, err
		}
		a = append(a, v)
	}
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
}

func truncate(s string) string {
	const limit = 40
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
