// Package xmlfix rewrites serialized property lists into the byte-level dialect rekordbox expects from a
// Music.app library export.
//
// Each pass is a pure string transformation and is idempotent, so running [Apply] twice yields the same
// document as running it once.
package xmlfix

import (
	"encoding/xml"
	"regexp"
	"strconv"
	"strings"
)

const (
	modernOwner = "//Apple//DTD PLIST"
	legacyOwner = "//Apple Computer//DTD PLIST"
)

var (
	simpleElement = regexp.MustCompile(`(</key>)\n[\t ]+<(string|integer|date|true/?|false/?)>`)
	namedEntity   = regexp.MustCompile(`&\w*;`)
)

// Options selects which passes [Apply] runs.
type Options struct {
	FixDoctype bool
	Collapse   bool
	ReEncode   bool
}

// DefaultOptions enables every pass.
func DefaultOptions() Options {
	return Options{FixDoctype: true, Collapse: true, ReEncode: true}
}

// Apply runs the enabled passes in order: doctype, collapse, entities.
func Apply(doc string, opts Options) string {
	if opts.FixDoctype {
		doc = FixDoctype(doc)
	}
	if opts.Collapse {
		doc = CollapseSimpleElements(doc)
	}
	if opts.ReEncode {
		doc = ReEncodeHTMLEntities(doc)
	}
	return doc
}

// Process applies every pass.
func Process(doc string) string {
	return Apply(doc, DefaultOptions())
}

// FixDoctype rewrites the first modern Apple DTD owner to the legacy "Apple Computer" form.
func FixDoctype(doc string) string {
	return strings.Replace(doc, modernOwner, legacyOwner, 1)
}

// CollapseSimpleElements moves scalar values onto the same line as their key:
//
//	<key>Name</key>
//	<string>x</string>
//
// becomes
//
//	<key>Name</key><string>x</string>
//
// Dictionaries and arrays keep their own lines.
func CollapseSimpleElements(doc string) string {
	return simpleElement.ReplaceAllString(doc, "$1<$2>")
}

// ReEncodeHTMLEntities replaces named entities with decimal character references, one per code point.
// &apos; becomes a literal apostrophe. Names that are not recognized are left as they are; numeric references
// never match and are untouched.
func ReEncodeHTMLEntities(doc string) string {
	return namedEntity.ReplaceAllStringFunc(doc, func(entity string) string {
		name := entity[1 : len(entity)-1]
		if name == "apos" {
			return "'"
		}

		text, ok := lookupEntity(name)
		if !ok {
			return entity
		}

		var sb strings.Builder
		for _, r := range text {
			sb.WriteString("&#")
			sb.WriteString(strconv.Itoa(int(r)))
			sb.WriteByte(';')
		}
		return sb.String()
	})
}

func lookupEntity(name string) (string, bool) {
	switch name {
	case "amp":
		return "&", true
	case "lt":
		return "<", true
	case "gt":
		return ">", true
	case "quot":
		return `"`, true
	}
	text, ok := xml.HTMLEntity[name]
	return text, ok
}
