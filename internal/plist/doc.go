// Package plist reads and writes XML property lists as an ordered, typed tree.
//
// Unlike map-based plist decoders, the tree keeps dictionary keys in document order so a library can be
// decoded, edited and written back without reshuffling thousands of track records. Every node is one of the
// [Value] variants:
//
//   - [String], [Integer], [Real], [Date], [Bool], [Data] : scalars
//   - [*Dict] : ordered key/value pairs with unique keys
//   - [Array] : ordered values
//
// [Decode] accepts documents whose root element is <plist> or a bare <dict>, resolving named HTML entities
// along the way. [Encode] writes the XML declaration, the DOCTYPE and the tree, indenting each nesting level
// with [EncodeOptions.Indent]. Decode(Encode(v)) is structurally equal to v; byte-level conventions required by
// specific consumers live in package xmlfix.
package plist
