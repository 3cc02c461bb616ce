// Package core provides the PDF object model and the low-level parsing
// primitives that turn file bytes into objects.
//
// # Object Types
//
// Every value satisfies the [Object] interface:
//
//   - [Null], [Bool], [Int], [Real]
//   - [String] - raw bytes plus a [StringFormat] recording literal or hex form
//   - [Name]
//   - [Array]
//   - [Dict] - an ordered dictionary; keys keep their insertion order
//   - [Stream] - a dictionary plus a raw payload
//   - [IndirectRef] - a reference to an object by [ObjectID]
//
// References are never followed by this package. Resolving them is the job of
// whoever owns the objects (see the document and resolver packages).
//
// # Parsing
//
// The [Lexer] tokenizes an in-memory buffer and the [Parser] builds objects
// from its tokens. Both work on a shared read-only []byte, so independent
// parsers can run over the same file concurrently.
//
// Stream payloads are read using the declared Length when it ends on the
// endstream keyword, and by scanning for endstream otherwise.
//
// # Cross-Reference Resolution
//
// [XRefParser] reads classic tables and cross-reference streams and follows
// Prev chains, keeping the newest entry for each object number.
// [ResolveXRef] validates the result and falls back to [Recover], which
// rebuilds the index by scanning the file for object headers.
//
// # Object Streams
//
// [ObjectStream] extracts the objects stored in a /Type /ObjStm stream.
//
// # Stream Decoding
//
// [Stream.Decode] runs the Filter chain through the codecs of the filters
// package; [Stream.Encode] and [Stream.Compress] apply filters.
package core
