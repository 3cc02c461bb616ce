// Package writer serializes a document.Document to bytes.
//
// # Layouts
//
// Classic output writes every object as "N G obj ... endobj" in ascending id
// order, then a cross-reference table and trailer:
//
//	err := writer.Save(w, doc)
//
// Modern output packs objects that are not streams into compressed object
// streams of at most Options.MaxObjectsPerStream members and indexes the
// file with a cross-reference stream. The header version is raised to at
// least 1.5:
//
//	err := writer.SaveModern(w, doc)
//
// Both layouts are deterministic: the same document and options produce the
// same bytes, except for the random initialization vectors of AES
// encryption.
//
// # Streams
//
// Every stream's Length is recomputed from its payload. Streams marked with
// core.Stream.MarkCompress and carrying no filter are flate-compressed at
// Options.CompressionLevel. The document itself is never modified.
//
// # Encryption
//
// When the document has an encryption state (document.Document.Encrypt), the
// encryption dictionary is written as a new object after the document's
// objects, the trailer gets Encrypt and ID entries, and each object's
// strings and stream payloads are encrypted with that object's key. Object
// streams are encrypted as a whole and their members stay plaintext inside.
// Cross-reference streams are never encrypted.
package writer
