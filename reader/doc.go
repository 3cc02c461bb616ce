// Package reader loads PDF files into a [document.Document].
//
// # Loading
//
// Use [Load] for bytes already in memory, [LoadReader] for an io.Reader and
// [LoadFile] for a path. Files are mapped read-only while they are parsed:
//
//	doc, err := reader.LoadFile("report.pdf", reader.WithPassword("secret"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Bytes before the %PDF- header are ignored. The cross-reference chain is
// followed from the last startxref through every Prev, and the newest
// definition of each object wins. When the chain is unusable the file is
// scanned for object headers instead and a warning is logged.
//
// # Options
//
//   - [WithPassword] - user or owner password for encrypted files
//   - [WithFilter] - inspect, replace or drop each object as it is loaded
//   - [WithWorkers] - parse objects on several goroutines
//   - [WithContainerCacheSize] - decoded object streams kept for lazy lookups
//
// Objects that fail to parse are logged and left out. Object streams and
// cross-reference streams are expanded and do not appear in the result.
//
// # Encryption
//
// The given password is tried first, then the empty password. Loaded
// objects are plaintext and the document remembers the security handler in
// [document.Document.EncryptionState] so it can be re-applied on save.
//
// # Metadata
//
// [LoadMetadata] reads the Info dictionary and the page count without
// parsing the rest of the file.
package reader
