// Package document holds a PDF object graph in memory.
//
// A [Document] owns every object in one map keyed by core.ObjectID.
// Relationships between objects are core.IndirectRef values looked up in that
// map, so cyclic structures such as a page and its parent never hold pointers
// to each other.
//
//	doc := document.New()
//	pagesRef := doc.Add(core.DictOf("Type", core.Name("Pages"), "Kids", core.Array{}, "Count", core.Int(0)))
//	catalog := doc.Add(core.DictOf("Type", core.Name("Catalog"), "Pages", pagesRef))
//	doc.Trailer.Set("Root", catalog)
//
// # Renumbering
//
// [Document.RenumberObjectsWith] builds the full old to new id map before it
// touches anything and then rewrites every reference with it.
//
// # Encryption
//
// A loaded document is always held decrypted. [Document.WasEncrypted] and
// [Document.EncryptionState] describe how it was stored, and
// [Document.Encrypt] chooses how the next save is stored.
package document
