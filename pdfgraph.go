// Package pdfgraph loads PDF files into an editable object graph and writes
// graphs back out.
//
// Basic usage:
//
//	doc, err := pdfgraph.Open("input.pdf")
//	if err != nil {
//	    // handle error
//	}
//	doc.PruneObjects()
//	err = pdfgraph.SaveFile("output.pdf", doc, writer.ModernOptions())
//
// Encrypted files:
//
//	doc, err := pdfgraph.LoadWithPassword(data, "secret")
//
// The reader, writer, document and crypt packages expose the full API.
package pdfgraph

import (
	"io"

	"github.com/tsawler/pdfgraph/document"
	"github.com/tsawler/pdfgraph/reader"
	"github.com/tsawler/pdfgraph/writer"
)

// Document is the in-memory object graph of a PDF file
type Document = document.Document

// Metadata is what LoadMetadata returns
type Metadata = reader.Metadata

// Open loads the PDF file at path
//
// Example:
//
//	doc, err := pdfgraph.Open("document.pdf", reader.WithWorkers(4))
func Open(path string, opts ...reader.Option) (*Document, error) {
	return reader.LoadFile(path, opts...)
}

// Load builds a document from the bytes of a PDF file
func Load(data []byte, opts ...reader.Option) (*Document, error) {
	return reader.Load(data, opts...)
}

// LoadWithPassword loads an encrypted file with the user or owner password
func LoadWithPassword(data []byte, password string) (*Document, error) {
	return reader.Load(data, reader.WithPassword(password))
}

// LoadFiltered loads data, passing every object through filter first.
// Objects for which filter reports false are left out.
//
// Example:
//
//	doc, err := pdfgraph.LoadFiltered(data, func(id core.ObjectID, obj core.Object) (core.Object, bool) {
//	    if d, ok := obj.(*core.Dict); ok && d.HasType("Annot") {
//	        return nil, false
//	    }
//	    return obj, true
//	})
func LoadFiltered(data []byte, filter reader.Filter) (*Document, error) {
	return reader.Load(data, reader.WithFilter(filter))
}

// LoadMetadata reads the Info dictionary and the page count without loading
// the whole file
func LoadMetadata(data []byte, opts ...reader.Option) (*Metadata, error) {
	return reader.LoadMetadata(data, opts...)
}

// Save writes doc with a classic cross-reference table
func Save(w io.Writer, doc *Document) error {
	return writer.Save(w, doc)
}

// SaveModern writes doc with object streams and a cross-reference stream
func SaveModern(w io.Writer, doc *Document) error {
	return writer.SaveModern(w, doc)
}

// SaveWithOptions writes doc with explicit writer options
func SaveWithOptions(w io.Writer, doc *Document, opts writer.Options) error {
	return writer.Write(w, doc, opts)
}

// SaveFile writes doc to a new file at path
func SaveFile(path string, doc *Document, opts writer.Options) error {
	return writer.WriteFile(path, doc, opts)
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	doc := pdfgraph.Must(pdfgraph.Open("document.pdf"))
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
