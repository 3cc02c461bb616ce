package reader

import (
	"context"
	"fmt"
	"os"

	"github.com/tsawler/pdfgraph/document"
)

// File is a PDF file mapped into memory. The bytes stay valid until Close.
type File struct {
	name  string
	data  []byte
	unmap func() error
}

// Open maps the named file read-only
func Open(filename string) (*File, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	data, unmap, err := mapFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to map %s: %w", filename, err)
	}
	return &File{name: filename, data: data, unmap: unmap}, nil
}

// Bytes returns the mapped contents
func (f *File) Bytes() []byte {
	return f.data
}

// Size returns the file size in bytes
func (f *File) Size() int64 {
	return int64(len(f.data))
}

// Name returns the path the file was opened with
func (f *File) Name() string {
	return f.name
}

// Close releases the mapping. It is safe to call more than once.
func (f *File) Close() error {
	if f.unmap == nil {
		return nil
	}
	unmap := f.unmap
	f.unmap = nil
	f.data = nil
	return unmap()
}

// LoadFile loads the named file. Parsed objects own their bytes, so the
// mapping is released before returning.
func LoadFile(filename string, opts ...Option) (*document.Document, error) {
	return LoadFileContext(context.Background(), filename, opts...)
}

// LoadFileContext is LoadFile with cancellation
func LoadFileContext(ctx context.Context, filename string, opts ...Option) (*document.Document, error) {
	f, err := Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return LoadContext(ctx, f.Bytes(), opts...)
}
