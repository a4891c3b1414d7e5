package invoicing

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// This file contains the input and output boundaries of the package: documents
// are read from json (one document) or jsonl (a stream of documents, one per
// line), previews are written as json with a stable field order.

// maxLineSize is the longest jsonl line accepted by DecodeDocuments.
const maxLineSize = 4 * 1024 * 1024

// DecodeDocument reads one json document from r.
//
// Numeric fields of items never fail the decoding, malformed structure,
// unknown kinds or unknown tax modes do.
func DecodeDocument(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("invalid document: %w", err)
	}
	return doc, nil
}

// DecodeDocuments reads a jsonl stream of documents. Empty lines are ignored.
// filename is for error message only.
func DecodeDocuments(filename string, r io.Reader) ([]Document, error) {
	var docs []Document
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	i := 0
	for scanner.Scan() {
		i++
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var doc Document
		if err := json.Unmarshal(line, &doc); err != nil {
			return nil, fmt.Errorf("parse error %s:%d: %w", filename, i, err)
		}
		docs = append(docs, doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", filename, err)
	}
	return docs, nil
}

// EncodeDocument writes doc as a single json line.
func EncodeDocument(w io.Writer, doc Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document %q: %w", doc.Number, err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write document %q: %w", doc.Number, err)
	}
	return nil
}

// EncodePreview writes p as indented json.
func EncodePreview(w io.Writer, p Preview) error {
	return encodeIndent(w, p)
}

// EncodeJSON writes any value of this package as indented json.
func EncodeJSON(w io.Writer, v any) error {
	return encodeIndent(w, v)
}

func encodeIndent(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
	}
	var b bytes.Buffer
	if err := json.Indent(&b, data, "", "  "); err != nil {
		return fmt.Errorf("failed to indent: %w", err)
	}
	b.WriteByte('\n')
	_, err = b.WriteTo(w)
	return err
}
