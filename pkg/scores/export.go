package scores

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WriteTSV writes the retained triplets as tab-separated rows: reference
// and query index first, then one column per score name in chronological
// order. A header row names the columns.
func (x *Matrix) WriteTSV(w io.Writer) error {
	header := append([]string{"reference_index", "query_index"}, x.names...)
	if _, err := io.WriteString(w, strings.Join(header, "\t")+"\n"); err != nil {
		return err
	}

	for i, c := range x.coords {
		row := make([]string, 0, len(header))
		row = append(row, strconv.Itoa(c.Ref), strconv.Itoa(c.Query))
		for _, name := range x.names {
			row = append(row, strconv.FormatFloat(x.columns[name][i], 'g', -1, 64))
		}
		if _, err := fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return nil
}

// Document is the serialized form of a matrix produced by WriteJSON.
type Document struct {
	Columns []string `json:"columns"`
	Entries []Entry  `json:"entries"`
}

// Entry is one retained coordinate with its score values in column order.
type Entry struct {
	ReferenceIndex int       `json:"reference_index"`
	QueryIndex     int       `json:"query_index"`
	Scores         []float64 `json:"scores"`
}

// WriteJSON writes the retained triplets as a JSON document with the
// column names once and per-entry score values in the same order.
func (x *Matrix) WriteJSON(w io.Writer) error {
	doc := Document{
		Columns: x.Names(),
		Entries: make([]Entry, len(x.coords)),
	}
	for i, c := range x.coords {
		values := make([]float64, len(x.names))
		for k, name := range x.names {
			values[k] = x.columns[name][i]
		}
		doc.Entries[i] = Entry{ReferenceIndex: c.Ref, QueryIndex: c.Query, Scores: values}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// ReadJSON parses a document written by WriteJSON.
func ReadJSON(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding score document: %w", err)
	}
	return &doc, nil
}

// Select returns the entries whose value in the named column lies within
// [low, high], with the same bound semantics as FilterByRange. An empty
// name targets the last column.
func (d *Document) Select(name string, low, high *float64) ([]Entry, error) {
	if name == "" {
		if len(d.Columns) == 0 {
			return nil, fmt.Errorf("selecting from an empty document: %w", ErrUnknownScoreName)
		}
		name = d.Columns[len(d.Columns)-1]
	}

	col := -1
	for i, n := range d.Columns {
		if n == name {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("selecting by %q: %w", name, ErrUnknownScoreName)
	}

	var out []Entry
	for _, e := range d.Entries {
		v := e.Scores[col]
		if low != nil && v < *low {
			continue
		}
		if high != nil && v > *high {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
