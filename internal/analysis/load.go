package analysis

import (
	"encoding/json"
	"fmt"
	"os"
)

// ParseError marks a malformed analysis document. The watch loop skips
// the file and keeps going; there is no retry.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid analysis document %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Load reads and validates one analysis document.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return Parse(data, path)
}

// Parse decodes a document from raw bytes. path is only used in errors.
func Parse(data []byte, path string) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if err := doc.validate(); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &doc, nil
}

func (d *Document) validate() error {
	if d.OriginalFilename == "" {
		return fmt.Errorf("missing original_filename")
	}
	if len(d.Cuts) == 0 {
		return fmt.Errorf("no cuts")
	}
	for i, c := range d.Cuts {
		if c.StartTime == "" || c.EndTime == "" {
			return fmt.Errorf("cut %d: missing start_time or end_time", i)
		}
	}
	return nil
}
