package source

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// LookupEncoding resolves a WHATWG encoding label such as "latin1" or "utf-16le"
func LookupEncoding(name string) (encoding.Encoding, error) {
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("error in htmlindex.Get for %q: %w", name, err)
	}
	return enc, nil
}

// NewlineIsSingleByte reports whether the encoding writes '\n' as the single byte 0x0A,
// which row boundary detection on raw bytes relies on
func NewlineIsSingleByte(name string) bool {
	if name == "" {
		return true
	}
	enc, err := LookupEncoding(name)
	if err != nil {
		return false
	}
	b, err := enc.NewEncoder().Bytes([]byte("\n"))
	if err != nil {
		return false
	}
	return bytes.Equal(b, []byte{'\n'})
}

// DecodeReader decodes r to UTF-8, passing it through when name is empty
func DecodeReader(r io.Reader, name string) (io.Reader, error) {
	if name == "" {
		return r, nil
	}
	enc, err := LookupEncoding(name)
	if err != nil {
		return nil, err
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}

// DecodeBytes decodes b to UTF-8, passing it through when name is empty
func DecodeBytes(b []byte, name string) ([]byte, error) {
	if name == "" {
		return b, nil
	}
	enc, err := LookupEncoding(name)
	if err != nil {
		return nil, err
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return nil, fmt.Errorf("error decoding %s bytes: %w", name, err)
	}
	return out, nil
}
