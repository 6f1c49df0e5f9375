// Package feed streams elements out of a catalog feed file one subtree at a
// time, so memory stays bounded by the largest element rather than the file.
package feed

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"

	"github.com/kosarica/catalog-service/internal/inbox"
)

// ErrNotFound is returned by OpenNext when the inbox holds no feed file.
var ErrNotFound = errors.New("no feed file in inbox")

// Source is a feed file. Every call to Elements performs an independent
// linear scan of the file.
type Source struct {
	path string
}

// Element is one fully materialized feed subtree.
type Element struct {
	Name string
	Raw  []byte
}

// Decode unmarshals the element into v.
func (e *Element) Decode(v any) error {
	if err := xml.Unmarshal(e.Raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", e.Name, err)
	}
	return nil
}

// Open returns a Source for the file at path.
func Open(path string) (*Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open feed %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("open feed %s: is a directory", path)
	}
	return &Source{path: path}, nil
}

// OpenNext opens the active file of the inbox.
func OpenNext(dir *inbox.Dir) (*Source, error) {
	path, err := dir.Active()
	if err != nil {
		if errors.Is(err, inbox.ErrEmpty) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return Open(path)
}

// Path returns the file path of the source.
func (s *Source) Path() string {
	return s.path
}

// Name returns the base file name of the source.
func (s *Source) Name() string {
	return filepath.Base(s.path)
}

// Elements yields every element named tag in document order. The sequence
// is forward-only: it opens the file when iteration starts and closes it
// when iteration stops. A read or syntax error is yielded once and ends the
// sequence.
func (s *Source) Elements(tag string) iter.Seq2[*Element, error] {
	return func(yield func(*Element, error) bool) {
		f, err := os.Open(s.path)
		if err != nil {
			yield(nil, fmt.Errorf("open feed %s: %w", s.path, err))
			return
		}
		defer f.Close()

		decoder := xml.NewDecoder(bufio.NewReaderSize(f, 64*1024))
		decoder.CharsetReader = charsetReader

		for {
			token, err := decoder.Token()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(nil, fmt.Errorf("read feed %s: %w", s.path, err))
				return
			}

			start, ok := token.(xml.StartElement)
			if !ok || start.Name.Local != tag {
				continue
			}

			el, err := decodeElement(decoder, &start)
			if err != nil {
				yield(nil, fmt.Errorf("read %s in %s: %w", tag, s.path, err))
				return
			}
			if !yield(el, nil) {
				return
			}
		}
	}
}

type subtree struct {
	Attrs []xml.Attr `xml:",any,attr"`
	Inner []byte     `xml:",innerxml"`
}

// decodeElement consumes the subtree opened by start and rebuilds its outer
// XML so the element can be decoded again into a typed value.
func decodeElement(decoder *xml.Decoder, start *xml.StartElement) (*Element, error) {
	var st subtree
	if err := decoder.DecodeElement(&st, start); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(len(st.Inner) + 2*len(start.Name.Local) + 16)
	buf.WriteByte('<')
	buf.WriteString(start.Name.Local)
	for _, a := range st.Attrs {
		if a.Name.Space != "" {
			continue
		}
		buf.WriteByte(' ')
		buf.WriteString(a.Name.Local)
		buf.WriteString(`="`)
		if err := xml.EscapeText(&buf, []byte(a.Value)); err != nil {
			return nil, err
		}
		buf.WriteByte('"')
	}
	buf.WriteByte('>')
	buf.Write(st.Inner)
	buf.WriteString("</")
	buf.WriteString(start.Name.Local)
	buf.WriteByte('>')

	return &Element{Name: start.Name.Local, Raw: buf.Bytes()}, nil
}
