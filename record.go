package opendata

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ContentsFile is the mandatory document of every record directory.
const ContentsFile = "contents"

// StreamTag marks a tagged value whose inner Text names a sibling file.
const StreamTag = "PxStream"

// streamSlots are the contents entries whose stream references are inlined.
var streamSlots = []string{"data", "layout"}

// Record is a directory holding a contents document and the documents
// its data and layout entries refer to.
type Record struct {
	Path     string
	Contents *Document
}

// LoadRecord loads dir/contents and inlines the documents referenced by
// its data and layout stream entries.
func (p *Parser) LoadRecord(dir string) (*Record, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &NotFoundError{Kind: "record directory", Path: dir, Err: err}
	}
	if !info.IsDir() {
		return nil, &NotFoundError{Kind: "record directory", Path: dir, Err: errors.New("not a directory")}
	}

	rec := &Record{Path: trimTrailingSeparators(dir)}
	contents, err := p.loadRecordFile(rec.Path, ContentsFile, "contents document")
	if err != nil {
		return nil, err
	}
	rec.Contents = contents

	for _, slot := range streamSlots {
		if err := p.resolveStream(rec, slot); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// resolveStream attaches the referenced document to contents[slot] when
// that entry is a PxStream naming a file.
func (p *Parser) resolveStream(rec *Record, slot string) error {
	v, ok := rec.Contents.Get(slot)
	if !ok {
		return nil
	}
	stream, ok := v.(*Tagged)
	if !ok || stream.Tag.String() != StreamTag {
		return nil
	}
	filename, ok := stream.Value.(Text)
	if !ok {
		return nil
	}
	// The name is joined onto the record path, so a leading separator
	// still names a file inside the record.
	name := strings.TrimLeft(string(filename), "/"+string(filepath.Separator))
	if !filepath.IsLocal(name) {
		return &NotFoundError{Kind: "stream file", Path: string(filename), Err: ErrStreamOutsideRecord}
	}

	p.logger.Debug("resolving stream", "record", rec.Path, "slot", slot, "file", name)
	doc, err := p.loadRecordFile(rec.Path, name, "stream file")
	if err != nil {
		return fmt.Errorf("%s: %w", slot, err)
	}
	stream.Attach(StreamKey, doc.Mapping())
	return nil
}

func (p *Parser) loadRecordFile(dir, name, kind string) (*Document, error) {
	path := filepath.Join(dir, name)
	doc, err := p.ParseFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &NotFoundError{Kind: kind, Path: path, Err: err}
	}
	return doc, err
}

// Mapping returns the {path, contents} shape used for serialization.
func (r *Record) Mapping() *Mapping {
	m := NewMapping()
	m.Set("path", Text(r.Path))
	m.Set("contents", r.Contents)
	return m
}

// MarshalJSON encodes the record in its Mapping shape.
func (r *Record) MarshalJSON() ([]byte, error) {
	return appendJSON(nil, r.Mapping(), "")
}

func trimTrailingSeparators(dir string) string {
	trimmed := strings.TrimRight(dir, "/"+string(filepath.Separator))
	if trimmed == "" {
		return dir[:1]
	}
	return trimmed
}
