package opendata

import (
	"errors"
	"fmt"
)

// ErrStreamOutsideRecord is wrapped by the NotFoundError returned when a
// stream reference names a file outside its record directory.
var ErrStreamOutsideRecord = errors.New("stream reference escapes record directory")

// ParseError reports input that does not match the OpenData grammar.
type ParseError struct {
	Filename string
	Line     int
	Column   int
	Offset   int
	Snippet  string // the offending source line
	Msg      string
}

func (e *ParseError) Error() string {
	name := e.Filename
	if name == "" {
		name = "<input>"
	}
	if e.Snippet == "" {
		return fmt.Sprintf("%s:%d:%d: %s", name, e.Line, e.Column, e.Msg)
	}
	return fmt.Sprintf("%s:%d:%d: %s\n\t%s", name, e.Line, e.Column, e.Msg, e.Snippet)
}

// NotFoundError reports a missing record directory, contents document or
// stream file.
type NotFoundError struct {
	Kind string // "record directory", "contents document" or "stream file"
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s not found: %s: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Path)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// SerializationError reports a value the output encoding cannot represent.
// Trees built by the parser never produce one.
type SerializationError struct {
	Path string // key path into the tree, e.g. contents.data.__value__
	Msg  string
}

func (e *SerializationError) Error() string {
	if e.Path == "" {
		return "serialization failed: " + e.Msg
	}
	return fmt.Sprintf("serialization failed at %s: %s", e.Path, e.Msg)
}
