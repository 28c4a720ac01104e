// Package opendata provides parsing of OpenData documents.
package opendata

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"
)

// DuplicateKeyPolicy decides what happens when a dictionary declares the
// same key twice.
type DuplicateKeyPolicy int

const (
	// DuplicateLastWins keeps the key at its first position with the value
	// of its last occurrence.
	DuplicateLastWins DuplicateKeyPolicy = iota
	// DuplicateReject fails with a ParseError at the second occurrence.
	DuplicateReject
)

const byteOrderMark = "\ufeff"

// Parser parses OpenData documents. The compiled grammar is read-only, so
// one Parser may be shared by concurrent callers.
type Parser struct {
	grammar    *participle.Parser[grammarDocument]
	duplicates DuplicateKeyPolicy
	logger     *slog.Logger
}

// NewParser creates a new Parser with default configuration.
func NewParser() *Parser {
	return &Parser{
		grammar:    buildGrammar(),
		duplicates: DuplicateLastWins,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithDuplicateKeys configures the duplicate key policy.
func (p *Parser) WithDuplicateKeys(policy DuplicateKeyPolicy) *Parser {
	p.duplicates = policy
	return p
}

// WithLogger configures the logger used for debug output.
func (p *Parser) WithLogger(logger *slog.Logger) *Parser {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// ParseDocument parses an OpenData document from an io.Reader.
func (p *Parser) ParseDocument(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return p.parse("", string(data))
}

// ParseString parses document text.
func (p *Parser) ParseString(text string) (*Document, error) {
	return p.parse("", text)
}

// ParseBytes parses document text; name is used in error positions.
func (p *Parser) ParseBytes(name string, data []byte) (*Document, error) {
	return p.parse(name, string(data))
}

// ParseFile reads and parses the document stored at path.
func (p *Parser) ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return p.parse(path, string(data))
}

func (p *Parser) parse(filename, text string) (*Document, error) {
	text = strings.TrimSpace(strings.TrimPrefix(text, byteOrderMark))
	p.logger.Debug("parsing document", "file", filename, "bytes", len(text))

	tree, err := p.grammar.ParseString(filename, text)
	if err != nil {
		return nil, newParseError(filename, text, err)
	}

	t := &transformer{filename: filename, source: text, duplicates: p.duplicates}
	doc, err := t.document(tree)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("parsed document", "file", filename, "name", doc.Name.String(), "keys", doc.fields.Len())
	return doc, nil
}

// newParseError converts a participle error into a ParseError.
func newParseError(filename, source string, err error) *ParseError {
	pe := &ParseError{Filename: filename, Msg: err.Error()}
	var perr participle.Error
	if errors.As(err, &perr) {
		pos := perr.Position()
		pe.Line, pe.Column, pe.Offset = pos.Line, pos.Column, pos.Offset
		pe.Msg = perr.Message()
		pe.Snippet = sourceLine(source, pos.Line)
	}
	return pe
}

// sourceLine returns the 1-based line n of source, trimmed.
func sourceLine(source string, n int) string {
	if n < 1 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if n > len(lines) {
		return ""
	}
	return strings.TrimSpace(lines[n-1])
}
