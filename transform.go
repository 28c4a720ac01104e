package opendata

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// transformer turns a parse tree into Values. It holds no state between
// documents; each parse creates its own.
type transformer struct {
	filename   string
	source     string
	duplicates DuplicateKeyPolicy
}

func (t *transformer) document(n *grammarDocument) (*Document, error) {
	if n == nil || n.Name == nil || n.Body == nil {
		return nil, t.shapeError(lexer.Position{}, "document")
	}
	name, err := t.name(n.Name)
	if err != nil {
		return nil, err
	}
	body, err := t.dict(n.Body)
	if err != nil {
		return nil, err
	}
	return NewDocument(name, body), nil
}

func (t *transformer) name(n *grammarName) (Name, error) {
	if n == nil || len(n.Words) == 0 {
		return Name{}, t.shapeError(lexer.Position{}, "name")
	}
	name := Name{Segments: make([]Segment, len(n.Words))}
	for i, w := range n.Words {
		seg, err := t.word(n.Pos, w)
		if err != nil {
			return Name{}, err
		}
		name.Segments[i] = seg
	}
	return name, nil
}

func (t *transformer) word(pos lexer.Position, w *grammarWord) (Segment, error) {
	switch {
	case w == nil:
		return Segment{}, t.shapeError(pos, "word")
	case w.Display != "":
		quoted := strings.TrimSpace(strings.TrimPrefix(w.Display, "T"))
		return Segment{Text: unquote(quoted), Form: SegmentDisplay}, nil
	case w.Ref:
		return Segment{Text: w.Ident, Form: SegmentRef}, nil
	case w.Ident != "":
		return Segment{Text: w.Ident, Form: SegmentPlain}, nil
	default:
		return Segment{}, t.shapeError(pos, "word")
	}
}

func (t *transformer) dict(n *grammarDict) (*Mapping, error) {
	m := NewMapping()
	for _, pair := range n.Pairs {
		if pair == nil || pair.Key == nil || pair.Value == nil {
			return nil, t.shapeError(n.Pos, "pair")
		}
		key, err := t.name(pair.Key)
		if err != nil {
			return nil, err
		}
		k := key.String()
		if t.duplicates == DuplicateReject && m.Has(k) {
			return nil, t.errorAt(pair.Pos, fmt.Sprintf("duplicate key %q", k))
		}
		v, err := t.value(pair.Value)
		if err != nil {
			return nil, err
		}
		m.Set(k, v)
	}
	return m, nil
}

func (t *transformer) list(n *grammarList) (Sequence, error) {
	seq := make(Sequence, 0, len(n.Items))
	for _, item := range n.Items {
		v, err := t.value(item)
		if err != nil {
			return nil, err
		}
		seq = append(seq, v)
	}
	return seq, nil
}

// named yields a Name, or a Tagged value when an inner value follows it.
func (t *transformer) named(n *grammarNamed) (Value, error) {
	name, err := t.name(n.Name)
	if err != nil {
		return nil, err
	}
	if n.Inner == nil {
		return name, nil
	}
	inner, err := t.value(n.Inner)
	if err != nil {
		return nil, err
	}
	return &Tagged{Tag: name, Value: inner}, nil
}

func (t *transformer) value(n *grammarValue) (Value, error) {
	if n == nil {
		return nil, t.shapeError(lexer.Position{}, "value")
	}
	switch {
	case n.Document != nil:
		return t.document(n.Document)
	case n.Named != nil:
		return t.named(n.Named)
	case n.Dict != nil:
		return t.dict(n.Dict)
	case n.List != nil:
		return t.list(n.List)
	case n.String != nil:
		return Text(unquote(*n.String)), nil
	case n.Float != nil:
		f, err := strconv.ParseFloat(*n.Float, 64)
		if err != nil {
			return nil, t.errorAt(n.Pos, fmt.Sprintf("invalid float %s", *n.Float))
		}
		return Float(f), nil
	case n.Int != nil:
		i, err := strconv.ParseInt(*n.Int, 10, 64)
		if err != nil {
			return nil, t.errorAt(n.Pos, fmt.Sprintf("integer out of range %s", *n.Int))
		}
		return Int(i), nil
	default:
		return nil, t.shapeError(n.Pos, "value")
	}
}

// errorAt reports a literal or key the grammar accepts but the value
// model cannot hold.
func (t *transformer) errorAt(pos lexer.Position, msg string) *ParseError {
	return &ParseError{
		Filename: t.filename,
		Line:     pos.Line,
		Column:   pos.Column,
		Offset:   pos.Offset,
		Snippet:  sourceLine(t.source, pos.Line),
		Msg:      msg,
	}
}

// shapeError reports a parse tree node the transformer does not know.
// The grammar cannot produce one, so this is an internal failure.
func (t *transformer) shapeError(pos lexer.Position, node string) error {
	return fmt.Errorf("opendata: internal error: unrecognized %s node at %s:%d:%d", node, t.filename, pos.Line, pos.Column)
}

// unquote strips the surrounding quotes of a string token. Escape
// sequences are kept as written.
func unquote(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	return s
}
