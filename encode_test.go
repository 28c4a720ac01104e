package opendata

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
)

func encodeString(t *testing.T, v Value) string {
	t.Helper()
	var buf bytes.Buffer
	if err := EncodeJSON(&buf, v, 0); err != nil {
		t.Fatalf("EncodeJSON() failed: %v", err)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func TestEncodeJSON_Document(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{
			`OPENDATA Test [ foo:1; bar:"hello"; ];`,
			`{"__type__":"OpenData","__name__":"Test","foo":1,"bar":"hello"}`,
		},
		{
			`OPENDATA Test [ data: LengthProperty [ value:5.0; ]; ];`,
			`{"__type__":"OpenData","__name__":"Test","data":{"__type__":"LengthProperty","__value__":{"value":5.0}}}`,
		},
		{
			`OPENDATA Test [ list: (); ];`,
			`{"__type__":"OpenData","__name__":"Test","list":[]}`,
		},
		{
			`OPENDATA A.B [ ref: @x.y; s: PxStream "f<1>"; ];`,
			`{"__type__":"OpenData","__name__":"A.B","ref":"x.y","s":{"__type__":"PxStream","__value__":"f<1>"}}`,
		},
	}

	p := NewParser()
	for _, test := range tests {
		doc, err := p.ParseString(test.input)
		if err != nil {
			t.Errorf("ParseString(%s) failed: %v", test.input, err)
			continue
		}
		if got := encodeString(t, doc); got != test.expected {
			t.Errorf("EncodeJSON(%s):\nexpected: %s\ngot:      %s", test.input, test.expected, got)
		}
	}
}

func TestEncodeJSON_KeyOrder(t *testing.T) {
	doc, err := NewParser().ParseString(`OPENDATA Test [ zebra:1; apple:2; mango:3; ];`)
	if err != nil {
		t.Fatalf("ParseString() failed: %v", err)
	}
	expected := `{"__type__":"OpenData","__name__":"Test","zebra":1,"apple":2,"mango":3}`
	if got := encodeString(t, doc); got != expected {
		t.Errorf("expected %s, got %s", expected, got)
	}
}

func TestEncodeJSON_Indent(t *testing.T) {
	m := NewMapping()
	m.Set("a", Int(1))

	var buf bytes.Buffer
	if err := EncodeJSON(&buf, m, 2); err != nil {
		t.Fatalf("EncodeJSON() failed: %v", err)
	}
	expected := "{\n  \"a\": 1\n}\n"
	if buf.String() != expected {
		t.Errorf("expected %q, got %q", expected, buf.String())
	}
}

func TestEncodeJSON_Attached(t *testing.T) {
	sub := NewMapping()
	sub.Set("x", Int(1))
	tv := &Tagged{Tag: NewName("PxStream"), Value: Text("aux")}
	tv.Attach(StreamKey, sub)

	expected := `{"__type__":"PxStream","__value__":"aux","opendata":{"x":1}}`
	if got := encodeString(t, tv); got != expected {
		t.Errorf("expected %s, got %s", expected, got)
	}
}

func TestEncodeJSON_MarshalerInterop(t *testing.T) {
	doc, err := NewParser().ParseString(`OPENDATA Test [ a:( 1; 2.5; ); ];`)
	if err != nil {
		t.Fatalf("ParseString() failed: %v", err)
	}
	data, err := json.Marshal(map[string]any{"doc": doc})
	if err != nil {
		t.Fatalf("json.Marshal() failed: %v", err)
	}
	expected := `{"doc":{"__type__":"OpenData","__name__":"Test","a":[1,2.5]}}`
	if string(data) != expected {
		t.Errorf("expected %s, got %s", expected, data)
	}
}

func TestEncodeJSON_NonFinite(t *testing.T) {
	m := NewMapping()
	inner := NewMapping()
	inner.Set("bad", Float(math.NaN()))
	m.Set("outer", inner)

	err := EncodeJSON(&bytes.Buffer{}, m, 0)
	var serr *SerializationError
	if !errors.As(err, &serr) {
		t.Fatalf("Expected SerializationError, got %v", err)
	}
	if serr.Path != "outer.bad" {
		t.Errorf("Expected path 'outer.bad', got '%s'", serr.Path)
	}
}

func TestEncodeJSON_NilValue(t *testing.T) {
	m := NewMapping()
	m.Set("hole", nil)

	var serr *SerializationError
	if err := EncodeJSON(&bytes.Buffer{}, m, 0); !errors.As(err, &serr) {
		t.Fatalf("Expected SerializationError, got %v", err)
	}
}

func TestAppendJSONString(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"plain", `"plain"`},
		{"", `""`},
		{"a<b&c>", `"a<b&c>"`},
		{`say "hi"`, `"say \"hi\""`},
		{`C:\take`, `"C:\\take"`},
		{"tab\there", `"tab\there"`},
		{"caf\u00e9", "\"caf\u00e9\""},
		{"bad\xff", `"bad\ufffd"`},
	}
	for _, test := range tests {
		if got := string(appendJSONString(nil, test.input)); got != test.expected {
			t.Errorf("appendJSONString(%q): expected %s, got %s", test.input, test.expected, got)
		}
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{5, "5.0"},
		{0, "0.0"},
		{-2.25, "-2.25"},
		{0.001, "0.001"},
		{1e16, "1e+16"},
		{1e-5, "1e-05"},
		{123456.5, "123456.5"},
	}
	for _, test := range tests {
		got, err := formatFloat(test.input)
		if err != nil {
			t.Errorf("formatFloat(%v) failed: %v", test.input, err)
			continue
		}
		if got != test.expected {
			t.Errorf("formatFloat(%v): expected %s, got %s", test.input, test.expected, got)
		}
	}

	if _, err := formatFloat(math.Inf(1)); err == nil {
		t.Error("Expected error for +Inf")
	}
}

func TestEncodeYAML(t *testing.T) {
	doc, err := NewParser().ParseString(`OPENDATA Test [ b:"1"; a: Len [ v:5.0; ]; e:(); ];`)
	if err != nil {
		t.Fatalf("ParseString() failed: %v", err)
	}

	var buf bytes.Buffer
	if err := EncodeYAML(&buf, doc, 2); err != nil {
		t.Fatalf("EncodeYAML() failed: %v", err)
	}
	expected := `__type__: OpenData
__name__: Test
b: "1"
a:
  __type__: Len
  __value__:
    v: 5.0
e: []
`
	if buf.String() != expected {
		t.Errorf("EncodeYAML():\nexpected:\n%s\ngot:\n%s", expected, buf.String())
	}
}

func TestOutline(t *testing.T) {
	doc, err := NewParser().ParseString(`OPENDATA Test [ a: Tag [ x:1; ]; l:( "s"; ); ];`)
	if err != nil {
		t.Fatalf("ParseString() failed: %v", err)
	}

	expected := `Document Test
  __type__:
    Text "OpenData"
  __name__:
    Text "Test"
  a:
    Tagged Tag
      Mapping(1)
        x:
          Int 1
  l:
    Sequence(1)
      Text "s"
`
	if got := Outline(doc); got != expected {
		t.Errorf("Outline():\nexpected:\n%s\ngot:\n%s", expected, got)
	}
}
