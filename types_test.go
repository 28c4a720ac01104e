package opendata

import "testing"

func TestMapping_Order(t *testing.T) {
	m := NewMapping()
	m.Set("b", Int(1))
	m.Set("a", Int(2))
	m.Set("b", Int(3))

	keys := m.Keys()
	if len(keys) != 2 || keys[0] != "b" || keys[1] != "a" {
		t.Errorf("Expected keys [b a], got %v", keys)
	}
	if v, _ := m.Get("b"); v != Int(3) {
		t.Errorf("Expected b 3, got %#v", v)
	}

	var visited []string
	m.Range(func(k string, _ Value) bool {
		visited = append(visited, k)
		return false
	})
	if len(visited) != 1 {
		t.Errorf("Expected Range to stop after one entry, visited %v", visited)
	}
}

func TestMapping_Nil(t *testing.T) {
	var m *Mapping
	if m.Len() != 0 || m.Has("x") || m.Keys() != nil {
		t.Error("Expected nil mapping to behave as empty")
	}

	var zero Mapping
	zero.Set("x", Text("y"))
	if !zero.Has("x") {
		t.Error("Expected zero Mapping to accept Set")
	}
}

func TestName_String(t *testing.T) {
	n := Name{Segments: []Segment{
		{Text: "Skeleton"},
		{Text: "Clip", Form: SegmentRef},
		{Text: "Take 1", Form: SegmentDisplay},
	}}
	if n.String() != "Skeleton.Clip.Take 1" {
		t.Errorf("Unexpected name: %s", n)
	}
	if n.IsZero() || !(Name{}).IsZero() {
		t.Error("IsZero mismatch")
	}
}

func TestNewDocument(t *testing.T) {
	body := NewMapping()
	body.Set("x", Int(1))
	doc := NewDocument(NewName("Aux"), body)

	keys := doc.Mapping().Keys()
	expected := []string{TypeKey, NameKey, "x"}
	if len(keys) != len(expected) {
		t.Fatalf("Expected keys %v, got %v", expected, keys)
	}
	for i := range expected {
		if keys[i] != expected[i] {
			t.Errorf("Expected key[%d] %s, got %s", i, expected[i], keys[i])
		}
	}
	if !Equal(doc.Body(), body) {
		t.Error("Body() does not match the declared body")
	}
}

func TestEqual(t *testing.T) {
	a := &Tagged{Tag: NewName("T"), Value: Sequence{Int(1), Float(2)}}
	b := &Tagged{Tag: NewName("T"), Value: Sequence{Int(1), Float(2)}}
	if !Equal(a, b) {
		t.Error("Expected equal tagged values")
	}

	b.Attach(StreamKey, NewMapping())
	if Equal(a, b) {
		t.Error("Expected attached entries to break equality")
	}

	if Equal(Int(1), Float(1)) {
		t.Error("Int and Float must not be equal")
	}
	if !Equal(nil, nil) || Equal(nil, Int(0)) {
		t.Error("nil comparison mismatch")
	}
}
