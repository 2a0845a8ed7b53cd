package lsp

import (
	"testing"

	"github.com/leapstack-labs/leapdbml/pkg/token"
)

func TestDocumentStore_OpenGetClose(t *testing.T) {
	store := NewDocumentStore()

	uri := "file:///test/schema.dbml"
	content := "Table users {\n  id int\n}"

	store.Open(uri, content, 1)

	doc := store.Get(uri)
	if doc == nil {
		t.Fatal("expected document to exist")
	}
	if doc.URI != uri {
		t.Errorf("expected URI %s, got %s", uri, doc.URI)
	}
	if doc.Content != content {
		t.Errorf("expected content %q, got %q", content, doc.Content)
	}
	if doc.Version != 1 {
		t.Errorf("expected version 1, got %d", doc.Version)
	}

	store.Close(uri)
	if store.Get(uri) != nil {
		t.Error("expected document to be nil after close")
	}
}

func TestDocumentStore_Update(t *testing.T) {
	store := NewDocumentStore()

	uri := "file:///test/schema.dbml"
	store.Open(uri, "Table a {}", 1)
	before := store.Get(uri)

	store.Update(uri, "Table b {}", 2)

	doc := store.Get(uri)
	if doc.Content != "Table b {}" {
		t.Errorf("expected content 'Table b {}', got %q", doc.Content)
	}
	if doc.Version != 2 {
		t.Errorf("expected version 2, got %d", doc.Version)
	}
	if before.Content != "Table a {}" {
		t.Errorf("previous version should be unchanged, got %q", before.Content)
	}
}

func TestDocumentStore_List(t *testing.T) {
	store := NewDocumentStore()

	store.Open("file:///c.dbml", "", 1)
	store.Open("file:///a.dbml", "", 1)
	store.Open("file:///b.dbml", "", 1)

	uris := store.List()
	want := []string{"file:///a.dbml", "file:///b.dbml", "file:///c.dbml"}
	if len(uris) != len(want) {
		t.Fatalf("expected %d URIs, got %d", len(want), len(uris))
	}
	for i := range want {
		if uris[i] != want[i] {
			t.Errorf("uris[%d]: expected %s, got %s", i, want[i], uris[i])
		}
	}
}

func TestComputeLineOffsets(t *testing.T) {
	tests := []struct {
		content  string
		expected []int
	}{
		{"", []int{0}},
		{"abc", []int{0}},
		{"a\nb", []int{0, 2}},
		{"a\nb\nc", []int{0, 2, 4}},
		{"\n\n", []int{0, 1, 2}},
	}

	for _, tt := range tests {
		got := computeLineOffsets(tt.content)
		if len(got) != len(tt.expected) {
			t.Errorf("computeLineOffsets(%q): expected %v, got %v", tt.content, tt.expected, got)
			continue
		}
		for i := range got {
			if got[i] != tt.expected[i] {
				t.Errorf("computeLineOffsets(%q): expected %v, got %v", tt.content, tt.expected, got)
				break
			}
		}
	}
}

func TestPositionToOffset(t *testing.T) {
	doc := newDocument("file:///t.dbml", "Table a {\n  id int\n}", 1)

	tests := []struct {
		pos      Position
		expected int
	}{
		{Position{Line: 0, Character: 0}, 0},
		{Position{Line: 0, Character: 6}, 6},
		{Position{Line: 1, Character: 2}, 12},
		{Position{Line: 1, Character: 100}, 18},
		{Position{Line: 2, Character: 0}, 19},
		{Position{Line: 9, Character: 0}, 20},
	}

	for _, tt := range tests {
		if got := doc.PositionToOffset(tt.pos); got != tt.expected {
			t.Errorf("PositionToOffset(%+v): expected %d, got %d", tt.pos, tt.expected, got)
		}
	}
}

func TestPositionToOffset_UTF16(t *testing.T) {
	// é is 2 bytes and 1 UTF-16 unit; 𝄞 is 4 bytes and 2 units.
	doc := newDocument("file:///t.dbml", "Note: 'é𝄞x'", 1)

	if got := doc.PositionToOffset(Position{Line: 0, Character: 8}); got != 9 {
		t.Errorf("after é: expected offset 9, got %d", got)
	}
	if got := doc.PositionToOffset(Position{Line: 0, Character: 10}); got != 13 {
		t.Errorf("after 𝄞: expected offset 13, got %d", got)
	}

	pos := doc.OffsetToPosition(13)
	if pos.Line != 0 || pos.Character != 10 {
		t.Errorf("OffsetToPosition(13): expected 0:10, got %d:%d", pos.Line, pos.Character)
	}
}

func TestOffsetToPosition(t *testing.T) {
	doc := newDocument("file:///t.dbml", "ab\ncd\n", 1)

	tests := []struct {
		offset   int
		expected Position
	}{
		{0, Position{Line: 0, Character: 0}},
		{2, Position{Line: 0, Character: 2}},
		{3, Position{Line: 1, Character: 0}},
		{5, Position{Line: 1, Character: 2}},
		{6, Position{Line: 2, Character: 0}},
		{99, Position{Line: 2, Character: 0}},
		{-1, Position{Line: 0, Character: 0}},
	}

	for _, tt := range tests {
		if got := doc.OffsetToPosition(tt.offset); got != tt.expected {
			t.Errorf("OffsetToPosition(%d): expected %+v, got %+v", tt.offset, tt.expected, got)
		}
	}
}

func TestSpanToRange(t *testing.T) {
	doc := newDocument("file:///t.dbml", "Table a {\n  id int\n}", 1)

	rng := doc.SpanToRange(token.Span{
		Start: token.Position{Line: 2, Column: 3, Offset: 12},
		End:   token.Position{Line: 2, Column: 5, Offset: 14},
	})
	want := Range{Start: Position{Line: 1, Character: 2}, End: Position{Line: 1, Character: 4}}
	if rng != want {
		t.Errorf("expected %+v, got %+v", want, rng)
	}
}

func TestGetLinePrefixAndWord(t *testing.T) {
	doc := newDocument("file:///t.dbml", "Table users {\n  user_id int\n}", 1)

	if got := doc.GetLinePrefix(Position{Line: 1, Character: 6}); got != "  user" {
		t.Errorf("GetLinePrefix: expected %q, got %q", "  user", got)
	}
	if got := doc.GetLine(1); got != "  user_id int" {
		t.Errorf("GetLine: expected %q, got %q", "  user_id int", got)
	}

	word, rng := doc.GetWordAtPosition(Position{Line: 1, Character: 5})
	if word != "user_id" {
		t.Errorf("GetWordAtPosition: expected user_id, got %q", word)
	}
	if rng.Start.Character != 2 || rng.End.Character != 9 {
		t.Errorf("GetWordAtPosition: unexpected range %+v", rng)
	}
}

func TestURIConversion(t *testing.T) {
	if got := URIToPath("file:///tmp/my%20schema.dbml"); got != "/tmp/my schema.dbml" {
		t.Errorf("URIToPath: got %q", got)
	}
	if got := URIToPath("untitled:1"); got != "untitled:1" {
		t.Errorf("URIToPath non-file: got %q", got)
	}
	if got := PathToURI("/tmp/a.dbml"); got != "file:///tmp/a.dbml" {
		t.Errorf("PathToURI: got %q", got)
	}
}
