package langreg

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMarkdownLoads(t *testing.T) {
	r := NewDefault()
	l, err := r.Load(context.Background(), "markdown")
	if err != nil {
		t.Fatal(err)
	}
	if l.ID != "markdown" {
		t.Errorf("id = %q", l.ID)
	}
	if len(l.Comments.BlockComment) != 2 || l.Comments.BlockComment[0] != "<!--" {
		t.Errorf("block comment = %v", l.Comments.BlockComment)
	}
	if len(l.Brackets) != 3 || len(l.AutoClosingPairs) != 4 || len(l.SurroundingPairs) != 3 {
		t.Errorf("brackets=%d autoClosing=%d surrounding=%d", len(l.Brackets), len(l.AutoClosingPairs), len(l.SurroundingPairs))
	}
	if got := l.AutoClosingPairs[3].NotIn; len(got) != 1 || got[0] != "string" {
		t.Errorf("notIn = %v", got)
	}
	if !l.Folding.IsStart("<!-- #region notes -->") || !l.Folding.IsEnd("  <!-- endregion -->") {
		t.Error("folding markers do not match")
	}
	if l.Folding.IsStart("# heading") {
		t.Error("heading should not start a region")
	}
}

func TestLoad_OncePerID(t *testing.T) {
	r := New()
	var calls atomic.Int32
	r.Register(Definition{ID: "slow", Loader: func(context.Context) (*Language, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return &Language{ID: "slow"}, nil
	}})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Load(context.Background(), "slow"); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	if _, err := r.Load(context.Background(), "slow"); err != nil {
		t.Fatal(err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("loader calls = %d, want 1", n)
	}

	r.Evict("slow")
	if _, ok := r.Lookup("slow"); ok {
		t.Error("lookup after evict should miss")
	}
	if _, err := r.Load(context.Background(), "slow"); err != nil {
		t.Fatal(err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("loader calls after evict = %d, want 2", n)
	}
}

func TestLoad_Errors(t *testing.T) {
	r := New()
	if _, err := r.Load(context.Background(), "nope"); !errors.Is(err, ErrUnknownLanguage) {
		t.Errorf("err = %v, want ErrUnknownLanguage", err)
	}

	boom := errors.New("boom")
	fail := true
	r.Register(Definition{ID: "flaky", Loader: func(context.Context) (*Language, error) {
		if fail {
			return nil, boom
		}
		return &Language{ID: "flaky"}, nil
	}})
	if _, err := r.Load(context.Background(), "flaky"); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	fail = false
	if _, err := r.Load(context.Background(), "flaky"); err != nil {
		t.Errorf("retry after failure: %v", err)
	}
}

func TestLookup_OnlyLoaded(t *testing.T) {
	r := NewDefault()
	if _, ok := r.Lookup("markdown"); ok {
		t.Error("lookup before load should miss")
	}
}

func TestForPath(t *testing.T) {
	r := NewDefault()
	tests := []struct {
		path string
		id   string
		ok   bool
	}{
		{"notes/todo.md", "markdown", true},
		{"README.MARKDOWN", "markdown", true},
		{"main.go", "", false},
		{"Makefile", "", false},
	}
	for _, tt := range tests {
		id, ok := r.ForPath(tt.path)
		if id != tt.id || ok != tt.ok {
			t.Errorf("ForPath(%q) = %q, %v, want %q, %v", tt.path, id, ok, tt.id, tt.ok)
		}
	}
}

func TestParseLanguage_Invalid(t *testing.T) {
	if _, err := ParseLanguage([]byte("comments: {}")); err == nil {
		t.Error("expected error for missing id")
	}
	if _, err := ParseLanguage([]byte("id: x\nfolding:\n  start: '('\n")); err == nil {
		t.Error("expected error for bad folding pattern")
	}
}
