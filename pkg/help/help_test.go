package help

import (
	"fmt"
	"strings"
	"testing"

	"github.com/thomasrohde/lox/pkg/stdlib"
)

func TestQUICKREFNonEmpty(t *testing.T) {
	if len(QUICKREF) == 0 {
		t.Fatal("QUICKREF is empty")
	}
}

func TestQUICKREFContainsVersion(t *testing.T) {
	if !strings.Contains(QUICKREF, Version) {
		t.Errorf("QUICKREF does not contain version string %s", Version)
	}
}

func TestQUICKREFListsTopics(t *testing.T) {
	for _, topic := range TopicList {
		if !strings.Contains(QUICKREF, topic) {
			t.Errorf("QUICKREF does not mention topic %q", topic)
		}
	}
}

func TestTopicListMatchesTopics(t *testing.T) {
	for _, name := range TopicList {
		if _, ok := Topics[name]; !ok {
			t.Errorf("TopicList entry %q not in Topics map", name)
		}
	}
	if len(Topics) != len(TopicList) {
		t.Errorf("expected %d topics, got %d", len(TopicList), len(Topics))
	}
}

func TestTopicsNonEmpty(t *testing.T) {
	for name, content := range Topics {
		if len(content) == 0 {
			t.Errorf("topic %q has empty content", name)
		}
	}
}

func TestMatchTopicExact(t *testing.T) {
	name, content, err := MatchTopic("syntax")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "syntax" {
		t.Errorf("expected name 'syntax', got %q", name)
	}
	if content == "" {
		t.Error("expected non-empty content")
	}
}

func TestMatchTopicPrefix(t *testing.T) {
	name, _, err := MatchTopic("diag")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "diagnostics" {
		t.Errorf("expected 'diagnostics', got %q", name)
	}
}

func TestMatchTopicCaseInsensitive(t *testing.T) {
	name, _, err := MatchTopic("  Ex ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "examples" {
		t.Errorf("expected 'examples', got %q", name)
	}
}

func TestMatchTopicAmbiguous(t *testing.T) {
	_, _, err := MatchTopic("c")
	if err == nil {
		t.Fatal("expected error for ambiguous prefix")
	}
	if !strings.Contains(err.Error(), "classes") || !strings.Contains(err.Error(), "cli") {
		t.Errorf("error should list candidates: %v", err)
	}
}

func TestMatchTopicUnknown(t *testing.T) {
	for _, q := range []string{"nonexistent", ""} {
		if _, _, err := MatchTopic(q); err == nil {
			t.Errorf("expected error for topic %q", q)
		}
	}
}

func TestStdlibTopicIncludesIndex(t *testing.T) {
	_, content, err := MatchTopic("std")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(content, "Total:") {
		t.Error("stdlib topic should embed the index")
	}
}

func TestStdlibIndex(t *testing.T) {
	idx := StdlibIndex()
	r := stdlib.NewRegistry()
	stdlib.RegisterDefaults(r)
	for _, name := range r.Names() {
		if !strings.Contains(idx, name+"(") {
			t.Errorf("StdlibIndex missing %s", name)
		}
	}
	want := fmt.Sprintf("Total: %d functions", len(r.Names()))
	if !strings.Contains(idx, want) {
		t.Errorf("StdlibIndex should report %q, got:\n%s", want, idx)
	}
}

func TestEveryBuiltinHasSignature(t *testing.T) {
	r := stdlib.NewRegistry()
	stdlib.RegisterDefaults(r)
	for _, name := range r.Names() {
		if _, ok := signatures[name]; !ok {
			t.Errorf("no signature documented for %s", name)
		}
	}
}

func TestMatchTopicAllExact(t *testing.T) {
	for _, topic := range TopicList {
		name, content, err := MatchTopic(topic)
		if err != nil {
			t.Errorf("MatchTopic(%q) error: %v", topic, err)
			continue
		}
		if name != topic {
			t.Errorf("MatchTopic(%q) returned name %q", topic, name)
		}
		if content == "" {
			t.Errorf("MatchTopic(%q) returned empty content", topic)
		}
	}
}
