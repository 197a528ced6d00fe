package main

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unbound-force/nilguard/internal/report"
)

func storeEntries() []report.Entry {
	return []report.Entry{
		{Package: "example.com/store", Type: "Store", Member: "Put", Kind: "method",
			Param: "ctx", Index: 0, ParamType: "context.Context", Location: "store.go:42:17"},
		{Package: "example.com/store", Type: "Store", Member: "Put", Kind: "method",
			Param: "item", Index: 1, ParamType: "*store.Item", Location: "store.go:42:17"},
		{Package: "example.com/store", Member: "Merge", Kind: "function",
			Param: "dst", Index: 0, ParamType: "*store.Store", Location: "store.go:80:6"},
	}
}

// TestRenderListContent_EmptyEntries verifies that an empty listing
// reports zero members and cases.
func TestRenderListContent_EmptyEntries(t *testing.T) {
	output := renderListContent("example.com/empty", nil)

	if !strings.Contains(output, "0 member(s), 0 case(s)") {
		t.Errorf("expected zero counts, got:\n%s", output)
	}
	if !strings.Contains(output, "No nil-argument cases.") {
		t.Errorf("expected empty message, got:\n%s", output)
	}
}

// TestRenderListContent_GroupsByMember verifies one section per member,
// in listing order, with its location and parameters.
func TestRenderListContent_GroupsByMember(t *testing.T) {
	output := renderListContent("example.com/store", storeEntries())

	for _, want := range []string{
		"2 member(s), 3 case(s)",
		"=== Store.Put ===", "=== Merge ===",
		"store.go:42:17", "ctx", "item", "*store.Item",
		"method", "function",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, output)
		}
	}
	if strings.Index(output, "Store.Put") > strings.Index(output, "=== Merge") {
		t.Error("members should keep listing order")
	}
}

// TestRenderListContent_TypeTruncation verifies long parameter types are
// cut to fit the table.
func TestRenderListContent_TypeTruncation(t *testing.T) {
	long := "map[string]func(context.Context, *store.Item) (bool, error)"
	output := renderListContent("example.com/store", []report.Entry{{
		Member: "Each", Kind: "function", Param: "fns", ParamType: long,
	}})

	if strings.Contains(output, long) {
		t.Error("expected long type to be truncated")
	}
	if !strings.Contains(output, long[:37]+"...") {
		t.Errorf("expected truncated type, got:\n%s", output)
	}
}

func TestListModel_Update(t *testing.T) {
	m := newListModel("example.com/store", storeEntries())
	if got := m.View(); got != "Initializing..." {
		t.Errorf("View() before sizing = %q", got)
	}

	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = next.(listModel)
	if !m.ready {
		t.Fatal("model should be ready after a window size message")
	}
	if !strings.Contains(m.View(), "%") {
		t.Error("footer should show the scroll position")
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	if !next.(listModel).help.ShowAll {
		t.Error("? should toggle full help")
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should return a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}
