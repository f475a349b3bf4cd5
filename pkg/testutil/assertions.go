package testutil

import (
	"reflect"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/goccy/go-json"
)

// AssertJSONEqual compares two values after JSON round-tripping.
func AssertJSONEqual(t testing.TB, expected, actual any) {
	t.Helper()

	expectedJSON, err := json.Marshal(expected)
	if err != nil {
		t.Fatalf("failed to marshal expected: %v", err)
	}
	actualJSON, err := json.Marshal(actual)
	if err != nil {
		t.Fatalf("failed to marshal actual: %v", err)
	}
	if string(expectedJSON) != string(actualJSON) {
		t.Errorf("JSON mismatch:\nexpected: %s\nactual:   %s", expectedJSON, actualJSON)
	}
}

// AssertRows checks table rows cell by cell.
func AssertRows(t testing.TB, got, want [][]string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d rows, got %d: %q", len(want), len(got), got)
	}
	for i := range want {
		if !reflect.DeepEqual(got[i], want[i]) {
			t.Errorf("row %d:\nexpected: %q\nactual:   %q", i, want[i], got[i])
		}
	}
}

// AssertRequested fails unless the backend saw path for region ("" for
// national).
func AssertRequested(t testing.TB, b *Backend, path, region string) {
	t.Helper()
	for _, r := range b.Requests() {
		if r.Path == path && r.Region == region {
			return
		}
	}
	t.Errorf("expected a request to %s for %q, got %v", path, region, b.Requests())
}

// Run executes cmd and every command it batches, returning the leaf
// messages in issue order. Commands run sequentially.
func Run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		if msg == nil {
			return nil
		}
		return []tea.Msg{msg}
	}
	var out []tea.Msg
	for _, c := range batch {
		out = append(out, Run(c)...)
	}
	return out
}

// Settle feeds messages into handle until no follow-up commands remain,
// and returns every message it delivered.
func Settle(cmd tea.Cmd, handle func(tea.Msg) tea.Cmd) []tea.Msg {
	var seen []tea.Msg
	queue := Run(cmd)
	for len(queue) > 0 {
		msg := queue[0]
		queue = queue[1:]
		seen = append(seen, msg)
		queue = append(queue, Run(handle(msg))...)
	}
	return seen
}
