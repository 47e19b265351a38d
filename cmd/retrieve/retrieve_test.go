package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/searcher/executor"
)

const corpusCSV = `id,article,highlights
d0,the cat sat,a cat
d1,the dog ran,a dog
d2,cat and dog,both
`

func writeCorpus(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte(corpusCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestQueryCommand(t *testing.T) {
	out, err := runCLI(t, "", "query", "cat", "--csv", writeCorpus(t))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"candidates 2", "[1 3]", "d0", "d2", "a cat"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "d1") {
		t.Errorf("dog-only document listed:\n%s", out)
	}
}

func TestQueryCommandUnknownTermMatchesAll(t *testing.T) {
	out, err := runCLI(t, "", "query", "zebra", "--csv", writeCorpus(t))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"candidates 3", "[1 2 3]"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if got := strings.Count(out, "score: 0.0000"); got != 3 {
		t.Errorf("%d zero scores, want 3:\n%s", got, out)
	}
	if strings.Contains(out, "No matching documents.") {
		t.Errorf("unknown term narrowed the result:\n%s", out)
	}
}

func TestQueryCommandNoMatch(t *testing.T) {
	// "sat" and "ran" are both indexed but never share a document.
	out, err := runCLI(t, "", "query", "sat ran", "--csv", writeCorpus(t))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No matching documents.") || !strings.Contains(out, "candidates 0") {
		t.Errorf("output:\n%s", out)
	}
}

func TestQueryCommandLimitAndTop(t *testing.T) {
	out, err := runCLI(t, "", "query", "dog", "--csv", writeCorpus(t), "--limit", "2")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "candidates 1") {
		t.Errorf("limit 2 should load only d0 and d1:\n%s", out)
	}

	out, err = runCLI(t, "", "query", "", "--csv", writeCorpus(t), "--top", "1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "showing 1 of 3") {
		t.Errorf("output:\n%s", out)
	}
}

func TestQueryCommandRejectsBadOrder(t *testing.T) {
	if _, err := runCLI(t, "", "query", "cat", "--csv", writeCorpus(t), "--order", "random"); err == nil {
		t.Fatal("expected error for unknown order")
	}
}

func TestPromptCommand(t *testing.T) {
	out, err := runCLI(t, "cat\n\nquit\ndog\n", "prompt", "--csv", writeCorpus(t))
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(out, "Results for:"); got != 2 {
		t.Errorf("rendered %d results, want 2 (cat and the empty line):\n%s", got, out)
	}
	if strings.Contains(out, `"dog"`) {
		t.Errorf("query after quit was answered:\n%s", out)
	}
}

func TestPromptLoopReportsErrorsAndContinues(t *testing.T) {
	calls := 0
	search := func(_ context.Context, q string) (*executor.SearchResult, error) {
		calls++
		if q == "bad" {
			return nil, errors.New("boom")
		}
		return &executor.SearchResult{Query: q}, nil
	}
	var out bytes.Buffer
	if err := promptLoop(context.Background(), strings.NewReader("bad\ngood\n"), &out, search); err != nil {
		t.Fatal(err)
	}
	if calls != 2 || !strings.Contains(out.String(), "error: boom") {
		t.Errorf("calls = %d, output:\n%s", calls, out.String())
	}
}

func TestReloadRequiresKafka(t *testing.T) {
	if _, err := runCLI(t, "", "reload", "--csv", writeCorpus(t)); err == nil {
		t.Fatal("expected error when kafka is disabled")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"line one\n  line two", 40, "line one line two"},
		{"abcdefghij", 8, "abcde..."},
		{"ééééé", 4, "é..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestFormatCandidates(t *testing.T) {
	got := formatCandidates([]executor.Result{{DocumentNumber: 1}, {DocumentNumber: 3}})
	if got != "[1 3]" {
		t.Errorf("got %q", got)
	}
	if formatTerms(nil) != "(none)" || formatTerms([]string{"cat", "dog"}) != "cat,dog" {
		t.Error("formatTerms mismatch")
	}
}
