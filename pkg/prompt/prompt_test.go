package prompt

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestAskReturnsTrimmedLines(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader("  first \nsecond\n"), &out)

	got, err := p.Ask("Name: ")
	if err != nil || got != "first" {
		t.Fatalf("first Ask = %q, %v", got, err)
	}
	got, err = p.Ask("Name: ")
	if err != nil || got != "second" {
		t.Fatalf("second Ask = %q, %v", got, err)
	}
	if _, err := p.Ask("Name: "); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF after input is exhausted, got %v", err)
	}
	if strings.Count(out.String(), "Name: ") != 3 {
		t.Fatalf("expected label printed three times, got %q", out.String())
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			p := New(strings.NewReader(tt.input), io.Discard)
			if got := p.Confirm("? "); got != tt.want {
				t.Fatalf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNoticesArePlainWhenNotATerminal(t *testing.T) {
	var out bytes.Buffer
	p := New(nil, &out)
	p.Warnf("bucket %s is empty", "logs")
	if out.String() != "bucket logs is empty\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestIsQuit(t *testing.T) {
	for _, in := range []string{"q", "Q", " q "} {
		if !IsQuit(in) {
			t.Fatalf("expected %q to be quit", in)
		}
	}
	if IsQuit("quit") {
		t.Fatal("only the single letter escape counts")
	}
}
