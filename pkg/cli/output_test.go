package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"
)

type report struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func (r report) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s: %d\n", r.Name, r.Count)
	return err
}

func (r report) Header() []string { return []string{"name", "count"} }

func (r report) Rows() [][]string {
	return [][]string{{r.Name, fmt.Sprint(r.Count)}}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatText, false},
		{"json", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"csv", "", true},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in, FormatText, FormatJSON)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTextFormatter(t *testing.T) {
	f := &TextFormatter{}

	out, err := f.Format(report{Name: "matched", Count: 3})
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if string(out) != "matched: 3\n" {
		t.Errorf("Format(TextWriter) = %q", out)
	}

	out, err = f.Format(42)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if string(out) != "42\n" {
		t.Errorf("Format(int) = %q", out)
	}
}

func TestJSONFormatter(t *testing.T) {
	for _, indent := range []bool{false, true} {
		buf := &bytes.Buffer{}
		if err := (&JSONFormatter{Indent: indent}).FormatTo(buf, report{Name: "a", Count: 1}); err != nil {
			t.Fatalf("FormatTo() error = %v", err)
		}
		var got report
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON %q: %v", buf.String(), err)
		}
		if got.Name != "a" || got.Count != 1 {
			t.Errorf("decoded %+v", got)
		}
		if indent != strings.Contains(buf.String(), "\n  ") {
			t.Errorf("indent=%v output %q", indent, buf.String())
		}
	}
}

func TestCSVFormatter(t *testing.T) {
	f := &CSVFormatter{}

	out, err := f.Format(report{Name: "tag-eu", Count: 7})
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if string(out) != "name,count\ntag-eu,7\n" {
		t.Errorf("Format() = %q", out)
	}

	if _, err := f.Format(map[string]int{"x": 1}); err == nil {
		t.Error("Format() of a non-table succeeded")
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format OutputFormat
		want   string
	}{
		{FormatText, "*cli.TextFormatter"},
		{FormatJSON, "*cli.JSONFormatter"},
		{FormatCSV, "*cli.CSVFormatter"},
		{"unknown", "*cli.TextFormatter"},
	}
	for _, tt := range tests {
		if got := fmt.Sprintf("%T", NewFormatter(tt.format)); got != tt.want {
			t.Errorf("NewFormatter(%q) = %s, want %s", tt.format, got, tt.want)
		}
	}
}
