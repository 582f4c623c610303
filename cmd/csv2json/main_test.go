package main

import (
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun(t *testing.T) {
	people := writeFile(t, "people.csv", []byte("name,age\nAlice,30\nBob,25\n"))

	tests := []struct {
		name     string
		stdin    string
		args     []string
		wantCode int
		wantOut  string
	}{
		{
			name:     "header fields",
			args:     []string{people},
			wantCode: exitOK,
			wantOut:  "{\"name\":\"Alice\",\"age\":\"30\"}\n{\"name\":\"Bob\",\"age\":\"25\"}\n",
		},
		{
			name:     "explicit mapping",
			args:     []string{"-map", "years=age:int", "-map", "who=#0", people},
			wantCode: exitOK,
			wantOut:  "{\"years\":30,\"who\":\"Alice\"}\n{\"years\":25,\"who\":\"Bob\"}\n",
		},
		{
			name:     "stdin with semicolons",
			stdin:    "a;b\r\n1;2\r\n",
			args:     []string{"-delimiter", ";", "-"},
			wantCode: exitOK,
			wantOut:  "{\"a\":\"1\",\"b\":\"2\"}\n",
		},
		{
			name:     "detected delimiter",
			stdin:    "a\tb\n1\t2\n3\t4\n",
			args:     []string{"-delimiter", "auto", "-"},
			wantCode: exitOK,
			wantOut:  "{\"a\":\"1\",\"b\":\"2\"}\n{\"a\":\"3\",\"b\":\"4\"}\n",
		},
		{
			name:     "snake case fields",
			stdin:    "First Name,Last Name\nAda,Lovelace\n",
			args:     []string{"-field-case", "snake", "-"},
			wantCode: exitOK,
			wantOut:  "{\"first_name\":\"Ada\",\"last_name\":\"Lovelace\"}\n",
		},
		{
			name:     "bad row skipped",
			stdin:    "a,b\n1\n2,3\n",
			args:     []string{"-on-bad-line", "skip", "-"},
			wantCode: exitOK,
			wantOut:  "{\"a\":\"2\",\"b\":\"3\"}\n",
		},
		{
			name:     "bad row fails",
			stdin:    "a,b\n1\n2,3\n",
			args:     []string{"-on-bad-line", "error", "-"},
			wantCode: exitFail,
			wantOut:  "",
		},
		{
			name:     "mapping does not fit header",
			args:     []string{"-map", "x=missing", people},
			wantCode: exitFail,
			wantOut:  "",
		},
		{
			name:     "row too large",
			stdin:    "a,b\n1,2222222222\n",
			args:     []string{"-max-row-size", "6", "-"},
			wantCode: exitFail,
			wantOut:  "",
		},
		{
			name:     "missing file",
			args:     []string{filepath.Join(t.TempDir(), "nope.csv")},
			wantCode: exitFail,
		},
		{
			name:     "no input argument",
			args:     []string{},
			wantCode: exitUsage,
		},
		{
			name:     "multi-byte delimiter",
			args:     []string{"-delimiter", "::", people},
			wantCode: exitUsage,
		},
		{
			name:     "delimiter equals quote",
			args:     []string{"-delimiter", `"`, people},
			wantCode: exitUsage,
		},
		{
			name:     "unknown bad line mode",
			args:     []string{"-on-bad-line", "panic", people},
			wantCode: exitUsage,
		},
		{
			name:     "malformed mapping",
			args:     []string{"-map", "=x", people},
			wantCode: exitUsage,
		},
		{
			name:     "unknown flag",
			args:     []string{"-nope", people},
			wantCode: exitUsage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, stderr := runCLI(t, tt.stdin, tt.args...)
			if code != tt.wantCode {
				t.Fatalf("exit code = %d, want %d; stderr:\n%s", code, tt.wantCode, stderr)
			}
			if tt.wantCode == exitOK && out != tt.wantOut {
				t.Errorf("stdout = %q, want %q", out, tt.wantOut)
			}
		})
	}
}

func TestRun_GzipInput(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write([]byte("id,city\n1,\"Győr, HU\"\n"))
	zw.Close()
	path := writeFile(t, "cities.csv.gz", buf.Bytes())

	code, out, stderr := runCLI(t, "", "-map", "id=id:int", "-map", "city", path)
	if code != exitOK {
		t.Fatalf("exit code = %d; stderr:\n%s", code, stderr)
	}
	if want := "{\"id\":1,\"city\":\"Győr, HU\"}\n"; out != want {
		t.Errorf("stdout = %q, want %q", out, want)
	}
}

func TestRun_Latin1(t *testing.T) {
	path := writeFile(t, "latin1.csv", []byte("name\nJos\xe9\n"))
	code, out, stderr := runCLI(t, "", "-encoding", "latin1", path)
	if code != exitOK {
		t.Fatalf("exit code = %d; stderr:\n%s", code, stderr)
	}
	if want := "{\"name\":\"José\"}\n"; out != want {
		t.Errorf("stdout = %q, want %q", out, want)
	}
}

func TestRun_WarnLogsBadRow(t *testing.T) {
	code, _, stderr := runCLI(t, "a,b\n1\n", "-")
	if code != exitOK {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(stderr, "line=2") || !strings.Contains(stderr, "code=FIELD_COUNT") {
		t.Errorf("stderr = %q, want a warning for line 2", stderr)
	}
}

func TestParseByteFlag(t *testing.T) {
	tests := []struct {
		in      string
		want    byte
		wantErr bool
	}{
		{",", ',', false},
		{"tab", '\t', false},
		{`\t`, '\t', false},
		{"space", ' ', false},
		{`\\`, '\\', false},
		{"", 0, true},
		{"ab", 0, true},
	}
	for _, tt := range tests {
		got, err := parseByteFlag("delimiter", tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseByteFlag(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseByteFlag(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
