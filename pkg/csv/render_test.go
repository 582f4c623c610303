package csv

import (
	"strings"
	"testing"

	"github.com/shapestone/shape-core/pkg/ast"
)

// TestRender tests the basic Render function
func TestRender(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "simple CSV",
			input: "name,age\nAlice,30\nBob,25\n",
			want:  "name,age\nAlice,30\nBob,25\n",
		},
		{
			name:  "empty CSV",
			input: "",
			want:  "",
		},
		{
			name:  "header only",
			input: "name,age\n",
			want:  "name,age\n",
		},
		{
			name:  "with empty fields",
			input: "a,b,c\n1,,3\n,,\n",
			want:  "a,b,c\n1,,3\n,,\n",
		},
		{
			name:  "CRLF input renders with LF",
			input: "a,b\r\n1,2\r\n",
			want:  "a,b\n1,2\n",
		},
		{
			name:  "quoted cells keep their quoting",
			input: "name,description\nItem1,\"Has, comma\"\nItem2,\"Has \"\"quotes\"\"\"\n",
			want:  "name,description\nItem1,\"Has, comma\"\nItem2,\"Has \"\"quotes\"\"\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			got, err := Render(node)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Render() mismatch:\ngot:\n%q\nwant:\n%q", got, tt.want)
			}
		})
	}
}

// TestRenderEscaping tests Render with fields that need escaping
func TestRenderEscaping(t *testing.T) {
	tests := []struct {
		name  string
		input [][]string
		want  string
	}{
		{
			name:  "field with comma",
			input: [][]string{{"Hello, World", "test"}},
			want:  "\"Hello, World\",test\n",
		},
		{
			name:  "field with quotes",
			input: [][]string{{`Say "Hi"`, "test"}},
			want:  "\"Say \"\"Hi\"\"\",test\n",
		},
		{
			name:  "field with newline",
			input: [][]string{{"Line1\nLine2", "test"}},
			want:  "\"Line1\nLine2\",test\n",
		},
		{
			name:  "field with carriage return",
			input: [][]string{{"Line1\rLine2", "test"}},
			want:  "\"Line1\rLine2\",test\n",
		},
		{
			name:  "leading and trailing spaces are not quoted",
			input: [][]string{{" space ", "\ttab"}},
			want:  " space ,\ttab\n",
		},
		{
			name:  "empty fields",
			input: [][]string{{"", ""}},
			want:  ",\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(RecordsToNode(tt.input))
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Render() mismatch:\ngot:\n%q\nwant:\n%q", got, tt.want)
			}
		})
	}
}

func TestRenderWithOptions(t *testing.T) {
	node := RecordsToNode([][]string{{"a", "b;c"}, {"it's", "x\ty"}})

	tests := []struct {
		name string
		opts func(*WriterOptions)
		want string
	}{
		{
			name: "defaults",
			opts: func(*WriterOptions) {},
			want: "a,b;c\nit's,x\ty\n",
		},
		{
			name: "semicolon and CRLF",
			opts: func(o *WriterOptions) {
				o.Delimiter = ';'
				o.UseCRLF = true
			},
			want: "a;\"b;c\"\r\nit's;x\ty\r\n",
		},
		{
			name: "tab and single quote",
			opts: func(o *WriterOptions) {
				o.Delimiter = '\t'
				o.Quote = '\''
			},
			want: "a\tb;c\n'it''s'\t'x\ty'\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultWriterOptions()
			tt.opts(&opts)
			got, err := RenderWithOptions(node, opts)
			if err != nil {
				t.Fatalf("RenderWithOptions() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("RenderWithOptions() = %q, want %q", got, tt.want)
			}
		})
	}

	bad := DefaultWriterOptions()
	bad.Quote = bad.Delimiter
	if _, err := RenderWithOptions(node, bad); err == nil {
		t.Error("RenderWithOptions() with quote equal to delimiter should fail")
	}
}

// TestRenderRoundTrip tests that Parse and Render are inverse operations
func TestRenderRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "simple CSV",
			input: "name,age,city\nAlice,30,NYC\nBob,25,LA\nCharlie,35,SF\n",
		},
		{
			name:  "CSV with empty fields",
			input: "a,b,c\n1,,3\n,2,\n,,\n",
		},
		{
			name:  "CSV with non-ASCII text",
			input: "name,city\nJosé,Köln\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			rendered, err := Render(node)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if string(rendered) != tt.input {
				t.Errorf("Round trip mismatch:\ngot:\n%q\nwant:\n%q", rendered, tt.input)
			}
		})
	}
}

// TestRenderNilNode tests Render with nil node
func TestRenderNilNode(t *testing.T) {
	got, err := Render(nil)
	if err != nil {
		t.Fatalf("Render(nil) error = %v", err)
	}
	if string(got) != "" {
		t.Errorf("Render(nil) = %q, want empty string", got)
	}
}

// TestRenderInvalidNode tests Render with unexpected node types
func TestRenderInvalidNode(t *testing.T) {
	pos := ast.ZeroPosition()
	objectNode := ast.NewObjectNode(map[string]ast.SchemaNode{
		"key": ast.NewLiteralNode("value", pos),
	}, pos)

	if _, err := Render(objectNode); err == nil {
		t.Error("Render(ObjectNode) should return error, got nil")
	}

	nested := ast.NewArrayDataNode([]ast.SchemaNode{
		ast.NewArrayDataNode([]ast.SchemaNode{objectNode}, pos),
	}, pos)
	if _, err := Render(nested); err == nil {
		t.Error("Render() with an object field should return error, got nil")
	}
}

func TestRenderLiteral(t *testing.T) {
	got, err := Render(ast.NewLiteralNode("a,b", ast.ZeroPosition()))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if string(got) != "\"a,b\"\n" {
		t.Errorf("Render(literal) = %q", got)
	}
}

// BenchmarkRender benchmarks the Render function
func BenchmarkRender(b *testing.B) {
	var sb strings.Builder
	sb.WriteString("col1,col2,col3,col4,col5\n")
	for i := 0; i < 100; i++ {
		sb.WriteString("value1,value2,value3,value4,value5\n")
	}

	node, err := Parse(sb.String())
	if err != nil {
		b.Fatalf("Parse() error = %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Render(node); err != nil {
			b.Fatal(err)
		}
	}
}
