package csv_test

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/shapestone/shape-csvstream/pkg/csv"
)

func TestConversion_HeaderFields(t *testing.T) {
	input := "name,age\nAlice,30\nBob,25\n"

	got, err := csv.NewConversion().ConvertReader(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("ConvertReader() error = %v", err)
	}
	want := []map[string]any{
		{"name": "Alice", "age": "30"},
		{"name": "Bob", "age": "25"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ConvertReader() = %v, want %v", got, want)
	}
}

func TestConversion_EmptyInput(t *testing.T) {
	got, err := csv.NewConversion().ConvertReader(context.Background(), strings.NewReader(""))
	if err != nil {
		t.Fatalf("ConvertReader() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ConvertReader() = %v, want no objects", got)
	}
}

func TestConversion_Mapping(t *testing.T) {
	m, err := csv.ParseMapping([]string{"id=ID:int", "active=Active:bool", "who=#1"})
	if err != nil {
		t.Fatalf("ParseMapping() error = %v", err)
	}
	input := "ID;Name;Active\n1;Alice;yes\n2;Bob;no\n"

	got, err := csv.NewConversion().
		Delimiter(';').
		Mapping(m).
		ConvertReader(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("ConvertReader() error = %v", err)
	}
	want := []map[string]any{
		{"id": int64(1), "active": true, "who": "Alice"},
		{"id": int64(2), "active": false, "who": "Bob"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ConvertReader() = %v, want %v", got, want)
	}
}

func TestConversion_HeaderNames(t *testing.T) {
	input := "First Name,lastName\nAda,Lovelace\n"

	got, err := csv.NewConversion().
		HeaderNames(csv.SnakeCaseHeader).
		ConvertReader(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("ConvertReader() error = %v", err)
	}
	want := []map[string]any{{"first_name": "Ada", "last_name": "Lovelace"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ConvertReader() = %v, want %v", got, want)
	}
}

func TestConversion_CustomRegistry(t *testing.T) {
	registry := csv.NewConverterRegistry()
	registry.Register("upper", csv.ConverterFunc(func(s string) (any, error) {
		return strings.ToUpper(s), nil
	}))
	m := csv.Mapping{{Field: "code", Column: csv.ByName("code"), Type: "upper"}}

	got, err := csv.NewConversion().
		Mapping(m).
		Registry(registry).
		ConvertReader(context.Background(), strings.NewReader("code\nabc\n"))
	if err != nil {
		t.Fatalf("ConvertReader() error = %v", err)
	}
	if len(got) != 1 || got[0]["code"] != "ABC" {
		t.Errorf("ConvertReader() = %v", got)
	}
}

func TestConversion_TransformError(t *testing.T) {
	input := "id,name\n1,a\nx,b\n3,c\n"
	m := csv.Mapping{
		{Field: "id", Column: csv.ByName("id"), Type: "int"},
		{Field: "name", Column: csv.ByName("name")},
	}

	t.Run("error", func(t *testing.T) {
		opts := csv.DefaultReaderOptions()
		opts.OnBadLine = csv.BadLineModeError

		_, err := csv.NewConversion().Options(opts).Mapping(m).
			ConvertReader(context.Background(), strings.NewReader(input))

		var perr *csv.ParseError
		if !errors.As(err, &perr) || perr.Line != 3 {
			t.Fatalf("error = %v, want *ParseError on line 3", err)
		}
		var terr *csv.TransformError
		if !errors.As(err, &terr) || terr.Field != "id" || terr.Value != "x" {
			t.Errorf("error = %v, want *TransformError for field id", err)
		}
		if csv.Code(err) != csv.ErrCodeTransform {
			t.Errorf("Code() = %q, want %q", csv.Code(err), csv.ErrCodeTransform)
		}
	})

	t.Run("warn", func(t *testing.T) {
		var warned []int
		opts := csv.DefaultReaderOptions()
		opts.WarningCallback = func(line int, _ string) {
			warned = append(warned, line)
		}

		got, err := csv.NewConversion().Options(opts).Mapping(m).
			ConvertReader(context.Background(), strings.NewReader(input))
		if err != nil {
			t.Fatalf("ConvertReader() error = %v", err)
		}
		if len(got) != 2 {
			t.Errorf("got %d objects, want 2", len(got))
		}
		if !reflect.DeepEqual(warned, []int{3}) {
			t.Errorf("warned lines = %v, want [3]", warned)
		}
	})

	t.Run("skip", func(t *testing.T) {
		opts := csv.DefaultReaderOptions()
		opts.OnBadLine = csv.BadLineModeSkip

		got, err := csv.NewConversion().Options(opts).Mapping(m).
			ConvertReader(context.Background(), strings.NewReader(input))
		if err != nil {
			t.Fatalf("ConvertReader() error = %v", err)
		}
		if len(got) != 2 || got[1]["id"] != int64(3) {
			t.Errorf("ConvertReader() = %v", got)
		}
	})
}

func TestConversion_MappingDoesNotFit(t *testing.T) {
	m := csv.Mapping{
		{Field: "id", Column: csv.ByName("missing")},
		{Field: "n", Column: csv.ByIndex(9)},
	}
	calls := 0
	err := csv.NewConversion().Mapping(m).Each(context.Background(),
		strings.NewReader("id,name\n1,a\n"),
		func(int, map[string]any) error {
			calls++
			return nil
		})

	var merr *csv.MappingError
	if !errors.As(err, &merr) {
		t.Fatalf("Each() error = %v, want *MappingError", err)
	}
	if len(merr.Problems) != 2 {
		t.Errorf("problems = %v, want 2", merr.Problems)
	}
	if calls != 0 {
		t.Errorf("fn called %d times before the mapping failed", calls)
	}
}

func TestConversion_NoHeader(t *testing.T) {
	m := csv.Mapping{{Field: "id", Column: csv.ByIndex(0)}}
	_, err := csv.NewConversion().Mapping(m).ConvertReader(context.Background(), strings.NewReader(""))
	if !errors.Is(err, csv.ErrNoHeader) {
		t.Errorf("ConvertReader() error = %v, want ErrNoHeader", err)
	}
}

func TestConversion_EachStops(t *testing.T) {
	stop := errors.New("stop")
	var lines []int
	err := csv.NewConversion().Each(context.Background(),
		strings.NewReader("a\n1\n2\n3\n"),
		func(line int, _ map[string]any) error {
			lines = append(lines, line)
			if line == 3 {
				return stop
			}
			return nil
		})
	if !errors.Is(err, stop) {
		t.Errorf("Each() error = %v, want %v", err, stop)
	}
	if !reflect.DeepEqual(lines, []int{2, 3}) {
		t.Errorf("lines = %v, want [2 3]", lines)
	}
}

func TestConversion_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := csv.NewConversion().ConvertReader(ctx, strings.NewReader("a\n1\n"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ConvertReader() error = %v, want context.Canceled", err)
	}
}

func TestConversion_WriteJSON(t *testing.T) {
	m, err := csv.ParseMapping([]string{"z=name", "a=age:int", "tag=<b>"})
	if err != nil {
		t.Fatalf("ParseMapping() error = %v", err)
	}
	input := "name,age,<b>\nAlice,30,x&y\nBob,25,\n"

	var out bytes.Buffer
	n, err := csv.NewConversion().Mapping(m).WriteJSON(context.Background(), strings.NewReader(input), &out)
	if err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	if n != 2 {
		t.Errorf("WriteJSON() wrote %d objects, want 2", n)
	}
	want := `{"z":"Alice","a":30,"tag":"x&y"}` + "\n" +
		`{"z":"Bob","a":25,"tag":""}` + "\n"
	if out.String() != want {
		t.Errorf("WriteJSON() output =\n%s\nwant\n%s", out.String(), want)
	}
}

func TestConversion_WriteJSONHeaderOrder(t *testing.T) {
	var out bytes.Buffer
	_, err := csv.NewConversion().WriteJSON(context.Background(),
		strings.NewReader("b,a,c\n1,2,3\n"), &out)
	if err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	if want := `{"b":"1","a":"2","c":"3"}` + "\n"; out.String() != want {
		t.Errorf("WriteJSON() = %q, want %q", out.String(), want)
	}
}

func TestConversion_WriteJSONDuplicateHeader(t *testing.T) {
	var out bytes.Buffer
	_, err := csv.NewConversion().WriteJSON(context.Background(),
		strings.NewReader("x,y,x\n1,2,3\n"), &out)
	if err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	if want := `{"x":"3","y":"2"}` + "\n"; out.String() != want {
		t.Errorf("WriteJSON() = %q, want %q", out.String(), want)
	}
}
