package plaintext

import (
	"testing"

	"github.com/FocuswithJustin/Polyglot/core/coded"
	"github.com/FocuswithJustin/Polyglot/core/errors"
	"github.com/google/go-cmp/cmp"
)

func TestExtract(t *testing.T) {
	contents := Extract("Hello\r\n\n  World  \n\t\nLast")

	var got [][2]string
	for _, c := range contents {
		got = append(got, [2]string{c.Reference, c.Literal()})
	}
	want := [][2]string{{"line:1", "Hello"}, {"line:3", "World"}, {"line:5", "Last"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
	}
}

func TestReinject(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		edits map[string]string
		want  string
	}{
		{
			name: "unchanged",
			src:  "Hello\r\n\n  World  \nLast",
			want: "Hello\r\n\n  World  \nLast",
		},
		{
			name:  "translated",
			src:   "Hello\r\n\n  World  \nLast\n",
			edits: map[string]string{"line:1": "Hallo", "line:3": "Welt"},
			want:  "Hallo\r\n\n  Welt  \nLast\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contents := Extract(tt.src)
			for _, c := range contents {
				if text, ok := tt.edits[c.Reference]; ok {
					c.Parts = []coded.Part{coded.Text(text)}
				}
			}
			got, err := Reinject(tt.src, contents)
			if err != nil {
				t.Fatalf("Reinject() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Reinject() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReinjectMalformedReference(t *testing.T) {
	for _, ref := range []string{"line:9", "line:0", "line:x", "/p[1]"} {
		t.Run(ref, func(t *testing.T) {
			c := &coded.Content{Reference: ref, Parts: []coded.Part{coded.Text("x")}}
			_, err := Reinject("one\ntwo", []*coded.Content{c})
			var malformed *errors.MalformedReferenceError
			if !errors.As(err, &malformed) {
				t.Errorf("Reinject() error = %v, want MalformedReferenceError", err)
			}
		})
	}
}
