package arxiv

import (
	"slices"
	"testing"
)

func TestExtractIDs(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "abs link", text: "https://arxiv.org/abs/1234.5678", want: []string{"1234.5678"}},
		{name: "pdf link", text: "https://arxiv.org/pdf/1234.5678.pdf", want: []string{"1234.5678"}},
		{name: "pdf link with query", text: "see https://arxiv.org/pdf/1234.5678.pdf?download=1", want: []string{"1234.5678"}},
		{name: "http scheme", text: "http://arxiv.org/abs/2301.07041 please", want: []string{"2301.07041"}},
		{name: "slack wrapped link", text: "check <https://arxiv.org/abs/1111.2222>", want: []string{"1111.2222"}},
		{name: "not arxiv", text: "https://example.com/papers/12345", want: []string{}},
		{name: "no links", text: "hello there", want: []string{}},
		{name: "uppercase host is rejected", text: "https://ARXIV.org/abs/1234.5678", want: []string{}},
		{name: "ends without digit", text: "https://arxiv.org/abs/", want: []string{}},
		{
			name: "multiple keep order and duplicates",
			text: "https://arxiv.org/abs/2.2 and https://arxiv.org/abs/1.1 and https://arxiv.org/abs/2.2",
			want: []string{"2.2", "1.1", "2.2"},
		},
		{name: "mixed", text: "https://example.com/1 https://arxiv.org/abs/3.3", want: []string{"3.3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractIDs(tt.text)
			if !slices.Equal(got, tt.want) {
				t.Fatalf("ExtractIDs(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}
