package resolve

import (
	"testing"

	"github.com/vango-dev/lazyhydrate/pkg/compiler/markup"
	"github.com/vango-dev/lazyhydrate/pkg/diag"
)

func run(t *testing.T, src string) (string, diag.List) {
	t.Helper()
	root, err := markup.Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	diags := Resolve("page.vue", root)
	return markup.Print(root), diags
}

func codes(list diag.List) []string {
	var out []string
	for _, d := range list {
		out = append(out, d.Code)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  string
		codes []string
	}{
		{
			name: "bound visible options",
			in:   `<LazyChart :hydrate:visible="opts" />`,
			want: `<LazyVisibleChart :hydrate="opts" />`,
		},
		{
			name: "v-bind long form",
			in:   `<LazyForm v-bind:hydrate:if="ready"></LazyForm>`,
			want: `<LazyIfForm :hydrate="ready"></LazyIfForm>`,
		},
		{
			name: "kebab bound event",
			in:   `<lazy-chart :hydrate:event="['click', 'focus']"></lazy-chart>`,
			want: `<lazy-event-chart :hydrate="['click', 'focus']"></lazy-event-chart>`,
		},
		{
			name: "plain attribute without value",
			in:   `<LazyChart hydrate:idle />`,
			want: `<LazyIdleChart />`,
		},
		{
			name:  "duplicates, last wins",
			in:    `<LazyChart hydrate:time="100" class="c" :hydrate:visible="opts" />`,
			want:  `<LazyVisibleChart class="c" :hydrate="opts" />`,
			codes: []string{diag.CodeDuplicate},
		},
		{
			name:  "three directives",
			in:    `<LazyChart hydrate:idle hydrate:time hydrate:never />`,
			want:  `<LazyNeverChart />`,
			codes: []string{diag.CodeDuplicate, diag.CodeDuplicate},
		},
		{
			name:  "bound never drops expression",
			in:    `<LazyChart :hydrate:never="x" />`,
			want:  `<LazyNeverChart />`,
			codes: []string{diag.CodeNeverValue},
		},
		{
			name:  "bound boolean on media",
			in:    `<LazyChart :hydrate:media="true" />`,
			want:  `<LazyMediaChart />`,
			codes: []string{diag.CodeValueMismatch},
		},
		{
			name:  "unknown bound kind",
			in:    `<LazyChart :hydrate:soon="x" />`,
			want:  `<LazyVisibleChart :hydrate="x" />`,
			codes: []string{diag.CodeUnknownKind},
		},
		{
			name: "canonical binding untouched",
			in:   `<LazyVisibleChart :hydrate="opts" />`,
			want: `<LazyVisibleChart :hydrate="opts" />`,
		},
		{
			name: "non-lazy component untouched",
			in:   `<Chart :hydrate:visible="opts" />`,
			want: `<Chart :hydrate:visible="opts" />`,
		},
		{
			name: "native element untouched",
			in:   `<div hydrate:visible></div>`,
			want: `<div hydrate:visible></div>`,
		},
		{
			name: "nested lazy components",
			in:   `<LazyA hydrate:never><LazyB :hydrate:time="t"></LazyB></LazyA>`,
			want: `<LazyNeverA><LazyTimeB :hydrate="t"></LazyTimeB></LazyNeverA>`,
		},
		{
			name: "empty bound value uses default",
			in:   `<LazyChart :hydrate:time="" />`,
			want: `<LazyTimeChart />`,
		},
		{
			name:  "plain and bound mixed",
			in:    `<LazyChart hydrate:idle :hydrate:time="5"/>`,
			want:  `<LazyTimeChart :hydrate="5"/>`,
			codes: []string{diag.CodeDuplicate},
		},
		{
			name: "single quotes kept",
			in:   `<LazyChart :hydrate:visible='{ rootMargin: "10px" }' />`,
			want: `<LazyVisibleChart :hydrate='{ rootMargin: "10px" }' />`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, diags := run(t, tt.in)
			if got != tt.want {
				t.Errorf("Resolve = %q, want %q", got, tt.want)
			}
			if !equal(codes(diags), tt.codes) {
				t.Errorf("codes = %v, want %v", codes(diags), tt.codes)
			}
		})
	}
}

func TestResolveIdempotent(t *testing.T) {
	src := `<div><LazyChart hydrate:time="1" :hydrate:if="ok"><lazy-x hydrate:visible /></LazyChart></div>`
	once, _ := run(t, src)
	twice, diags := run(t, once)
	if twice != once {
		t.Errorf("second pass = %q, want %q", twice, once)
	}
	if len(diags) != 0 {
		t.Errorf("second pass diagnostics = %v", codes(diags))
	}
}

func TestDuplicateDiagnostic(t *testing.T) {
	_, diags := run(t, "<p>\n  <LazyChart\n    hydrate:time=\"1\"\n    hydrate:idle />\n</p>")
	if len(diags) != 1 {
		t.Fatalf("diagnostics = %d, want 1", len(diags))
	}
	d := diags[0]
	if !d.IsError() {
		t.Error("duplicate should be an error")
	}
	if d.Location == nil || d.Location.Line != 3 || d.Location.Column != 5 {
		t.Errorf("location = %v, want page.vue:3:5", d.Location)
	}
	if d.Location.File != "page.vue" {
		t.Errorf("file = %q", d.Location.File)
	}
	if d.Tag == "" {
		t.Error("diagnostic should carry the tag occurrence")
	}
}
