package scan

import "testing"

func TestParseOpenTag(t *testing.T) {
	src := `<LazyChart class="a b" hydrate:visible :data='rows' x=1 />rest`
	tag, ok := ParseOpenTag(src, 0)
	if !ok {
		t.Fatal("ParseOpenTag failed")
	}
	if tag.Name != "LazyChart" || !tag.SelfClosing {
		t.Errorf("tag = %q selfClosing=%v", tag.Name, tag.SelfClosing)
	}
	if src[tag.End:] != "rest" {
		t.Errorf("End points at %q", src[tag.End:])
	}

	want := []struct {
		name, value string
		hasValue    bool
		quote       byte
	}{
		{"class", "a b", true, '"'},
		{"hydrate:visible", "", false, 0},
		{":data", "rows", true, '\''},
		{"x", "1", true, 0},
	}
	if len(tag.Attrs) != len(want) {
		t.Fatalf("attrs = %+v", tag.Attrs)
	}
	for i, w := range want {
		a := tag.Attrs[i]
		if a.Name != w.name || a.Value != w.value || a.HasValue != w.hasValue || a.Quote != w.quote {
			t.Errorf("attr[%d] = %+v, want %+v", i, a, w)
		}
		if src[a.Lead] != ' ' {
			t.Errorf("attr[%d] lead does not point at whitespace", i)
		}
	}
}

func TestParseOpenTagUnterminated(t *testing.T) {
	for _, src := range []string{`<div class="x`, `<div`, `<div a=`} {
		if _, ok := ParseOpenTag(src, 0); ok {
			t.Errorf("ParseOpenTag(%q) ok = true", src)
		}
	}
}

func TestParseOpenTagGreaterThanInValue(t *testing.T) {
	src := `<LazyChart :hydrate="a > b">x</LazyChart>`
	tag, ok := ParseOpenTag(src, 0)
	if !ok || tag.Attrs[0].Value != "a > b" {
		t.Errorf("tag = %+v", tag)
	}
	if src[tag.End:tag.End+1] != "x" {
		t.Errorf("End = %d", tag.End)
	}
}

func TestFindClose(t *testing.T) {
	src := `<A><A></A><!-- </A> --><A/></A>tail`
	s, e, ok := FindClose(src, 3, "A")
	if !ok {
		t.Fatal("no close found")
	}
	if src[s-2:e+1] != "</A>" || src[e+1:] != "tail" {
		t.Errorf("matched %q at %d", src[s:e], s)
	}

	if _, _, ok := FindClose(`<A><A></A>`, 3, "A"); ok {
		t.Error("unbalanced input matched")
	}
}

func TestSkipComment(t *testing.T) {
	src := `<!-- x -->y`
	if got := SkipComment(src, 0); src[got:] != "y" {
		t.Errorf("SkipComment = %d", got)
	}
	if SkipComment("<div>", 0) != -1 {
		t.Error("non-comment skipped")
	}
	if SkipComment("<!-- open", 0) != len("<!-- open") {
		t.Error("unterminated comment should run to end")
	}
}

func TestSkipRawText(t *testing.T) {
	src := `<script>if (a<b) x()</SCRIPT>`
	body := len("<script>")
	end := SkipRawText(src, body, "script")
	if src[end:] != "</SCRIPT>" {
		t.Errorf("SkipRawText stopped at %q", src[end:])
	}
}
