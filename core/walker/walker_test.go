package walker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/FocuswithJustin/writings/core/markup"
	"golang.org/x/net/html"
)

const doc = `<html><body>
<div id="a">
  <p id="a1">one</p>
  <p id="a2">two</p>
</div>
<div id="b">
  <p id="b1">three</p>
</div>
<div id="c"><p id="c1">four</p></div>
</body></html>`

type recorder struct {
	visited []string
	depths  map[string]int
	rules   map[string]Action
	fail    string
}

func (r *recorder) Visit(n *html.Node, depth int) (Action, error) {
	id, _ := markup.Attr(n, "id")
	if id == "" {
		id = n.Data
	}
	r.visited = append(r.visited, id)
	r.depths[id] = depth
	if id == r.fail {
		return Stop, fmt.Errorf("fail at %s", id)
	}
	if a, ok := r.rules[id]; ok {
		return a, nil
	}
	return VisitChildren, nil
}

func run(t *testing.T, rules map[string]Action, fail string) (*recorder, error) {
	t.Helper()
	body, err := ParseBody(doc)
	if err != nil {
		t.Fatalf("ParseBody failed: %v", err)
	}
	r := &recorder{depths: map[string]int{}, rules: rules, fail: fail}
	return r, Traverse(r, body)
}

func TestTraverseOrder(t *testing.T) {
	r, err := run(t, nil, "")
	if err != nil {
		t.Fatalf("Traverse failed: %v", err)
	}
	want := "body a a1 a2 b b1 c c1"
	if got := strings.Join(r.visited, " "); got != want {
		t.Errorf("visited = %q, want %q", got, want)
	}
	if r.depths["body"] != 0 || r.depths["a"] != 1 || r.depths["a1"] != 2 {
		t.Errorf("depths = %v", r.depths)
	}
}

func TestTraverseSkipChildren(t *testing.T) {
	r, err := run(t, map[string]Action{"a": SkipChildren}, "")
	if err != nil {
		t.Fatalf("Traverse failed: %v", err)
	}
	want := "body a b b1 c c1"
	if got := strings.Join(r.visited, " "); got != want {
		t.Errorf("visited = %q, want %q", got, want)
	}
}

func TestTraverseStop(t *testing.T) {
	r, err := run(t, map[string]Action{"a2": Stop}, "")
	if err != nil {
		t.Fatalf("Traverse failed: %v", err)
	}
	want := "body a a1 a2"
	if got := strings.Join(r.visited, " "); got != want {
		t.Errorf("visited = %q, want %q", got, want)
	}
}

func TestTraverseError(t *testing.T) {
	r, err := run(t, nil, "b")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := strings.Join(r.visited, " "); got != "body a a1 a2 b" {
		t.Errorf("visited = %q", got)
	}
}

func TestVisitorFunc(t *testing.T) {
	body, err := ParseBody(doc)
	if err != nil {
		t.Fatalf("ParseBody failed: %v", err)
	}
	count := 0
	v := VisitorFunc(func(n *html.Node, depth int) (Action, error) {
		if n.Data == "p" {
			count++
		}
		return VisitChildren, nil
	})
	if err := Traverse(v, body); err != nil {
		t.Fatalf("Traverse failed: %v", err)
	}
	if count != 4 {
		t.Errorf("count = %d, want 4", count)
	}
}

func TestActionString(t *testing.T) {
	if Stop.String() != "stop" || SkipChildren.String() != "skip-children" {
		t.Error("unexpected Action names")
	}
}
