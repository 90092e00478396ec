package scrape

import (
	"errors"
	"testing"
)

const page = `<!DOCTYPE html><html><head>
<script src="/app.js"></script>
<script id="__NEXT_DATA__" type="application/json">{"props":{"a":1}}</script>
</head><body>
<script>window['__STATE__'] = '{"queries":[{"x":"a<b"}]}'</script>
</body></html>`

func TestScriptByID(t *testing.T) {
	got, err := ScriptByID([]byte(page), "__NEXT_DATA__")
	if err != nil {
		t.Fatalf("ScriptByID() unexpected error = %v", err)
	}
	if want := `{"props":{"a":1}}`; got != want {
		t.Errorf("ScriptByID() = %q, want %q", got, want)
	}

	if _, err := ScriptByID([]byte(page), "nope"); !errors.Is(err, ErrNoPayload) {
		t.Errorf("ScriptByID() error = %v, want ErrNoPayload", err)
	}
}

func TestScriptAssignment(t *testing.T) {
	got, err := ScriptAssignment([]byte(page), "window['__STATE__']")
	if err != nil {
		t.Fatalf("ScriptAssignment() unexpected error = %v", err)
	}
	if want := `{"queries":[{"x":"a<b"}]}`; got != want {
		t.Errorf("ScriptAssignment() = %q, want %q", got, want)
	}

	if _, err := ScriptAssignment([]byte(page), "window['other']"); !errors.Is(err, ErrNoPayload) {
		t.Errorf("ScriptAssignment() error = %v, want ErrNoPayload", err)
	}
}
