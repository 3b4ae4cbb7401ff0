package script

import "testing"

func TestRenderTemplate(t *testing.T) {
	vars := map[string]string{"counter": "3", "name": "kryon"}
	get := func(n string) string { return vars[n] }

	tests := []struct {
		template string
		want     string
	}{
		{"plain text", "plain text"},
		{"{$counter}", "3"},
		{"count: {$counter}!", "count: 3!"},
		{"{$name} {$counter}", "kryon 3"},
		{"{$missing}", ""},
		{"open {$counter", "open {$counter"},
	}
	for _, tt := range tests {
		if got := RenderTemplate(tt.template, get); got != tt.want {
			t.Errorf("RenderTemplate(%q) = %q, want %q", tt.template, got, tt.want)
		}
	}
}

func TestTemplateRefs(t *testing.T) {
	refs := TemplateRefs("a {$x} b {$y}")
	if len(refs) != 2 || refs[0] != "x" || refs[1] != "y" {
		t.Errorf("TemplateRefs = %v", refs)
	}
}

func TestStoreReadYourWrites(t *testing.T) {
	s := NewStore()
	s.Declare("counter", "0")

	s.Set("counter", "1")
	if got := s.Get("counter"); got != "1" {
		t.Errorf("Get during activation = %q, want pending write", got)
	}
	if got := s.Committed("counter"); got != "0" {
		t.Errorf("Committed during activation = %q, want 0", got)
	}

	changed := s.Commit()
	if len(changed) != 1 || changed[0] != "counter" {
		t.Errorf("Commit changed = %v", changed)
	}
	if got := s.Committed("counter"); got != "1" {
		t.Errorf("Committed after commit = %q", got)
	}
}

func TestStoreLastWriterWins(t *testing.T) {
	s := NewStore()
	s.Declare("v", "a")
	s.Set("v", "b")
	s.Set("v", "c")
	s.Commit()
	if got := s.Committed("v"); got != "c" {
		t.Errorf("last writer = %q, want c", got)
	}
}

func TestStoreUndeclaredWriteIgnored(t *testing.T) {
	s := NewStore()
	s.Set("ghost", "1")
	if changed := s.Commit(); len(changed) != 0 {
		t.Errorf("undeclared write committed: %v", changed)
	}
}

func TestStoreDiscard(t *testing.T) {
	s := NewStore()
	s.Declare("v", "0")
	s.Set("v", "9")
	s.Discard()
	if got := s.Committed("v"); got != "0" {
		t.Errorf("discarded write leaked: %q", got)
	}
	if changed := s.Commit(); len(changed) != 0 {
		t.Errorf("discarded write committed later: %v", changed)
	}
}

func TestCoerceScalar(t *testing.T) {
	if v, ok := CoerceScalar("42").(float64); !ok || v != 42 {
		t.Errorf("CoerceScalar(42) = %v", CoerceScalar("42"))
	}
	if v, ok := CoerceScalar("true").(bool); !ok || !v {
		t.Errorf("CoerceScalar(true) = %v", CoerceScalar("true"))
	}
	if v, ok := CoerceScalar("hi").(string); !ok || v != "hi" {
		t.Errorf("CoerceScalar(hi) = %v", CoerceScalar("hi"))
	}
}
