package dictionary

import "testing"

func TestNewServiceDefaultsWhenEmpty(t *testing.T) {
	s := NewService(nil)
	if s.Len() == 0 {
		t.Fatal("empty input should fall back to the built-in list")
	}
	if !s.IsValid("QI") {
		t.Fatal("built-in two-letter word missing")
	}
}

func TestIsValidIsCaseInsensitive(t *testing.T) {
	s := NewService([]string{"hello", "WORLD"})

	for _, word := range []string{"hello", "HELLO", "Hello", "world", "World"} {
		if !s.IsValid(word) {
			t.Errorf("IsValid(%q) = false, want true", word)
		}
	}
	if s.IsValid("nope") {
		t.Error("unknown word reported valid")
	}
	if s.IsValid("") {
		t.Error("empty string reported valid")
	}
}

func TestCustomListReplacesDefaults(t *testing.T) {
	s := NewService([]string{"ONLY"})
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
	if s.IsValid("QI") {
		t.Fatal("default word leaked into a custom list")
	}
}
