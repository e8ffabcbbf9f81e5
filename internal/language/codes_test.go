package language_test

import (
	"reflect"
	"testing"

	"dubwatch/internal/language"
)

func TestNormalize(t *testing.T) {
	got, err := language.Normalize(" ES ")
	if err != nil || got != "es" {
		t.Fatalf("Normalize(ES) = %q, %v", got, err)
	}
	if _, err := language.Normalize("not-a-language-code"); err == nil {
		t.Fatal("expected error for garbage code")
	}
	if _, err := language.Normalize(""); err == nil {
		t.Fatal("expected error for empty code")
	}
}

func TestNormalizeListDeduplicates(t *testing.T) {
	got, err := language.NormalizeList([]string{"es", "FR", "es", "de"})
	if err != nil {
		t.Fatalf("NormalizeList: %v", err)
	}
	want := []string{"es", "fr", "de"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("NormalizeList = %v, want %v", got, want)
	}
}

func TestDisplayName(t *testing.T) {
	if name := language.DisplayName("es"); name != "Spanish" {
		t.Fatalf("DisplayName(es) = %q", name)
	}
	if name := language.DisplayName("ja"); name != "Japanese" {
		t.Fatalf("DisplayName(ja) = %q", name)
	}
	if name := language.DisplayName(""); name != "Unknown" {
		t.Fatalf("DisplayName(empty) = %q", name)
	}
}
