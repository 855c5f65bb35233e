package core

import (
	"reflect"
	"sort"
	"testing"
)

func TestMergeCategoriesDefaultsOnly(t *testing.T) {
	got := MergeCategories(nil)
	want := append([]string(nil), DefaultCategories...)
	sort.Strings(want)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestMergeCategoriesUnion(t *testing.T) {
	got := MergeCategories([]string{"Pets", "Food", "food", "Travel", "Pets"})
	want := []string{
		"Education", "Entertainment", "Food", "Health", "Housing",
		"Other", "Pets", "Shopping", "Transport", "Travel", "Utilities", "food",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if !sort.StringsAreSorted(got) {
		t.Fatalf("result not sorted: %v", got)
	}
}

func TestMergeCategoriesDoesNotMutateDefaults(t *testing.T) {
	before := append([]string(nil), DefaultCategories...)
	_ = MergeCategories([]string{"Aaa"})
	if !reflect.DeepEqual(before, DefaultCategories) {
		t.Fatalf("defaults mutated: %v", DefaultCategories)
	}
}
