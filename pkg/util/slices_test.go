package util

import (
	"reflect"
	"testing"
)

func TestInPlaceFilterKeepsOnlyMatching(t *testing.T) {
	s := []int{1, 2, 3, 4, 5, 6}
	InPlaceFilter(&s, func(v int) bool { return v%2 == 0 })
	if !reflect.DeepEqual(s, []int{2, 4, 6}) {
		t.Errorf("got %v, want [2 4 6]", s)
	}
}

func TestInPlaceFilterEmptyResult(t *testing.T) {
	s := []int{1, 3, 5}
	InPlaceFilter(&s, func(v int) bool { return v%2 == 0 })
	if len(s) != 0 {
		t.Errorf("got %v, want an empty slice", s)
	}
}

func TestInPlaceFilterPreservesOrder(t *testing.T) {
	type pair struct{ a, b int }
	s := []pair{{1, 1}, {2, 2}, {1, 3}, {2, 4}}
	InPlaceFilter(&s, func(p pair) bool { return p.a == 2 })
	want := []pair{{2, 2}, {2, 4}}
	if !reflect.DeepEqual(s, want) {
		t.Errorf("got %v, want %v", s, want)
	}
}
