package cmp_test

import (
	"strconv"
	"testing"

	"github.com/scgcore/quantd/pkg/utils/cmp"
)

func TestSliceEq(t *testing.T) {

	t.Run("it compares slices elementwise", func(t *testing.T) {
		if !cmp.SliceEq([]string{"a", "b"}, []string{"a", "b"}) {
			t.Error("equal slices should match")
		}
		if cmp.SliceEq([]string{"a", "b"}, []string{"b", "a"}) {
			t.Error("order matters")
		}
		if cmp.SliceEq([]string{"a"}, []string{"a", "b"}) {
			t.Error("different lengths should not match")
		}
		if !cmp.SliceEq([]string{}, nil) {
			t.Error("empty and nil slices should match")
		}
	})
}

func TestSliceEqWith(t *testing.T) {

	t.Run("it compares with a predicate across types", func(t *testing.T) {
		matched := cmp.SliceEqWith(
			[]int{1, 2, 3}, []string{"1", "2", "3"},
			func(a int, b string) bool { return strconv.Itoa(a) == b },
		)
		if !matched {
			t.Error("slices should match under the predicate")
		}
	})
}

func TestMapEq(t *testing.T) {

	t.Run("it compares maps by key and value", func(t *testing.T) {
		if !cmp.MapEq(map[string]int{"a": 1, "b": 2}, map[string]int{"b": 2, "a": 1}) {
			t.Error("equal maps should match")
		}
		if cmp.MapEq(map[string]int{"a": 1}, map[string]int{"a": 2}) {
			t.Error("different values should not match")
		}
		if cmp.MapEq(map[string]int{"a": 1}, map[string]int{"b": 1}) {
			t.Error("different keys should not match")
		}
	})
}
