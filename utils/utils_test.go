package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestGenKSortedID(t *testing.T) {
	a := GenKSortedID("part_")
	if !strings.HasPrefix(a, "part_") {
		t.Fatal("missing prefix", a)
	}
	if a == GenKSortedID("part_") {
		t.Fatal("ids should not repeat")
	}
}

func TestDeref(t *testing.T) {
	if Deref[int](nil, 4) != 4 {
		t.Fatal("expected fallback")
	}
	if Deref(Ptr(2), 4) != 2 {
		t.Fatal("expected value")
	}
}

func TestIndexOfAndSum(t *testing.T) {
	if IndexOf([]string{"a", "b"}, "b") != 1 || IndexOf([]string{"a"}, "z") != -1 {
		t.Fatal("bad IndexOf")
	}
	if SumInts([]int{3, 3, 2}) != 8 {
		t.Fatal("bad sum")
	}
}

func TestRetryStopsOnPermanent(t *testing.T) {
	calls := 0
	err := retry(context.Background(), func() error {
		calls++
		return fmt.Errorf("wrapped: %w", PermError("nope"))
	})
	if calls != 1 {
		t.Fatal("permanent error should not be retried, calls:", calls)
	}
	var pe PermError
	if !errors.As(err, &pe) {
		t.Fatal("expected PermError, got", err)
	}
}
