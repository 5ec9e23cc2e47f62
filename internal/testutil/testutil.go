// Package testutil holds small assertion helpers shared by tests.
package testutil

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// MustEqual fails the test with a readable diff when got differs from want.
func MustEqual(t *testing.T, want, got any, opts ...cmp.Option) {
	t.Helper()
	if diff := cmp.Diff(want, got, opts...); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

// Equal is MustEqual without the fatal stop.
func Equal(t *testing.T, want, got any, opts ...cmp.Option) {
	t.Helper()
	if diff := cmp.Diff(want, got, opts...); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}
