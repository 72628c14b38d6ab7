package testutil

import (
	"fmt"
	"testing"
	"time"
)

// TestHelper provides small assertion utilities shared by package tests.
type TestHelper struct {
	t *testing.T
}

func NewTestHelper(t *testing.T) *TestHelper {
	return &TestHelper{t: t}
}

// BaseTime is a fixed reference instant; tests derive message timestamps from
// it so ordering assertions stay deterministic.
var BaseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// At returns BaseTime shifted by n seconds.
func At(n int) time.Time {
	return BaseTime.Add(time.Duration(n) * time.Second)
}

// ClientID returns a deterministic idempotency token for fixtures.
func ClientID(n int) string {
	return fmt.Sprintf("client-%04d", n)
}

func (h *TestHelper) AssertError(err error, shouldErr bool, testName string) {
	h.t.Helper()
	if (err != nil) != shouldErr {
		if shouldErr {
			h.t.Errorf("%s: expected error but got nil", testName)
		} else {
			h.t.Errorf("%s: unexpected error: %v", testName, err)
		}
	}
}

func (h *TestHelper) AssertEqual(got, want interface{}, testName string) {
	h.t.Helper()
	if got != want {
		h.t.Errorf("%s: got %v, want %v", testName, got, want)
	}
}

func (h *TestHelper) AssertNotNil(value interface{}, testName string) {
	h.t.Helper()
	if value == nil {
		h.t.Errorf("%s: expected non-nil value", testName)
	}
}
