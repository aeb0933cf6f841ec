package ruggederr

import (
	"errors"
	"testing"
)

func TestErrorFormatsTemplate(t *testing.T) {
	err := New(OutOfTimeRange, 12.5, 0.0, 10.0)
	want := "date 12.5 is out of time range [0, 10]"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestWrapChainsCause(t *testing.T) {
	cause := errors.New("disk read failed")
	err := Wrap(cause, NoDemData, 1.0, 2.0)

	if err.Cause() == nil {
		t.Fatal("Cause() = nil, want non-nil")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIsMatchesByKindOnly(t *testing.T) {
	a := New(OutOfTimeRange, 1.0, 0.0, 2.0)
	b := New(OutOfTimeRange, 99.0, 0.0, 2.0)
	c := New(NoDemData, 1.0, 2.0)

	if !errors.Is(a, b) {
		t.Error("errors of the same Kind should match via Is, regardless of Args")
	}
	if errors.Is(a, c) {
		t.Error("errors of different Kind should not match via Is")
	}
}

func TestKindStringKnownAndUnknown(t *testing.T) {
	if got := InternalError.String(); got != "InternalError" {
		t.Errorf("InternalError.String() = %q", got)
	}
	if got := Kind(999).String(); got != "Kind(999)" {
		t.Errorf("Kind(999).String() = %q", got)
	}
}
