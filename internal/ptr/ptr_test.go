package ptr_test

import (
	"testing"

	"github.com/claude/fittrack/internal/ptr"
)

func TestRef(t *testing.T) {
	p := ptr.Ref(42)
	if *p != 42 {
		t.Errorf("*Ref(42) = %d", *p)
	}
	*p = 7
	if q := ptr.Ref(42); *q != 42 {
		t.Errorf("Ref returned shared storage")
	}
}

func TestDeref(t *testing.T) {
	if got := ptr.Deref[int](nil, 3); got != 3 {
		t.Errorf("Deref(nil, 3) = %d", got)
	}
	if got := ptr.Deref(ptr.Ref(2.5), 0); got != 2.5 {
		t.Errorf("Deref(&2.5, 0) = %v", got)
	}
}
