package error

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew_FieldsAndStack(t *testing.T) {
	err := New(ErrCategoryUser, CodeDuplicateKey, "duplicate key")

	if err.Code != CodeDuplicateKey {
		t.Errorf("Code = %s, want %s", err.Code, CodeDuplicateKey)
	}
	if err.Category != ErrCategoryUser {
		t.Errorf("Category = %v, want user", err.Category)
	}
	if len(err.Stack) == 0 {
		t.Error("expected a captured stack")
	}
	if !strings.HasPrefix(err.FormatStack(), "Stack trace:") {
		t.Errorf("unexpected stack format: %q", err.FormatStack())
	}
}

func TestError_Format(t *testing.T) {
	err := Newf(ErrCategorySystem, CodeIOError, "write failed", "page %d", 3).
		WithContext("Flush", "Pager")
	err.Cause = fmt.Errorf("disk gone")

	want := "[IO_ERROR] write failed: page 3 (operation: Flush, component: Pager) caused by: disk gone"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q\nwant %q", got, want)
	}
}

func TestIs_MatchesByCode(t *testing.T) {
	err := New(ErrCategoryCapacity, CodeTableFull, "table full").WithDetail("need %d pages", 2)
	wrapped := fmt.Errorf("insert: %w", err)

	if !errors.Is(wrapped, ErrTableFull) {
		t.Error("expected errors.Is to match ErrTableFull")
	}
	if errors.Is(wrapped, ErrDuplicateKey) {
		t.Error("TABLE_FULL must not match DUPLICATE_KEY")
	}
}

func TestWrap(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		if Wrap(nil, CodeIOError, "op", "comp") != nil {
			t.Error("Wrap(nil) should be nil")
		}
	})

	t.Run("plain error becomes DBError", func(t *testing.T) {
		cause := errors.New("short write")
		err := Wrap(cause, CodeIOError, "Flush", "Pager")
		if err.Category != ErrCategorySystem {
			t.Errorf("Category = %v, want system", err.Category)
		}
		if !errors.Is(err, cause) {
			t.Error("cause should be reachable through Unwrap")
		}
		if !errors.Is(err, ErrIO) {
			t.Error("expected IO_ERROR code")
		}
	})

	t.Run("existing DBError is enriched not replaced", func(t *testing.T) {
		orig := New(ErrCategoryData, CodeCorruptNode, "bad node")
		err := Wrap(orig, CodeIOError, "GetPage", "Pager")
		if err != orig {
			t.Fatal("expected the same DBError back")
		}
		if err.Code != CodeCorruptNode {
			t.Errorf("code changed to %s", err.Code)
		}
		if err.Operation != "GetPage" || err.Component != "Pager" {
			t.Errorf("context not filled: %s/%s", err.Operation, err.Component)
		}
	})
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"duplicate", New(ErrCategoryUser, CodeDuplicateKey, "dup"), false},
		{"table full", New(ErrCategoryCapacity, CodeTableFull, "full"), false},
		{"io", New(ErrCategorySystem, CodeIOError, "io"), true},
		{"corrupt", New(ErrCategoryData, CodeCorruptFile, "corrupt"), true},
		{"foreign error", errors.New("boom"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFatal(tt.err); got != tt.want {
				t.Errorf("IsFatal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(ErrCategoryUser, CodeNegativeKey, "negative"))
	if GetCode(err) != CodeNegativeKey {
		t.Errorf("GetCode = %q", GetCode(err))
	}
	if GetCode(errors.New("x")) != "" {
		t.Error("non-DBError should have empty code")
	}
}
