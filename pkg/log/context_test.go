package log

import (
	"context"
	"testing"
)

func TestRunIDFromContext(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		want string
	}{
		{"nil context", nil, ""},
		{"no id", context.Background(), ""},
		{"set", WithRunIDValue(context.Background(), "run-1"), "run-1"},
		{"overwritten", WithRunIDValue(WithRunIDValue(context.Background(), "a"), "b"), "b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RunIDFromContext(tt.ctx); got != tt.want {
				t.Errorf("RunIDFromContext() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWithRunID_GeneratesWhenMissing(t *testing.T) {
	ctx := WithRunID(context.Background())

	if id := RunIDFromContext(ctx); len(id) != 20 {
		t.Errorf("RunIDFromContext() = %q, want a 20 character xid", id)
	}
}

func TestWithRunID_KeepsExisting(t *testing.T) {
	ctx := WithRunID(WithRunIDValue(context.Background(), "outer"))

	if id := RunIDFromContext(ctx); id != "outer" {
		t.Errorf("RunIDFromContext() = %q, want outer", id)
	}
}

func TestNewRunID_IsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewRunID()
		if seen[id] {
			t.Fatalf("duplicate run id %q", id)
		}
		seen[id] = true
	}
}

func TestWithFields_MergesWithoutMutatingParent(t *testing.T) {
	// Arrange
	parent := WithFields(context.Background(), "a", 1)

	// Act
	child := WithFields(parent, "b", 2, "a", 3)

	// Assert
	if f := FieldsFromContext(parent); len(f) != 1 || f["a"] != 1 {
		t.Errorf("parent fields = %v", f)
	}
	if f := FieldsFromContext(child); f["a"] != 3 || f["b"] != 2 {
		t.Errorf("child fields = %v", f)
	}
}

func TestFieldsFromContext_Empty(t *testing.T) {
	if FieldsFromContext(context.Background()) != nil || FieldsFromContext(nil) != nil {
		t.Error("expected nil fields")
	}
}
