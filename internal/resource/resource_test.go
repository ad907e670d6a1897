package resource

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/debemdeboas/stylus/internal/apperror"
)

func describe(r Resource[string]) string {
	return Match(r, Cases[string, string]{
		Empty:   func() string { return "nothing yet" },
		Loading: func() string { return "working" },
		Success: func(s string) string { return "got " + s },
		Error:   func(msg string) string { return "failed: " + msg },
	})
}

func TestMatch(t *testing.T) {
	testCases := []struct {
		name     string
		res      Resource[string]
		expected string
	}{
		{"zero value is empty", Resource[string]{}, "nothing yet"},
		{"empty", Empty[string](), "nothing yet"},
		{"loading", Loading[string](), "working"},
		{"success", Success("Hello world."), "got Hello world."},
		{"error", Error[string]("Text too long"), "failed: Text too long"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := describe(tc.res); got != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestMatchPanicsOnMissingHandler(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for a missing Error handler")
		}
	}()

	Match(Error[int]("boom"), Cases[int, bool]{
		Empty:   func() bool { return false },
		Loading: func() bool { return false },
		Success: func(int) bool { return true },
	})
}

func TestAccessors(t *testing.T) {
	ok := Success(42)
	if v, found := ok.Data(); !found || v != 42 {
		t.Errorf("Expected data 42, got %d (found=%v)", v, found)
	}
	if _, found := ok.Message(); found {
		t.Error("Success resource should not have a message")
	}

	failed := Error[int]("Empty response from server")
	if _, found := failed.Data(); found {
		t.Error("Error resource should not have data")
	}
	if msg, found := failed.Message(); !found || msg != "Empty response from server" {
		t.Errorf("Unexpected message %q", msg)
	}
	if !failed.IsError() || failed.IsSuccess() || failed.IsLoading() || failed.IsEmpty() {
		t.Error("Exactly one status predicate should hold")
	}
}

func TestFromError(t *testing.T) {
	r := FromError[string](apperror.Transport(errors.New("timeout"), "Network error: timeout"))
	if msg, _ := r.Message(); msg != "Network error: timeout" {
		t.Errorf("Expected display message, got %q", msg)
	}
}

func TestMarshalJSON(t *testing.T) {
	t.Run("Success carries data", func(t *testing.T) {
		b, err := json.Marshal(Success([]string{"a"}))
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		if string(b) != `{"status":"success","data":["a"]}` {
			t.Errorf("Unexpected JSON %s", b)
		}
	})

	t.Run("Error carries message", func(t *testing.T) {
		b, err := json.Marshal(Error[int]("Text too long"))
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		if string(b) != `{"status":"error","message":"Text too long"}` {
			t.Errorf("Unexpected JSON %s", b)
		}
	})

	t.Run("Unknown status is rejected", func(t *testing.T) {
		var r Resource[int]
		if err := json.Unmarshal([]byte(`{"status":"done"}`), &r); err == nil {
			t.Error("Expected error for unknown status")
		}
	})
}
