package errors

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNewMonomorphize(t *testing.T) {
	err := NewMonomorphize("N#42", MONO001, "arity escaped emission", nil)

	if err.Schema != ErrorSchema {
		t.Errorf("expected schema %s, got %s", ErrorSchema, err.Schema)
	}
	if err.Phase != "monomorphize" {
		t.Errorf("expected phase monomorphize, got %s", err.Phase)
	}
	if err.Code != MONO001 {
		t.Errorf("expected code %s, got %s", MONO001, err.Code)
	}
	if err.SID != "N#42" {
		t.Errorf("expected SID N#42, got %s", err.SID)
	}

	err2 := NewMonomorphize("", MONO002, "residual EOp", nil)
	if err2.SID != "unknown" {
		t.Errorf("expected SID unknown for empty input, got %s", err2.SID)
	}
}

func TestWithFix(t *testing.T) {
	err := NewMonomorphize("N#1", WARN001, "not fully type-applied", nil)
	err = err.WithFix("supply all type arguments", 0.9)

	if err.Fix.Suggestion != "supply all type arguments" {
		t.Errorf("expected fix suggestion, got %s", err.Fix.Suggestion)
	}
	if err.Fix.Confidence != 0.9 {
		t.Errorf("expected confidence 0.9, got %f", err.Fix.Confidence)
	}
}

func TestWithSourceSpan(t *testing.T) {
	err := NewMonomorphize("N#2", WARN003, "unrecognized head", nil)
	err = err.WithSourceSpan("main.ail:10:5")

	if err.SourceSpan != "main.ail:10:5" {
		t.Errorf("expected source span main.ail:10:5, got %s", err.SourceSpan)
	}
}

func TestWithMeta(t *testing.T) {
	meta := map[string]string{
		"hint":     "check the excluded-files build config",
		"severity": "warning",
	}

	err := NewMonomorphize("N#3", WARN002, "declaration dropped", nil)
	err = err.WithMeta(meta)

	if err.Meta == nil {
		t.Error("expected meta to be set")
	}
}

func TestToJSON(t *testing.T) {
	ctx := ErrorContext{
		Constraints: []string{"type-arity(id) = 1"},
		Decisions:   []string{"left ETApp unchanged"},
	}

	err := NewMonomorphize("N#42", WARN001, "id is not fully type-applied", ctx).
		WithFix("apply id at a concrete type", 0.85).
		WithSourceSpan("test.ail:5:10")

	jsonData, jsonErr := err.ToJSON()
	if jsonErr != nil {
		t.Fatalf("ToJSON failed: %v", jsonErr)
	}

	var result map[string]interface{}
	if parseErr := json.Unmarshal(jsonData, &result); parseErr != nil {
		t.Fatalf("failed to parse JSON: %v", parseErr)
	}

	if result["schema"] != ErrorSchema {
		t.Errorf("expected schema %s, got %v", ErrorSchema, result["schema"])
	}
	if result["phase"] != "monomorphize" {
		t.Errorf("expected phase monomorphize, got %v", result["phase"])
	}
	if result["code"] != WARN001 {
		t.Errorf("expected code %s, got %v", WARN001, result["code"])
	}
	if _, ok := result["fix"]; !ok {
		t.Error("fix field should always be present")
	}
}

func TestSafeEncodeError(t *testing.T) {
	result := SafeEncodeError(nil, "monomorphize")
	if result != nil {
		t.Error("expected nil for nil error")
	}

	testErr := &testError{msg: "test error"}
	result = SafeEncodeError(testErr, "monomorphize")

	var parsed map[string]interface{}
	if err := json.Unmarshal(result, &parsed); err != nil {
		t.Fatalf("failed to parse result: %v", err)
	}

	if parsed["phase"] != "monomorphize" {
		t.Errorf("expected phase monomorphize, got %v", parsed["phase"])
	}
	if !strings.Contains(parsed["message"].(string), "test error") {
		t.Errorf("expected message to contain 'test error', got %v", parsed["message"])
	}
}

func TestFormatSourceSpan(t *testing.T) {
	tests := []struct {
		file     string
		line     int
		col      int
		expected string
	}{
		{"main.ail", 10, 5, "main.ail:10:5"},
		{"test.ail", 1, 1, "test.ail:1:1"},
		{"/path/to/file.ail", 100, 25, "/path/to/file.ail:100:25"},
	}

	for _, tt := range tests {
		result := FormatSourceSpan(tt.file, tt.line, tt.col)
		if result != tt.expected {
			t.Errorf("FormatSourceSpan(%s, %d, %d) = %s, want %s",
				tt.file, tt.line, tt.col, result, tt.expected)
		}
	}
}

func TestErrorCodeTaxonomyPrefixes(t *testing.T) {
	fatalCodes := []string{MONO001, MONO002, MONO003, MONO004, MONO005, MONO006}
	for _, code := range fatalCodes {
		if !strings.HasPrefix(code, "MONO") {
			t.Errorf("fatal code %s should start with MONO", code)
		}
	}

	warnCodes := []string{WARN001, WARN002, WARN003}
	for _, code := range warnCodes {
		if !strings.HasPrefix(code, "WARN") {
			t.Errorf("warning code %s should start with WARN", code)
		}
	}
}

// Helper type for testing
type testError struct {
	msg string
}

func (e *testError) Error() string {
	return e.msg
}
