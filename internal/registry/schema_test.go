package registry

import (
	"errors"
	"reflect"
	"testing"
)

type echoArgs struct {
	Text  string `json:"text"`
	Limit int    `json:"limit,omitempty"`
}

type badArgs struct {
	Ch chan int `json:"ch"`
}

type echoOutput struct {
	Reply string `json:"reply"`
}

func TestDeriveInput_RequiredFields(t *testing.T) {
	s, err := deriveInput("echo", reflect.TypeOf(echoArgs{}))
	if err != nil {
		t.Fatalf("deriveInput failed: %v", err)
	}
	if s.Title != "echoArguments" {
		t.Errorf("expected title echoArguments, got %q", s.Title)
	}
	if s.Type != "object" {
		t.Errorf("expected object schema, got %q", s.Type)
	}
	if len(s.Required) != 1 || s.Required[0] != "text" {
		t.Errorf("expected required [text], got %v", s.Required)
	}
	for _, name := range []string{"text", "limit"} {
		if _, ok := s.Properties.Get(name); !ok {
			t.Errorf("expected property %q in schema", name)
		}
	}
}

func TestDeriveInput_NilTypeMeansNoArguments(t *testing.T) {
	s, err := deriveInput("version", nil)
	if err != nil {
		t.Fatalf("deriveInput failed: %v", err)
	}
	if s.Type != "object" {
		t.Errorf("expected object schema, got %q", s.Type)
	}
	if len(s.Required) != 0 {
		t.Errorf("expected no required fields, got %v", s.Required)
	}
}

func TestDeriveInput_PointerStruct(t *testing.T) {
	s, err := deriveInput("echo", reflect.TypeOf(&echoArgs{}))
	if err != nil {
		t.Fatalf("deriveInput failed: %v", err)
	}
	if _, ok := s.Properties.Get("text"); !ok {
		t.Error("expected property text in schema")
	}
}

func TestDeriveInput_NonStructRejected(t *testing.T) {
	_, err := deriveInput("echo", reflect.TypeOf("hello"))
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
}

func TestDeriveInput_UnmappableFieldNamed(t *testing.T) {
	_, err := deriveInput("bad", reflect.TypeOf(badArgs{}))
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if se.Field != "ch" {
		t.Errorf("expected error to name field ch, got %q", se.Field)
	}
}

func TestDeriveOutput(t *testing.T) {
	yes, no := true, false
	tests := []struct {
		name       string
		typ        reflect.Type
		structured *bool
		wantSchema bool
		wantErr    bool
	}{
		{"no result, unspecified", nil, nil, false, false},
		{"no result, explicit true", nil, &yes, false, true},
		{"no result, explicit false", nil, &no, false, false},
		{"struct result, unspecified", reflect.TypeOf(echoOutput{}), nil, true, false},
		{"struct result, explicit false", reflect.TypeOf(echoOutput{}), &no, false, false},
		{"string result, unspecified", reflect.TypeOf(""), nil, true, false},
		{"string result, explicit true", reflect.TypeOf(""), &yes, true, false},
		{"string result, explicit false", reflect.TypeOf(""), &no, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := deriveOutput("echo", tt.typ, tt.structured)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("deriveOutput failed: %v", err)
			}
			if (s != nil) != tt.wantSchema {
				t.Errorf("schema presence = %v, want %v", s != nil, tt.wantSchema)
			}
		})
	}
}

func TestDeriveOutput_StructTitle(t *testing.T) {
	s, err := deriveOutput("echo", reflect.TypeOf(echoOutput{}), nil)
	if err != nil {
		t.Fatalf("deriveOutput failed: %v", err)
	}
	if s.Title != "echoOutput" {
		t.Errorf("expected title echoOutput, got %q", s.Title)
	}
	if _, ok := s.Properties.Get("reply"); !ok {
		t.Error("expected property reply in output schema")
	}
}

func TestDeriveOutput_WrappedScalar(t *testing.T) {
	yes := true
	s, err := deriveOutput("echo", reflect.TypeOf(""), &yes)
	if err != nil {
		t.Fatalf("deriveOutput failed: %v", err)
	}
	inner, ok := s.Properties.Get("result")
	if !ok {
		t.Fatal("expected wrapped result property")
	}
	if inner.Type != "string" {
		t.Errorf("expected string result schema, got %q", inner.Type)
	}
	if len(s.Required) != 1 || s.Required[0] != "result" {
		t.Errorf("expected required [result], got %v", s.Required)
	}
}

func TestDeriveOutput_ScalarWithoutHint(t *testing.T) {
	// A declared result type yields an output schema unless the structured
	// hint is explicitly false; no hint means derive.
	s, err := deriveOutput("echo", reflect.TypeOf(""), nil)
	if err != nil {
		t.Fatalf("deriveOutput failed: %v", err)
	}
	if s == nil {
		t.Fatal("handler declares a string result and no explicit-false hint, expected an output schema")
	}
	inner, ok := s.Properties.Get("result")
	if !ok {
		t.Fatal("expected wrapped result property")
	}
	if inner.Type != "string" {
		t.Errorf("expected string result schema, got %q", inner.Type)
	}
}
