package validator

import (
	"errors"
	"testing"
	"time"
)

func TestValidateStruct(t *testing.T) {
	type TestStruct struct {
		Email     string    `json:"email" validate:"required,email"`
		Name      string    `json:"name" validate:"required,max=20"`
		Role      string    `json:"role" validate:"required,oneof=employee team_leader admin"`
		Questions []string  `json:"questions" validate:"min=1"`
		DueDate   time.Time `json:"dueDate" validate:"required"`
	}

	valid := TestStruct{
		Email:     "test@example.com",
		Name:      "John Doe",
		Role:      "admin",
		Questions: []string{"q"},
		DueDate:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name      string
		mutate    func(*TestStruct)
		wantField string
	}{
		{name: "valid struct", mutate: func(*TestStruct) {}},
		{name: "blank name", mutate: func(s *TestStruct) { s.Name = "   " }, wantField: "name"},
		{name: "name too long", mutate: func(s *TestStruct) { s.Name = "abcdefghijklmnopqrstuvwxyz" }, wantField: "name"},
		{name: "invalid email", mutate: func(s *TestStruct) { s.Email = "invalid-email" }, wantField: "email"},
		{name: "unknown role", mutate: func(s *TestStruct) { s.Role = "owner" }, wantField: "role"},
		{name: "no questions", mutate: func(s *TestStruct) { s.Questions = nil }, wantField: "questions"},
		{name: "zero due date", mutate: func(s *TestStruct) { s.DueDate = time.Time{} }, wantField: "dueDate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := valid
			tt.mutate(&input)

			err := ValidateStruct(&input)
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("ValidateStruct() unexpected error = %v", err)
				}
				return
			}

			var fieldErr *FieldError
			if !errors.As(err, &fieldErr) {
				t.Fatalf("ValidateStruct() error = %v, want *FieldError", err)
			}
			if fieldErr.Field != tt.wantField {
				t.Errorf("ValidateStruct() field = %q, want %q", fieldErr.Field, tt.wantField)
			}
		})
	}
}

func TestValidateStructRejectsNonStruct(t *testing.T) {
	if err := ValidateStruct("text"); err == nil {
		t.Error("expected error for non-struct input")
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email   string
		wantErr bool
	}{
		{"user@example.com", false},
		{"first.last+tag@sub.example.org", false},
		{"", true},
		{"no-at-sign", true},
		{"user@host", true},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeEmail(t *testing.T) {
	if got := SanitizeEmail("  Jane.Doe@Example.COM\x00 "); got != "jane.doe@example.com" {
		t.Errorf("SanitizeEmail() = %q", got)
	}
}
