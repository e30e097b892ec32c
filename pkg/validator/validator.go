package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// FieldError describes the first rule a struct field violated
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + " " + e.Message
}

// ValidateStruct validates a struct based on validate tags.
// Supported rules: required, email, min=N, max=N, oneof=a b c.
// Field names in errors use the json tag when present.
func ValidateStruct(s any) error {
	v := reflect.ValueOf(s)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return errors.New("not a struct")
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("validate")
		if tag == "" {
			continue
		}

		name := fieldName(field)
		for _, rule := range strings.Split(tag, ",") {
			if msg := checkRule(v.Field(i), rule); msg != "" {
				return &FieldError{Field: name, Message: msg}
			}
		}
	}

	return nil
}

func fieldName(field reflect.StructField) string {
	if tag := field.Tag.Get("json"); tag != "" {
		if name, _, _ := strings.Cut(tag, ","); name != "" && name != "-" {
			return name
		}
	}
	return field.Name
}

// checkRule returns a message when value violates rule, "" otherwise
func checkRule(value reflect.Value, rule string) string {
	name, arg, _ := strings.Cut(rule, "=")
	switch name {
	case "required":
		if isZero(value) {
			return "is required"
		}
	case "email":
		if value.Kind() == reflect.String && value.String() != "" {
			if err := ValidateEmail(value.String()); err != nil {
				return "must be a valid email"
			}
		}
	case "min", "max":
		limit, err := strconv.Atoi(arg)
		if err != nil {
			return ""
		}
		n, ok := length(value)
		if !ok {
			return ""
		}
		if name == "min" && n < limit {
			return fmt.Sprintf("must have at least %d %s", limit, unit(value))
		}
		if name == "max" && n > limit {
			return fmt.Sprintf("must have at most %d %s", limit, unit(value))
		}
	case "oneof":
		if value.Kind() == reflect.String && value.String() != "" {
			allowed := strings.Fields(arg)
			if !slices.Contains(allowed, value.String()) {
				return "must be one of: " + strings.Join(allowed, ", ")
			}
		}
	}
	return ""
}

func length(v reflect.Value) (int, bool) {
	switch v.Kind() {
	case reflect.String:
		return len([]rune(strings.TrimSpace(v.String()))), true
	case reflect.Slice, reflect.Array, reflect.Map:
		return v.Len(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(v.Int()), true
	default:
		return 0, false
	}
}

func unit(v reflect.Value) string {
	switch v.Kind() {
	case reflect.String:
		return "characters"
	case reflect.Slice, reflect.Array, reflect.Map:
		return "items"
	default:
		return ""
	}
}

// isZero checks if a value is zero/empty. Whitespace-only strings count as empty.
func isZero(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	case reflect.Struct:
		return v.IsZero()
	default:
		return false
	}
}

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	if !emailRegex.MatchString(email) {
		return errors.New("invalid email format")
	}
	return nil
}

// ValidateRequired validates that a field is not empty
func ValidateRequired(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

// SanitizeString sanitizes a string by removing potentially dangerous characters
func SanitizeString(s string) string {
	// Remove null bytes
	s = strings.ReplaceAll(s, "\x00", "")
	// Trim whitespace
	s = strings.TrimSpace(s)
	return s
}

// SanitizeEmail sanitizes an email address
func SanitizeEmail(email string) string {
	email = SanitizeString(email)
	email = strings.ToLower(email)
	return email
}
