package inputval

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// phonePattern accepts digits, dashes, parentheses, and a leading plus,
// between 10 and 20 characters total.
var phonePattern = regexp.MustCompile(`^[0-9\-()+]{10,20}$`)

// allowedRoles lists the account roles a signup form may request.
var allowedRoles = []string{"homebuyer", "realtor"}

// IsValidRole reports whether role names a known account role.
// Comparison is case-insensitive and ignores surrounding whitespace.
func IsValidRole(role string) bool {
	role = strings.ToLower(strings.TrimSpace(role))
	for _, allowed := range allowedRoles {
		if role == allowed {
			return true
		}
	}
	return false
}

// AllowedRolesList returns the account roles in display order.
func AllowedRolesList() []string {
	out := make([]string, len(allowedRoles))
	copy(out, allowedRoles)
	return out
}

// IsValidPhone reports whether s looks like a phone number.
func IsValidPhone(s string) bool {
	return phonePattern.MatchString(strings.TrimSpace(s))
}

// IsValidUUID reports whether s parses as a UUID.
func IsValidUUID(s string) bool {
	_, err := uuid.Parse(strings.TrimSpace(s))
	return err == nil
}

// IsValidScore reports whether s is an integer rating from 1 to 5.
func IsValidScore(s string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return n >= 1 && n <= 5
}

// FieldError describes a single validation failure.
type FieldError struct {
	Field   string
	Message string
}

// Result collects validation failures for one form submission.
type Result struct {
	Errors []FieldError
}

// HasErrors reports whether any field failed validation.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// First returns the first field error, or a zero FieldError (empty
// Message) when validation passed.
func (r *Result) First() FieldError {
	if len(r.Errors) == 0 {
		return FieldError{}
	}
	return r.Errors[0]
}

// All joins every error message with "; ".
func (r *Result) All() string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

func (r *Result) add(field, message string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Message: message})
}

// Validate checks the string fields of a struct against the rules in
// their `validate` tags. Supported rules: required, email, phone, role,
// uuid, score, max=N, min=N. The `label` tag supplies the field name
// used in error messages.
//
// Rules other than required are skipped for empty values, so optional
// fields validate only when present.
func Validate(input any) *Result {
	result := &Result{}

	v := reflect.ValueOf(input)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return result
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("validate")
		if tag == "" || field.Type.Kind() != reflect.String {
			continue
		}

		label := field.Tag.Get("label")
		if label == "" {
			label = field.Name
		}

		value := strings.TrimSpace(v.Field(i).String())

		for _, rule := range strings.Split(tag, ",") {
			rule = strings.TrimSpace(rule)
			if msg := checkRule(rule, label, value); msg != "" {
				result.add(field.Name, msg)
				break
			}
		}
	}

	return result
}

func checkRule(rule, label, value string) string {
	switch {
	case rule == "required":
		if value == "" {
			return label + " is required."
		}
	case value == "":
		// Remaining rules apply only to non-empty values.
	case rule == "email":
		if !IsValidEmail(value) {
			return "A valid email address is required."
		}
	case rule == "phone":
		if !IsValidPhone(value) {
			return label + " must be 10 to 20 characters using digits, dashes, parentheses, or a leading plus."
		}
	case rule == "role":
		if !IsValidRole(value) {
			return label + " must be one of: " + strings.Join(AllowedRolesList(), ", ") + "."
		}
	case rule == "uuid":
		if !IsValidUUID(value) {
			return label + " is not a valid identifier."
		}
	case rule == "score":
		if !IsValidScore(value) {
			return label + " must be a whole number from 1 to 5."
		}
	case strings.HasPrefix(rule, "max="):
		n, err := strconv.Atoi(strings.TrimPrefix(rule, "max="))
		if err == nil && len(value) > n {
			return fmt.Sprintf("%s must be at most %d characters.", label, n)
		}
	case strings.HasPrefix(rule, "min="):
		n, err := strconv.Atoi(strings.TrimPrefix(rule, "min="))
		if err == nil && len(value) < n {
			return fmt.Sprintf("%s must be at least %d characters.", label, n)
		}
	}
	return ""
}
