// Package validate provides struct-tag validation.
//
// Supported rules (comma-separated in the `validate` tag):
//
//	required            field must not be zero/empty
//	nullable            if empty, skip all remaining rules for this field
//	email               valid email address
//	min=N               string: min char length | number: min value
//	max=N               string: max char length | number: max value
//	gt=N                number > N
//	gte=N               number >= N
//	lte=N               number <= N
//	between=lo:hi       number between lo and hi (inclusive)
//	in=a|b|c            value must be one of the listed items
//	integer             whole number
//	objectid            24-char hex document id
//
// Example:
//
//	type Input struct {
//	    Name  string  `json:"name"  validate:"required,min=2,max=100"`
//	    Email string  `json:"email" validate:"required,email"`
//	    Price float64 `json:"price" validate:"required,gt=0"`
//	}
//
// Struct returns a map of fieldName → message covering EVERY failing field,
// so a response can enumerate all violations at once.
package validate

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

var (
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	objectIDRe = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)
)

// Struct validates all exported fields of v that carry a `validate` tag.
// Returns a map of fieldName → error message; empty map means no errors.
func Struct(v interface{}) map[string]string {
	errs := make(map[string]string)
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return errs
	}
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		value := rv.Field(i)

		tag := field.Tag.Get("validate")
		if tag == "" {
			continue
		}

		name := jsonFieldName(field)
		rules := strings.Split(tag, ",")

		// If `nullable` is present and the field is empty — skip all rules.
		if hasRule(rules, "nullable") && isEmpty(value) {
			continue
		}

		for _, rule := range rules {
			rule = strings.TrimSpace(rule)
			if rule == "" || rule == "nullable" {
				continue
			}
			if msg := applyRule(rule, name, value); msg != "" {
				errs[name] = msg
				break // first failing rule per field
			}
		}
	}

	return errs
}

// HasErrors returns true when the errs map is non-empty.
func HasErrors(errs map[string]string) bool { return len(errs) > 0 }

func applyRule(rule, field string, v reflect.Value) string {
	key, param, _ := strings.Cut(rule, "=")

	switch key {
	case "required":
		if isEmpty(v) {
			return fmt.Sprintf("The %s field is required.", field)
		}

	case "email":
		if !emailRe.MatchString(asString(v)) {
			return fmt.Sprintf("The %s field must be a valid email address.", field)
		}

	case "objectid":
		if !objectIDRe.MatchString(asString(v)) {
			return fmt.Sprintf("The %s field must be a valid document id.", field)
		}

	case "integer":
		switch v.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		case reflect.Float32, reflect.Float64:
			if v.Float() != float64(int64(v.Float())) {
				return fmt.Sprintf("The %s field must be an integer.", field)
			}
		default:
			if _, err := strconv.ParseInt(asString(v), 10, 64); err != nil {
				return fmt.Sprintf("The %s field must be an integer.", field)
			}
		}

	case "min":
		limit, _ := strconv.ParseFloat(param, 64)
		if n, ok := asNumber(v); ok {
			if n < limit {
				return fmt.Sprintf("The %s field must be at least %s.", field, param)
			}
		} else if float64(len(asString(v))) < limit {
			return fmt.Sprintf("The %s field must be at least %s characters.", field, param)
		}

	case "max":
		limit, _ := strconv.ParseFloat(param, 64)
		if n, ok := asNumber(v); ok {
			if n > limit {
				return fmt.Sprintf("The %s field must not be greater than %s.", field, param)
			}
		} else if float64(len(asString(v))) > limit {
			return fmt.Sprintf("The %s field must not exceed %s characters.", field, param)
		}

	case "gt":
		limit, _ := strconv.ParseFloat(param, 64)
		if n, ok := asNumber(v); !ok || n <= limit {
			return fmt.Sprintf("The %s field must be greater than %s.", field, param)
		}

	case "gte":
		limit, _ := strconv.ParseFloat(param, 64)
		if n, ok := asNumber(v); !ok || n < limit {
			return fmt.Sprintf("The %s field must be at least %s.", field, param)
		}

	case "lte":
		limit, _ := strconv.ParseFloat(param, 64)
		if n, ok := asNumber(v); !ok || n > limit {
			return fmt.Sprintf("The %s field must not be greater than %s.", field, param)
		}

	case "between":
		lo, hi, ok := strings.Cut(param, ":")
		if !ok {
			lo, hi, _ = strings.Cut(param, "|")
		}
		low, _ := strconv.ParseFloat(lo, 64)
		high, _ := strconv.ParseFloat(hi, 64)
		if n, numOK := asNumber(v); !numOK || n < low || n > high {
			return fmt.Sprintf("The %s field must be between %s and %s.", field, lo, hi)
		}

	case "in":
		items := strings.Split(param, "|")
		raw := asString(v)
		for _, item := range items {
			if raw == item {
				return ""
			}
		}
		return fmt.Sprintf("The %s field must be one of: %s.", field, strings.Join(items, ", "))
	}

	return ""
}

func hasRule(rules []string, name string) bool {
	for _, r := range rules {
		if strings.TrimSpace(r) == name {
			return true
		}
	}
	return false
}

func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	default:
		return v.IsZero()
	}
}

func asString(v reflect.Value) string {
	if v.Kind() == reflect.String {
		return v.String()
	}
	return fmt.Sprintf("%v", v.Interface())
}

func asNumber(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	}
	return 0, false
}

// jsonFieldName resolves the reported field name from the json tag,
// falling back to the Go field name.
func jsonFieldName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" || tag == "-" {
		return f.Name
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return f.Name
	}
	return name
}
