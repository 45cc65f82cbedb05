package validator

import (
	"fmt"
	"slices"
	"strings"
)

func newError(field, message, key string, values map[string]any) ValidationError {
	if values == nil {
		values = map[string]any{}
	}
	values["field"] = field
	return ValidationError{Field: field, Message: message, TranslationKey: key, TranslationValues: values}
}

// RequiredString fails for empty or whitespace-only values.
func RequiredString(field, value string) Rule {
	return Rule{
		Check: func() bool { return strings.TrimSpace(value) != "" },
		Error: newError(field, "field is required", "validation.required", nil),
	}
}

// MaxLenString fails when value is longer than max bytes.
func MaxLenString(field, value string, max int) Rule {
	return Rule{
		Check: func() bool { return len(value) <= max },
		Error: newError(field, fmt.Sprintf("must be at most %d characters long", max),
			"validation.max_length", map[string]any{"max": max}),
	}
}

// RequiredComparable fails for the zero value of T.
func RequiredComparable[T comparable](field string, value T) Rule {
	var zero T
	return Rule{
		Check: func() bool { return value != zero },
		Error: newError(field, "field is required", "validation.required", nil),
	}
}

// RequiredSlice fails for nil or empty slices.
func RequiredSlice[T any](field string, value []T) Rule {
	return Rule{
		Check: func() bool { return len(value) > 0 },
		Error: newError(field, "field is required", "validation.required", nil),
	}
}

// NoBlankStrings fails when any element is empty or whitespace-only.
func NoBlankStrings(field string, values []string) Rule {
	return Rule{
		Check: func() bool {
			return !slices.ContainsFunc(values, func(v string) bool { return strings.TrimSpace(v) == "" })
		},
		Error: newError(field, "must not contain empty values", "validation.no_blank", nil),
	}
}

// InListString fails unless value equals one of allowed.
func InListString(field, value string, allowed []string) Rule {
	return Rule{
		Check: func() bool { return slices.Contains(allowed, value) },
		Error: newError(field, fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
			"validation.in_list", map[string]any{"allowed_values": allowed}),
	}
}
