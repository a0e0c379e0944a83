package validation

import (
	"context"
	"reflect"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/mold/v4"
	"github.com/go-playground/validator/v10"
)

// capitalizedRE accepts words made of one uppercase letter followed by
// lowercase letters, joined by a space or hyphen. Any other separator (an
// apostrophe, for one) fails, so "O'brien" is rejected.
var capitalizedRE = regexp.MustCompile(`^[A-Z][a-z]*(?:[-\s][A-Z][a-z]*)*$`)

// ISO8601Layouts are the date and date-time forms accepted for date fields,
// in both extended and basic notation. Reduced precision dates ("2024",
// "2024-01") and ordinal dates ("2024-032") are included; week dates are not.
var ISO8601Layouts = []string{
	"2006",
	"2006-01",
	"2006-01-02",
	"20060102",
	"2006-002",
	"2006-01-02T15",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04Z07:00",
	"20060102T1504",
	"20060102T150405",
	"20060102T150405Z0700",
	time.RFC3339,
	time.RFC3339Nano,
}

// escaper matches the character set escaped by the form sanitizer in most web
// frameworks, including the forward slash.
var escaper = strings.NewReplacer(
	"&", "&amp;",
	"\"", "&quot;",
	"'", "&#x27;",
	"<", "&lt;",
	">", "&gt;",
	"/", "&#x2F;",
	"\\", "&#x5C;",
	"`", "&#96;",
)

func capitalizedValidator(fl validator.FieldLevel) bool {
	return capitalizedRE.MatchString(fl.Field().String())
}

func iso8601Validator(fl validator.FieldLevel) bool {
	_, ok := ParseDate(fl.Field().String())
	return ok
}

// imprintValidator requires both a publisher name and a date or number.
func imprintValidator(fl validator.FieldLevel) bool {
	var hasLetter, hasDigit bool
	for _, r := range fl.Field().String() {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

func escapeModifier(_ context.Context, fl mold.FieldLevel) error {
	if fl.Field().Kind() == reflect.String {
		fl.Field().SetString(escaper.Replace(fl.Field().String()))
	}
	return nil
}

// ParseDate parses any of the ISO8601Layouts.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range ISO8601Layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
