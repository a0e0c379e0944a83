// Package validation checks and normalizes raw form fields against
// declarative per-field rules. Every rule of every field is evaluated, so a
// caller always gets the complete list of problems in declaration order.
package validation

import (
	"context"
	"net/url"
	"strings"

	"github.com/go-playground/mold/v4"
	"github.com/go-playground/mold/v4/modifiers"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// Failure is a single violated rule.
type Failure struct {
	Field      string `json:"field"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Rule is one check on a field. Tag is a validator tag evaluated against the
// normalized value, e.g. "min=3" or "capitalized".
type Rule struct {
	Tag     string
	Message string
	// Suggest, when set, proposes a corrected value for a failing input.
	Suggest func(string) string
}

// Field declares how one form field is normalized and checked.
type Field struct {
	Name string
	// Mods are mold modifiers applied before the rules run.
	Mods string
	// Optional fields skip their rules when the value is empty.
	Optional bool
	// List fields accept zero or more values.
	List bool
	// Escape HTML-escapes the stored value once the rules have run.
	Escape bool
	Rules  []Rule
}

// RuleSet is the ordered field list for one entity kind.
type RuleSet []Field

// Values holds normalized field values keyed by field name.
type Values map[string][]string

// Get returns the first value for name, or "".
func (v Values) Get(name string) string {
	if vs := v[name]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// List returns every value for name. It is never nil for a list field that
// went through Validate.
func (v Values) List(name string) []string {
	return v[name]
}

type Validator struct {
	conform  *mold.Transformer
	validate *validator.Validate
}

func New() *Validator {
	conform := modifiers.New()
	conform.Register("htmlescape", escapeModifier)

	validate := validator.New()
	_ = validate.RegisterValidation("capitalized", capitalizedValidator)
	_ = validate.RegisterValidation("iso8601", iso8601Validator)
	_ = validate.RegisterValidation("imprint", imprintValidator)

	return &Validator{conform: conform, validate: validate}
}

// Validate normalizes raw against rules. The returned Values always contain
// an entry for every declared field.
func (v *Validator) Validate(ctx context.Context, rules RuleSet, raw url.Values) (Values, []Failure, error) {
	values := Values{}
	failures := []Failure{}

	for _, field := range rules {
		items := NormalizeList(raw, field.Name)
		if !field.List {
			single := ""
			if len(items) > 0 {
				single = items[0]
			}
			items = []string{single}
		}

		for i := range items {
			if field.Mods == "" {
				continue
			}
			if err := v.conform.Field(ctx, &items[i], field.Mods); err != nil {
				return nil, nil, errors.WithStack(err)
			}
		}

		for _, rule := range field.Rules {
			failed, err := v.check(items, field, rule)
			if err != nil {
				return nil, nil, err
			}
			if failed == nil {
				continue
			}
			f := Failure{Field: field.Name, Message: rule.Message}
			if rule.Suggest != nil {
				f.Suggestion = rule.Suggest(*failed)
			}
			failures = append(failures, f)
		}

		if field.Escape {
			for i := range items {
				if err := v.conform.Field(ctx, &items[i], "htmlescape"); err != nil {
					return nil, nil, errors.WithStack(err)
				}
			}
		}

		values[field.Name] = items
	}

	return values, failures, nil
}

// check returns the first value that fails rule, or nil when all pass.
func (v *Validator) check(items []string, field Field, rule Rule) (*string, error) {
	for i := range items {
		if field.Optional && items[i] == "" {
			continue
		}
		err := v.validate.Var(items[i], rule.Tag)
		if err == nil {
			continue
		}
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, errors.WithStack(err)
		}
		return &items[i], nil
	}
	return nil, nil
}

// NormalizeList turns an absent, single, or repeated form value into an
// explicit slice. Absent values become an empty, non-nil slice.
func NormalizeList(raw url.Values, name string) []string {
	vs, ok := raw[name]
	if !ok {
		return []string{}
	}
	out := make([]string, len(vs))
	copy(out, vs)
	return out
}

// FormatName capitalizes the first letter of every space separated word and
// lowercases the rest.
func FormatName(s string) string {
	words := strings.Split(s, " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		r := []rune(strings.ToLower(w))
		words[i] = strings.ToUpper(string(r[0])) + string(r[1:])
	}
	return strings.Join(words, " ")
}
