package mutation

import (
	"strings"

	"github.com/locallibrary/catalog/pkg/models"
	"github.com/locallibrary/catalog/pkg/validation"
)

const capitalizationMessage = "The first character of %s must be capitalized, as well as the first character after a space or hyphen"

func capitalized(what string) validation.Rule {
	return validation.Rule{
		Tag:     "capitalized",
		Message: strings.Replace(capitalizationMessage, "%s", what, 1),
		Suggest: validation.FormatName,
	}
}

var authorRules = validation.RuleSet{
	{
		Name:   "first_name",
		Mods:   "trim",
		Escape: true,
		Rules: []validation.Rule{
			{Tag: "min=1", Message: "First name must be specified."},
			{Tag: "max=100", Message: "First name must be at most 100 characters."},
			capitalized("a first name"),
		},
	},
	{
		Name:   "family_name",
		Mods:   "trim",
		Escape: true,
		Rules: []validation.Rule{
			{Tag: "min=1", Message: "Family name must be specified."},
			{Tag: "max=100", Message: "Family name must be at most 100 characters."},
			capitalized("a family name"),
		},
	},
	{
		Name:     "date_of_birth",
		Mods:     "trim",
		Optional: true,
		Rules:    []validation.Rule{{Tag: "iso8601", Message: "Invalid date of birth"}},
	},
	{
		Name:     "date_of_death",
		Mods:     "trim",
		Optional: true,
		Rules:    []validation.Rule{{Tag: "iso8601", Message: "Invalid date of death"}},
	},
}

var genreRules = validation.RuleSet{
	{
		Name:   "name",
		Mods:   "trim",
		Escape: true,
		Rules: []validation.Rule{
			{Tag: "min=3", Message: "Genre name must be at least 3 characters"},
			capitalized("a genre name"),
		},
	},
}

var bookRules = validation.RuleSet{
	{
		Name:   "title",
		Mods:   "trim",
		Escape: true,
		Rules:  []validation.Rule{{Tag: "min=1", Message: "Title must not be empty."}},
	},
	{
		Name:   "author",
		Mods:   "trim",
		Escape: true,
		Rules: []validation.Rule{
			{Tag: "min=1", Message: "Author must not be empty."},
			{Tag: "omitempty,number", Message: "Author must reference an existing author."},
		},
	},
	{
		Name:   "summary",
		Mods:   "trim",
		Escape: true,
		Rules:  []validation.Rule{{Tag: "min=1", Message: "Summary must not be empty."}},
	},
	{
		Name:   "isbn",
		Mods:   "trim",
		Escape: true,
		Rules:  []validation.Rule{{Tag: "min=2", Message: "ISBN must not be empty"}},
	},
	{
		Name:   "genre",
		List:   true,
		Escape: true,
		Rules:  []validation.Rule{{Tag: "number", Message: "Genre must reference an existing genre."}},
	},
}

var bookInstanceRules = validation.RuleSet{
	{
		Name:   "book",
		Mods:   "trim",
		Escape: true,
		Rules: []validation.Rule{
			{Tag: "min=1", Message: "Book must be specified"},
			{Tag: "omitempty,number", Message: "Book must reference an existing book."},
		},
	},
	{
		Name:   "imprint",
		Mods:   "trim",
		Escape: true,
		Rules: []validation.Rule{
			{Tag: "min=2", Message: "Imprint must be specified"},
			{Tag: "imprint", Message: "Imprint must contain the publisher name and date"},
		},
	},
	{
		Name:     "status",
		Mods:     "trim",
		Optional: true,
		Escape:   true,
		Rules: []validation.Rule{{
			Tag:     "oneof=" + strings.Join(models.BookInstanceStatuses, " "),
			Message: "Status must be one of " + strings.Join(models.BookInstanceStatuses, ", "),
		}},
	},
	{
		Name:     "due_back",
		Mods:     "trim",
		Optional: true,
		Rules:    []validation.Rule{{Tag: "iso8601", Message: "Invalid date"}},
	},
}

// Rules returns the rule set for kind.
func Rules(kind Kind) (validation.RuleSet, error) {
	switch kind {
	case KindAuthor:
		return authorRules, nil
	case KindGenre:
		return genreRules, nil
	case KindBook:
		return bookRules, nil
	case KindBookInstance:
		return bookInstanceRules, nil
	}
	return nil, ErrUnknownKind
}
