// ABOUTME: Greeting rule and template merging for outbound email
// ABOUTME: Builds salutations from recipient names, gender and style
package crm

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/harperreed/taxdesk/models"
)

// Style is the greeting register.
type Style string

const (
	StyleCasual Style = "Casual"
	StyleFormal Style = "Formal"
)

// ParseStyle defaults anything other than Formal to Casual.
func ParseStyle(s string) Style {
	if strings.EqualFold(strings.TrimSpace(s), string(StyleFormal)) {
		return StyleFormal
	}
	return StyleCasual
}

// fallbackName stands in for a missing first name.
const fallbackName = "Client"

// CleanName trims and title-cases a name.
func CleanName(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	return cases.Title(language.Und).String(s)
}

// GenerateGreeting returns the salutation line, e.g. "Dear Mr. Smith,".
func GenerateGreeting(style Style, first, last string, gender models.Gender) string {
	first = CleanName(first)
	if first == "" {
		first = fallbackName
	}
	last = CleanName(last)

	if style != StyleFormal {
		return "Hi " + first + ","
	}
	if last == "" {
		return "Dear " + first + ","
	}

	switch gender {
	case models.GenderMale:
		return "Dear Mr. " + last + ","
	case models.GenderFemale:
		return "Dear Ms. " + last + ","
	}
	return "Dear " + first + " " + last + ","
}

// MergeTemplate replaces the {Name} placeholder.
func MergeTemplate(body, firstName string) string {
	name := CleanName(firstName)
	if name == "" {
		name = fallbackName
	}
	return strings.ReplaceAll(body, "{Name}", name)
}
