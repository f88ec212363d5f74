// ABOUTME: Client and reference sheet search
// ABOUTME: Case-insensitive substring matching with digits-only phone matching
package crm

import (
	"strings"

	"github.com/harperreed/taxdesk/db"
	"github.com/harperreed/taxdesk/models"
)

// minPhoneQueryDigits is the digit count above which a query also matches phones.
const minPhoneQueryDigits = 4

// Search matches name, emails and notes case-insensitively, and the phone
// when the query carries more than four digits. Table order is kept.
func Search(clients []models.Client, query string) []models.Client {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	needle := strings.ToLower(query)
	digits := NormalizePhone(query)
	matchPhone := len(digits) > minPhoneQueryDigits

	var out []models.Client
	for _, c := range clients {
		if containsFold(c.Name, needle) ||
			containsFold(c.Email, needle) ||
			containsFold(c.SpouseEmail, needle) ||
			containsFold(c.Notes, needle) ||
			(matchPhone && strings.Contains(NormalizePhone(c.Phone), digits)) {
			out = append(out, c)
		}
	}
	return out
}

func containsFold(haystack, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(haystack), lowerNeedle)
}

// SearchReference matches the query against every column of the reference
// sheet, with the same phone rule as Search.
func SearchReference(ref *db.Table, query string) []db.Record {
	query = strings.TrimSpace(query)
	if ref == nil || query == "" {
		return nil
	}

	needle := strings.ToLower(query)
	digits := NormalizePhone(query)
	matchPhone := len(digits) > minPhoneQueryDigits

	var out []db.Record
	for _, rec := range ref.Records {
		for _, col := range ref.Columns {
			v := rec[col]
			if containsFold(v, needle) || (matchPhone && strings.Contains(NormalizePhone(v), digits)) {
				out = append(out, rec)
				break
			}
		}
	}
	return out
}

// FormatReference renders a reference row as "a | b | c", skipping blanks.
func FormatReference(ref *db.Table, rec db.Record) string {
	var parts []string
	for _, col := range ref.Columns {
		if v := strings.TrimSpace(rec[col]); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " | ")
}

// SuggestPhone looks up a phone for a client whose own phone is missing or
// too short, by matching the client's name tokens against the reference
// sheet's name column.
func SuggestPhone(ref *db.Table, cols db.ReferenceColumns, c models.Client) (string, bool) {
	if ref == nil || len(strings.TrimSpace(c.Phone)) >= 5 {
		return "", false
	}
	if !ref.HasColumn(cols.Name) || !ref.HasColumn(cols.Phone) {
		return "", false
	}

	tokens := nameTokens(c)
	if len(tokens) == 0 {
		return "", false
	}

	for _, rec := range ref.Records {
		phone := strings.TrimSpace(rec[cols.Phone])
		if !HasPhone(phone) {
			continue
		}
		refName := strings.ToLower(rec[cols.Name])
		if matchesAll(refName, tokens) {
			return phone, true
		}
	}
	return "", false
}

func nameTokens(c models.Client) []string {
	var raw []string
	if c.FirstName != "" || c.LastName != "" {
		raw = []string{c.FirstName, c.LastName}
	} else {
		raw = strings.FieldsFunc(c.Name, func(r rune) bool { return r == ' ' || r == ',' || r == '&' })
	}

	var tokens []string
	for _, t := range raw {
		t = strings.ToLower(strings.TrimSpace(t))
		// Initials and blanks are too weak to match on.
		if len(t) > 1 {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

func matchesAll(s string, tokens []string) bool {
	for _, t := range tokens {
		if !strings.Contains(s, t) {
			return false
		}
	}
	return true
}
