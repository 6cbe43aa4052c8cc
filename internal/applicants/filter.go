package applicants

import "strings"

// Matches reports whether a passes the status filter and the search term.
// status is a Status name or "ALL"; the term is matched case-insensitively
// against "first last" followed directly by the position.
func Matches(a Applicant, status, term string) bool {
	status = strings.ToUpper(strings.TrimSpace(status))
	if status != "" && status != StatusAll && string(a.Status) != status {
		return false
	}
	if term == "" {
		return true
	}
	haystack := strings.ToLower(a.FirstName + " " + a.LastName + a.Position)
	return strings.Contains(haystack, strings.ToLower(term))
}

// Filter returns the applicants matching both predicates, preserving order.
func Filter(list []Applicant, status, term string) []Applicant {
	out := make([]Applicant, 0, len(list))
	for _, a := range list {
		if Matches(a, status, term) {
			out = append(out, a)
		}
	}
	return out
}
