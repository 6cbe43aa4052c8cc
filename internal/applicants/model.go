package applicants

import (
	"fmt"
	"strings"
	"time"
)

// Status is the triage state of an applicant.
type Status string

const (
	StatusNew          Status = "NEW"
	StatusReviewing    Status = "REVIEWING"
	StatusInterviewing Status = "INTERVIEWING"
	StatusHired        Status = "HIRED"
	StatusRejected     Status = "REJECTED"
)

// StatusAll selects every status when filtering.
const StatusAll = "ALL"

// Statuses lists every status in board order.
var Statuses = []Status{StatusNew, StatusReviewing, StatusInterviewing, StatusHired, StatusRejected}

// Valid reports whether s is one of the five statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusReviewing, StatusInterviewing, StatusHired, StatusRejected:
		return true
	}
	return false
}

// ParseStatus accepts a status name in any case.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidInput, raw)
	}
	return s, nil
}

// Applicant is one job application.
type Applicant struct {
	ID         string
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	Position   string
	StartDate  string
	EndDate    string
	Notes      string
	CVFileName string
	// CVURL is a public URL or a data URI; empty when no resume is attached.
	CVURL     string
	Status    Status
	CreatedAt time.Time
}

// FullName joins first and last name.
func (a Applicant) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// HasResume reports whether a resume reference is attached.
func (a Applicant) HasResume() bool {
	return a.CVURL != ""
}

// Triage is a partial admin edit. Nil fields are left unchanged.
type Triage struct {
	Status   *Status
	Position *string
}

// Empty reports whether the edit changes nothing.
func (t Triage) Empty() bool {
	return t.Status == nil && t.Position == nil
}

// Apply returns a with the edit applied; every other field is untouched.
func (t Triage) Apply(a Applicant) Applicant {
	if t.Status != nil {
		a.Status = *t.Status
	}
	if t.Position != nil {
		a.Position = *t.Position
	}
	return a
}
