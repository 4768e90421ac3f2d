package company

// Section identifies which form on the profile page a Status belongs to.
type Section string

const (
	SectionProfile  Section = "profile"
	SectionSettings Section = "settings"
	SectionPassword Section = "password"
)

// Outcome is the result kind of a form submission.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
)

// Status is the single message shown after a form submission.
type Status struct {
	Section Section
	Outcome Outcome
	Message string
}

func successStatus(section Section, message string) *Status {
	return &Status{Section: section, Outcome: OutcomeSuccess, Message: message}
}

func errorStatus(section Section, message string) *Status {
	return &Status{Section: section, Outcome: OutcomeError, Message: message}
}

// Error returns the error message for section, or "" when there is none.
// Safe on a nil Status so templates can call it unconditionally.
func (s *Status) Error(section string) string {
	return s.message(section, OutcomeError)
}

// Success returns the success message for section, or "".
func (s *Status) Success(section string) string {
	return s.message(section, OutcomeSuccess)
}

func (s *Status) message(section string, outcome Outcome) string {
	if s == nil || string(s.Section) != section || s.Outcome != outcome {
		return ""
	}
	return s.Message
}
