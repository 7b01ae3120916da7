package router

import "strings"

// Sentinels used when the student never set a subject or topic.
const (
	DefaultSubject = "General"
	DefaultTopic   = "-"
)

// subjectKeywords maps question vocabulary to a (subject, topic) guess,
// used only when the student has not set a subject. First match wins.
var subjectKeywords = []struct {
	keyword string
	subject string
	topic   string
}{
	{"derivative", "Calculus", "Derivatives"},
	{"integral", "Calculus", "Integrals"},
	{"limit", "Calculus", "Limits"},
	{"matrix", "Algebra", "Matrices"},
	{"vector", "Algebra", "Vectors"},
	{"polynomial", "Algebra", "Polynomials"},
	{"equation", "Algebra", "Equations"},
	{"velocity", "Physics", "Kinematics"},
	{"acceleration", "Physics", "Kinematics"},
	{"force", "Physics", "Dynamics"},
	{"energy", "Physics", "Energy"},
	{"probability", "Statistics", "Probability"},
	{"variance", "Statistics", "Dispersion"},
	{"median", "Statistics", "Central tendency"},
	{"mean", "Statistics", "Central tendency"},
	{"mole", "Chemistry", "Stoichiometry"},
	{"reaction", "Chemistry", "Reactions"},
	{"acid", "Chemistry", "Acids and bases"},
	{"atom", "Chemistry", "Atomic structure"},
}

// GuessSubject infers a subject/topic pair from question vocabulary.
// ok is false when nothing matches.
func GuessSubject(text string) (subject, topic string, ok bool) {
	lower := strings.ToLower(text)
	for _, k := range subjectKeywords {
		if strings.Contains(lower, k.keyword) {
			return k.subject, k.topic, true
		}
	}
	return "", "", false
}
