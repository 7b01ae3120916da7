package router

import (
	"fmt"
	"strings"

	"mentor/pkg/api"
	"mentor/pkg/memory"
)

// modeRules maps each response mode to the instructions appended to the
// prompt. The mode shapes the answer, never the routing.
var modeRules = map[api.Mode]string{
	api.ModeTutor: "Explain step by step. Number the steps. After the final step, " +
		"state the result on its own line. Ask one short check-in question at the end.",
	api.ModeDirect: "Give the answer first, in the opening sentence. Follow with at " +
		"most two sentences of verification. No preamble.",
	api.ModeReview: "Structure the answer as: definition, one minimal worked example, " +
		"then two self-check questions. Keep each part short.",
	api.ModeLab: "Answer as a lab procedure: assumptions, numbered steps, what to " +
		"measure, expected result. Flag any safety considerations.",
	api.ModeQuiz: "Answer tersely, exam style. State the result and the single key " +
		"fact that justifies it. No pleasantries.",
}

// sizeRules maps the configured response size to a length instruction.
var sizeRules = map[string]string{
	"short":  "Keep the whole answer under 4 lines.",
	"normal": "Keep the whole answer under 12 lines.",
	"long":   "A thorough answer is fine, up to about 30 lines.",
}

// BuildPrompt assembles the full prompt for a free-form turn.
func BuildPrompt(persona, username, subject, topic string, mode api.Mode, size string, snippets []memory.Snippet, question string) string {
	var b strings.Builder

	if persona != "" {
		b.WriteString(persona)
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "Student: %s\n", username)
	fmt.Fprintf(&b, "Subject: %s\n", subject)
	if topic != "" && topic != "-" {
		fmt.Fprintf(&b, "Topic: %s\n", topic)
	}
	b.WriteString("\n")

	if len(snippets) > 0 {
		b.WriteString("Recent interactions on this topic (oldest first):\n")
		for _, s := range snippets {
			b.WriteString(s.Format())
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if rule, ok := modeRules[mode]; ok {
		b.WriteString(rule)
		b.WriteString("\n")
	}
	if rule, ok := sizeRules[strings.ToLower(size)]; ok {
		b.WriteString(rule)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Question: %s", question)
	return b.String()
}
