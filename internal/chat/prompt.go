package chat

import (
	"fmt"
	"strings"

	"supportbot/internal/history"
	"supportbot/internal/knowledge"
	"supportbot/internal/model"
)

const (
	// contextWindow is how many trailing messages go into the prompt
	// transcript. Empirical, kept from the original tuning.
	contextWindow = 6

	// relatedK is how many ranked corpus entries accompany the question.
	relatedK = 3

	// exampleCount anchors answer style when nothing in the corpus matched.
	exampleCount = 3
)

const closingInstruction = "Please provide a helpful, accurate, and concise response. " +
	"Keep your answer focused and practical, and ground it in the material above rather than general knowledge. " +
	"If the question is outside your domain expertise, politely redirect to the appropriate domain or suggest contacting a human specialist."

// buildPrompt assembles the model prompt: domain framing, grounding material
// in one of three shapes depending on what the index returned, the recent
// transcript, and the question last so retry degradation can find it.
func buildPrompt(kn Matcher, domainName, question string, past []history.Message) string {
	var b strings.Builder
	b.WriteString(domainContexts[domainName])
	b.WriteString("\n\n")

	best, strong := kn.BestMatch(domainName, question)
	related := kn.TopK(domainName, question, relatedK)

	switch {
	case strong:
		b.WriteString("Authoritative answer from the knowledge base:\n")
		b.WriteString(best)
		b.WriteString("\n")
		if extras := relatedExcluding(related, best); len(extras) > 0 {
			b.WriteString("\nRelated knowledge base entries:\n")
			writeEntries(&b, extras)
		}
	case len(related) > 0:
		b.WriteString("Potentially related knowledge base entries:\n")
		writeEntries(&b, related)
	default:
		if examples := kn.Entries(domainName); len(examples) > 0 {
			if len(examples) > exampleCount {
				examples = examples[:exampleCount]
			}
			b.WriteString("Example questions handled in this domain:\n")
			writeEntries(&b, toScored(examples))
		}
	}

	if convo := transcript(past); convo != "" {
		b.WriteString("\nPrevious conversation context:\n")
		b.WriteString(convo)
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\n%s %s\n\n%s\n", model.QuestionMarker, question, closingInstruction)
	return b.String()
}

// transcript renders the last contextWindow messages as "Role: content"
// lines, oldest first.
func transcript(past []history.Message) string {
	if len(past) > contextWindow {
		past = past[len(past)-contextWindow:]
	}
	lines := make([]string, 0, len(past))
	for _, m := range past {
		lines = append(lines, fmt.Sprintf("%s: %s", roleLabel(m.Role), m.Content))
	}
	return strings.Join(lines, "\n")
}

func roleLabel(r history.Role) string {
	if r == history.RoleAssistant {
		return "Assistant"
	}
	return "User"
}

func relatedExcluding(related []knowledge.Scored, answer string) []knowledge.Scored {
	out := make([]knowledge.Scored, 0, len(related))
	for _, s := range related {
		if s.Answer != answer {
			out = append(out, s)
		}
	}
	return out
}

func toScored(entries []knowledge.Entry) []knowledge.Scored {
	out := make([]knowledge.Scored, 0, len(entries))
	for _, e := range entries {
		out = append(out, knowledge.Scored{Question: e.Question, Answer: e.Answer})
	}
	return out
}

func writeEntries(b *strings.Builder, entries []knowledge.Scored) {
	for _, e := range entries {
		fmt.Fprintf(b, "- Q: %s\n  A: %s\n", e.Question, e.Answer)
	}
}
