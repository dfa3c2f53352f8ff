package assistant

import (
	"regexp"
	"strings"
)

var whitespace = regexp.MustCompile(`\s+`)

// normalize lowercases, trims, collapses whitespace and drops trailing
// punctuation so rules can anchor on the end of the message.
func normalize(message string) string {
	s := strings.ToLower(strings.TrimSpace(message))
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimRight(s, "?.! ")
}

// fillerWords never form part of a patient name.
var fillerWords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "for": true, "about": true,
	"is": true, "are": true, "was": true, "what": true, "what's": true, "whats": true,
	"show": true, "me": true, "get": true, "give": true, "tell": true, "please": true,
	"find": true, "search": true, "look": true, "up": true, "lookup": true, "named": true,
	"called": true, "on": true, "to": true, "and": true, "with": true, "can": true,
	"you": true, "i": true, "need": true, "want": true, "see": true, "view": true,
	"his": true, "her": true, "their": true, "this": true, "that": true, "my": true,
	"current": true, "latest": true, "recent": true, "selected": true, "info": true,
	"information": true, "number": true, "details": true, "do": true, "we": true, "have": true,
}

// nonNameWords disqualify a candidate outright: a phrase containing them is
// about a department or the selected patient, not someone by name.
var nonNameWords = map[string]bool{
	"patient": true, "patients": true, "everyone": true, "all": true, "he": true, "she": true,
	"cardiology": true, "cardiac": true, "oncology": true, "cancer": true, "surgery": true,
	"surgical": true, "department": true, "ward": true, "him": true, "them": true,
	"his": true, "her": true, "their": true, "this": true, "that": true, "my": true,
	"current": true, "latest": true, "recent": true, "selected": true, "last": true,
	"blood": true, "vital": true, "vitals": true, "post-op": true, "postop": true,
	// verbs and quantifiers that lead a request about the selected patient
	"check": true, "list": true, "any": true, "previous": true, "prior": true, "past": true,
	"display": true, "review": true, "print": true, "today": true, "new": true,
}

// nameCandidate validates a phrase captured where a name is expected.
func nameCandidate(phrase string) (string, bool) {
	words := strings.Fields(strings.TrimSpace(phrase))
	for len(words) > 0 && fillerWords[words[0]] && !nonNameWords[words[0]] {
		words = words[1:]
	}
	if len(words) == 0 {
		return "", false
	}
	for i, w := range words {
		w = strings.TrimSuffix(strings.TrimSuffix(w, "'s"), "’s")
		if nonNameWords[w] {
			return "", false
		}
		words[i] = w
	}
	return strings.Join(words, " "), true
}

// extractName keeps the words of text that are neither fillers nor in drop,
// e.g. "what is priya's phone number" with drop={phone} gives "priya".
func extractName(text string, drop map[string]bool) string {
	var kept []string
	for _, w := range strings.Fields(text) {
		w = strings.Trim(w, ",;:")
		w = strings.TrimSuffix(strings.TrimSuffix(w, "'s"), "’s")
		if w == "" || fillerWords[w] || drop[w] || nonNameWords[w] {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}
