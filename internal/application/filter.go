package application

import (
	"strings"
	"sync"
)

// maxRecentResponses is how many synthesized replies are kept for echo
// similarity matching.
const maxRecentResponses = 5

// similarityThreshold is the word-set Jaccard similarity above which a
// transcript is considered an echo of a recent reply.
const similarityThreshold = 0.7

// endingPhrases end the conversation when they appear anywhere in the
// lower-cased transcript. Matching is deliberately keyword-only, with no
// semantic classification, to avoid false positives during active dialogue.
// Substring matching is literal, not word-boundary.
var endingPhrases = []string{
	"that's all", "thats all", "that is all",
	"thank you", "thanks", "bye", "goodbye", "good bye",
	"that's it", "thats it", "that is it",
	"i'm done", "im done", "done for now", "finished",
	"stop", "stop listening", "go to sleep", "sleep mode",
	"that's enough", "thats enough", "enough",
	"never mind", "nevermind", "cancel", "forget it",
	"goodnight", "good night", "see you later", "talk to you later",
}

// assistantPhrases are phrasings characteristic of the assistant's own
// synthesized speech leaking back through the microphone.
var assistantPhrases = []string{
	"the answer is", "the answer to", "i can assist", "i can help",
	"is there anything else", "would you like", "i'm happy to help",
	"user, i'm happy", "however, i must clarify", "could you please",
	"feel free to", "i'll do my best", "provide a helpful response",
	"appears to be missing", "doesn't seem to be", "to perform the calculation",
}

// selfReferences are phrases the assistant uses about itself but a user
// would not dictate as a command.
var selfReferences = []string{"tony stark", "iron man"}

// mathTerms and mathAnswerTerms together catch the assistant reading a
// calculation back; both groups must be present.
var (
	mathTerms       = []string{"plus", "minus", "equals", "calculation", "operator"}
	mathAnswerTerms = []string{"the answer", "result", "equals"}
)

// SpeechFilter classifies finished transcripts as self-echo, conversation
// end, or a genuine command. It is invoked from the background worker only;
// the mutex guards the recent-reply history against concurrent Stats-style
// readers.
type SpeechFilter struct {
	assistantName string

	mu     sync.Mutex
	recent []string
}

// NewSpeechFilter creates a filter that treats transcripts mentioning
// assistantName within their first 20 characters as self-echo.
func NewSpeechFilter(assistantName string) *SpeechFilter {
	return &SpeechFilter{
		assistantName: strings.ToLower(assistantName),
	}
}

// IsConversationEnd reports whether the user wants to end the conversation.
func (f *SpeechFilter) IsConversationEnd(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, phrase := range endingPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// IsSelfEcho reports whether the transcript looks like the assistant's own
// voice rather than user input.
func (f *SpeechFilter) IsSelfEcho(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))

	// Leading filler is a common artifact of the synthesized voice being
	// half-captured.
	if strings.HasPrefix(lower, "you") {
		return true
	}

	for _, ref := range selfReferences {
		if strings.Contains(lower, ref) {
			return true
		}
	}

	if f.assistantName != "" {
		head := lower
		if len(head) > 20 {
			head = head[:20]
		}
		if strings.Contains(head, f.assistantName) {
			return true
		}
	}

	for _, phrase := range assistantPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}

	if containsAny(lower, mathTerms) && containsAny(lower, mathAnswerTerms) {
		return true
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, reply := range f.recent {
		if TextSimilarity(lower, strings.ToLower(reply)) > similarityThreshold {
			return true
		}
	}

	return false
}

// RecordResponse remembers a synthesized reply for echo matching, evicting
// the oldest beyond the window.
func (f *SpeechFilter) RecordResponse(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recent = append(f.recent, text)
	if len(f.recent) > maxRecentResponses {
		f.recent = f.recent[len(f.recent)-maxRecentResponses:]
	}
}

// RecentResponses returns a copy of the remembered replies, oldest first.
func (f *SpeechFilter) RecentResponses() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.recent))
	copy(out, f.recent)
	return out
}

// TextSimilarity is the Jaccard similarity of the two texts' word sets:
// |intersection| / |union|. It returns 0 when either text has no words.
func TextSimilarity(a, b string) float64 {
	wordsA := wordSet(a)
	wordsB := wordSet(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	intersection := 0
	for w := range wordsA {
		if _, ok := wordsB[w]; ok {
			intersection++
		}
	}
	union := len(wordsA) + len(wordsB) - intersection

	return float64(intersection) / float64(union)
}

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(text) {
		set[w] = struct{}{}
	}
	return set
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
