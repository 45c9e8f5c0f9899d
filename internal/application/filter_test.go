package application_test

import (
	"math"
	"testing"

	"jarvis-voice/internal/application"
)

func TestSpeechFilter_IsConversationEnd(t *testing.T) {
	filter := application.NewSpeechFilter("jarvis")

	tests := []struct {
		text string
		want bool
	}{
		{"Okay, that's all for now", true},
		{"Thank you so much", true},
		{"goodbye", true},
		{"Go to sleep", true},
		{"NEVER MIND", true},
		{"what's all the fuss", false},
		{"what time is it", false},
		{"turn on the living room lights", false},
		{"how far is the moon", false},
		// Matching is literal substring, not word-boundary.
		{"please don't stop the music", true},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := filter.IsConversationEnd(tt.text); got != tt.want {
				t.Errorf("IsConversationEnd(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestSpeechFilter_IsSelfEcho(t *testing.T) {
	filter := application.NewSpeechFilter("jarvis")

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"leading filler", "You asked about the weather", true},
		{"self reference", "I am Tony Stark's assistant", true},
		{"assistant name early", "Jarvis here, how can I help", true},
		{"assistant name late", "tell me more about the jarvis protocol", false},
		{"assistant phrasing", "The answer is forty two", true},
		{"math readback", "to perform the calculation I added the operator", true},
		{"math pair", "seven plus three equals ten, that is the result", true},
		{"genuine command", "set a timer for five minutes", false},
		{"genuine question", "what is the capital of France", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := filter.IsSelfEcho(tt.text); got != tt.want {
				t.Errorf("IsSelfEcho(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestSpeechFilter_EchoesRecentReply(t *testing.T) {
	filter := application.NewSpeechFilter("jarvis")

	reply := "the weather today is sunny and warm"
	if filter.IsSelfEcho(reply) {
		t.Fatal("reply flagged as echo before being recorded")
	}

	filter.RecordResponse(reply)

	if !filter.IsSelfEcho("The weather today is sunny and warm") {
		t.Error("verbatim recent reply not flagged as echo")
	}
	if filter.IsSelfEcho("will it rain tomorrow afternoon") {
		t.Error("unrelated transcript flagged as echo")
	}
}

func TestSpeechFilter_RecentResponsesEvictOldest(t *testing.T) {
	filter := application.NewSpeechFilter("jarvis")

	replies := []string{"one", "two", "three", "four", "five", "six", "seven"}
	for _, r := range replies {
		filter.RecordResponse(r)
	}

	recent := filter.RecentResponses()
	if len(recent) != 5 {
		t.Fatalf("recent = %d entries, want 5", len(recent))
	}
	if recent[0] != "three" || recent[4] != "seven" {
		t.Errorf("recent = %v, want [three four five six seven]", recent)
	}
}

func TestTextSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "hello world", "hello world", 1.0},
		{"disjoint", "hello world", "foo bar", 0.0},
		{"one word off", "the answer is four", "the answer is five", 0.6},
		{"empty left", "", "hello", 0.0},
		{"empty right", "hello", "", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := application.TextSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("TextSimilarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
