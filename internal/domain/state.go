package domain

// ConversationState is the mode of the capture pipeline. Transitions are
// owned by the conversation controller; the audio callback only reads it.
type ConversationState int32

const (
	// StateWakeListening is the idle state: frames feed the wake gate only.
	StateWakeListening ConversationState = iota

	// StateArming covers the acknowledgement prompt window between a wake
	// trigger and the start of command recording.
	StateArming

	// StateRecording means an utterance is being captured and endpointed.
	StateRecording

	// StateFollowUpWaiting is the bounded window after a reply during which
	// recording restarts without requiring the wake word again.
	StateFollowUpWaiting
)

func (s ConversationState) String() string {
	switch s {
	case StateWakeListening:
		return "wake_listening"
	case StateArming:
		return "arming"
	case StateRecording:
		return "recording"
	case StateFollowUpWaiting:
		return "follow_up_waiting"
	default:
		return "unknown"
	}
}
