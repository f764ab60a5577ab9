package pipeline

// State is a step in the lifecycle of one media file.
type State string

const (
	StateRecognizing State = "recognizing"
	StateTranslating State = "translating"
	StateSerializing State = "serializing"
	StateWriting     State = "writing"
	StateDone        State = "done"
	StatePartial     State = "partial"
	StateFailed      State = "failed"
)

var transitions = map[State][]State{
	StateRecognizing: {StateTranslating, StateSerializing, StateFailed},
	StateTranslating: {StateSerializing, StateFailed},
	StateSerializing: {StateWriting, StateFailed},
	StateWriting:     {StateDone, StatePartial, StateFailed},
}

// Terminal reports whether s ends processing for a file.
func (s State) Terminal() bool {
	return s == StateDone || s == StatePartial || s == StateFailed
}

// CanTransition reports whether the lifecycle allows moving from one state to another.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
