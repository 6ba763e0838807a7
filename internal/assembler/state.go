package assembler

// State is the stage a decode reached.
type State int

const (
	StateStart State = iota
	StateEngineDecoded
	StateVramChecked
	StateAborted
	StateGameplayDecoded
	StateAssembled
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateEngineDecoded:
		return "engineDecoded"
	case StateVramChecked:
		return "vramChecked"
	case StateAborted:
		return "aborted"
	case StateGameplayDecoded:
		return "gameplayDecoded"
	case StateAssembled:
		return "assembled"
	}
	return "unknown"
}

// Terminal reports whether no further stage follows s.
func (s State) Terminal() bool {
	return s == StateAborted || s == StateAssembled
}

var transitions = map[State][]State{
	StateStart:           {StateEngineDecoded},
	StateEngineDecoded:   {StateVramChecked, StateAborted},
	StateVramChecked:     {StateGameplayDecoded},
	StateGameplayDecoded: {StateAssembled},
}

// CanAdvance reports whether next may follow s.
func (s State) CanAdvance(next State) bool {
	for _, n := range transitions[s] {
		if n == next {
			return true
		}
	}
	return false
}
