package checkout

// State is a step of one order placement attempt.
type State string

const (
	StateIdle                State = "idle"
	StateValidating          State = "validating"
	StateStockChecking       State = "stock_checking"
	StatePersisting          State = "persisting"
	StateSucceeded           State = "succeeded"
	StateRejectedInput       State = "rejected_input"
	StateRejectedStock       State = "rejected_stock"
	StateRejectedPersistence State = "rejected_persistence"
)

var nextStates = map[State][]State{
	StateIdle:          {StateValidating},
	StateValidating:    {StateStockChecking, StateRejectedInput},
	StateStockChecking: {StatePersisting, StateRejectedStock},
	StatePersisting:    {StateSucceeded, StateRejectedPersistence},
}

// IsTerminal reports whether no further step follows s.
func (s State) IsTerminal() bool {
	return len(nextStates[s]) == 0
}

// CanMove reports whether an attempt in s may advance to next.
func (s State) CanMove(next State) bool {
	for _, candidate := range nextStates[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// attempt tracks the path a single PlaceOrder call takes through the states.
type attempt struct {
	state State
	trace []State
}

func newAttempt() *attempt {
	return &attempt{state: StateIdle, trace: []State{StateIdle}}
}

func (a *attempt) move(next State) {
	if !a.state.CanMove(next) {
		panic("checkout: illegal state change " + string(a.state) + " -> " + string(next))
	}
	a.state = next
	a.trace = append(a.trace, next)
}
