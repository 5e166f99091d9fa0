package audit

import "fmt"

// State is the lifecycle position of one exchange.
type State int

const (
	StateIdle State = iota
	StateCapturingRequest
	StateForwarding
	StateCapturingResponse
	StatePersisted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturingRequest:
		return "capturing_request"
	case StateForwarding:
		return "forwarding"
	case StateCapturingResponse:
		return "capturing_response"
	case StatePersisted:
		return "persisted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// transitions lists the single allowed successor of each state.
var transitions = map[State]State{
	StateIdle:              StateCapturingRequest,
	StateCapturingRequest:  StateForwarding,
	StateForwarding:        StateCapturingResponse,
	StateCapturingResponse: StatePersisted,
}

// StateObserver is told about every transition of every exchange.
type StateObserver func(exchangeID string, from, to State)

type exchange struct {
	id       string
	state    State
	observer StateObserver
	logger   Logger
}

func (e *exchange) advance(to State) {
	next, ok := transitions[e.state]
	if !ok || next != to {
		// programming error in the interceptor, never caused by traffic
		panic(fmt.Sprintf("audit: invalid exchange transition %s -> %s", e.state, to))
	}
	from := e.state
	e.state = to
	e.logger.Debug("exchange transition", "exchange_id", e.id, "from", from.String(), "to", to.String())
	if e.observer != nil {
		e.observer(e.id, from, to)
	}
}
