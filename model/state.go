package model

// Event is a single entry emitted by a contract's handler during `handle`,
// surfaced to callers via EvalStateResult.Events.
type Event struct {
	InteractionId string                 `json:"interactionId"`
	Name          string                 `json:"name,omitempty"`
	Data          map[string]interface{} `json:"data,omitempty"`
}

// EvalStateResult is the folded view of a contract at some sort-key: the
// state itself, plus the per-interaction validity and error-message
// ledgers that the fold accumulated along the way.
type EvalStateResult[S any] struct {
	State         S                       `json:"state"`
	Validity      *OrderedMap[bool]       `json:"validity"`
	ErrorMessages *OrderedMap[string]     `json:"errorMessages"`
	Events        []Event                 `json:"events,omitempty"`
}

// NewEvalStateResult seeds a fresh result at the given state with empty
// ledgers, as used at the genesis sort-key (spec.md §8 scenario 1).
func NewEvalStateResult[S any](state S) *EvalStateResult[S] {
	return &EvalStateResult[S]{
		State:         state,
		Validity:      NewOrderedMap[bool](),
		ErrorMessages: NewOrderedMap[string](),
	}
}

// Clone makes a shallow copy of the ledgers (not of State, which callers
// replace wholesale on each fold step) so that a cacheable evaluator can
// snapshot `last_confirmed` without aliasing the in-progress fold.
func (r *EvalStateResult[S]) Clone() *EvalStateResult[S] {
	clone := NewEvalStateResult(r.State)
	for _, k := range r.Validity.Keys() {
		v, _ := r.Validity.Get(k)
		clone.Validity.Set(k, v)
	}
	for _, k := range r.ErrorMessages.Keys() {
		v, _ := r.ErrorMessages.Get(k)
		clone.ErrorMessages.Set(k, v)
	}
	clone.Events = append([]Event(nil), r.Events...)
	return clone
}
