package statemachine

import (
	"strings"

	"food-ordering-api/apperr"
	"food-ordering-api/models"
)

// Actor that drives a transition
type Actor string

const (
	ActorPayment Actor = "payment" // payment confirmation handler
	ActorAdmin   Actor = "admin"
	ActorDriver  Actor = "driver"
)

// Transition defines a valid state change and who can perform it
type Transition struct {
	From  models.OrderState `json:"from"`
	To    models.OrderState `json:"to"`
	Actor Actor             `json:"actor"`
}

// validTransitions is the authoritative state machine definition
var validTransitions = []Transition{
	// External payment confirmation
	{From: models.StateCreated, To: models.StatePaid, Actor: ActorPayment},
	// Kitchen marks the order ready
	{From: models.StatePaid, To: models.StatePrepared, Actor: ActorAdmin},
	// Driver starts the delivery
	{From: models.StatePrepared, To: models.StateDelivering, Actor: ActorDriver},
	// Driver ends the delivery
	{From: models.StateDelivering, To: models.StateDelivered, Actor: ActorDriver},
}

// transitionKey is used to look up valid transitions quickly
type transitionKey struct {
	From  models.OrderState
	To    models.OrderState
	Actor Actor
}

var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(state models.OrderState) []models.OrderState {
	var nexts []models.OrderState
	seen := map[models.OrderState]bool{}
	for _, t := range validTransitions {
		if t.From == state && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// CanTransition checks if a given actor can move from one state to another.
// A refused transition is a conflict with the order's current state.
func CanTransition(from, to models.OrderState, actor Actor) error {
	if transitionMap[transitionKey{From: from, To: to, Actor: actor}] {
		return nil
	}
	return apperr.Conflictf(
		"invalid transition: %s → %s is not allowed for actor '%s'. Valid transitions from %s are: %s",
		from, to, actor, from, describeValidFrom(from),
	)
}

// ContentsMutable reports whether orderables may still be added or removed
func ContentsMutable(state models.OrderState) bool {
	return state == models.StateCreated
}

func describeValidFrom(state models.OrderState) string {
	nexts := ValidTransitionsFrom(state)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	names := make([]string, len(nexts))
	for i, s := range nexts {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	return validTransitions
}
