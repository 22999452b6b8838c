package rigid

import (
	"github.com/akmonengine/rigid/actor"
	"github.com/akmonengine/rigid/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

type EventType uint8

const (
	EventTriggerEnter EventType = iota
	EventCollisionEnter
	EventTriggerStay
	EventCollisionStay
	EventTriggerExit
	EventCollisionExit
	EventSleep
	EventWake
)

// Event is implemented by every event sent to listeners
type Event interface {
	Type() EventType
}

// Trigger events
type TriggerEnterEvent struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e TriggerEnterEvent) Type() EventType { return EventTriggerEnter }

type TriggerStayEvent struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e TriggerStayEvent) Type() EventType { return EventTriggerStay }

type TriggerExitEvent struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e TriggerExitEvent) Type() EventType { return EventTriggerExit }

// Collision events carry the deepest contact of the pair in the last substep.
// Normal points from BodyB toward BodyA.
type CollisionEnterEvent struct {
	BodyA       *actor.RigidBody
	BodyB       *actor.RigidBody
	Normal      mgl64.Vec3
	Penetration float64
}

func (e CollisionEnterEvent) Type() EventType { return EventCollisionEnter }

type CollisionStayEvent struct {
	BodyA       *actor.RigidBody
	BodyB       *actor.RigidBody
	Normal      mgl64.Vec3
	Penetration float64
}

func (e CollisionStayEvent) Type() EventType { return EventCollisionStay }

type CollisionExitEvent struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e CollisionExitEvent) Type() EventType { return EventCollisionExit }

// Sleep/Wake events
type SleepEvent struct {
	Body *actor.RigidBody
}

func (e SleepEvent) Type() EventType { return EventSleep }

type WakeEvent struct {
	Body *actor.RigidBody
}

func (e WakeEvent) Type() EventType { return EventWake }

// EventListener is called synchronously at the end of World.Step
type EventListener func(event Event)

// pairKey identifies a pair in the order the broad phase reported it
type pairKey struct {
	bodyA *actor.RigidBody
	bodyB *actor.RigidBody
}

type pairState struct {
	trigger     bool
	normal      mgl64.Vec3
	penetration float64
}

// activePairs is an insertion-ordered set of the pairs touching during a step
type activePairs struct {
	states map[pairKey]pairState
	order  []pairKey
}

func newActivePairs() activePairs {
	return activePairs{states: make(map[pairKey]pairState)}
}

func (p *activePairs) set(key pairKey, state pairState) {
	if _, ok := p.states[key]; !ok {
		p.order = append(p.order, key)
	}
	p.states[key] = state
}

func (p *activePairs) has(key pairKey) bool {
	_, ok := p.states[key]
	return ok
}

func (p *activePairs) remove(body *actor.RigidBody) {
	n := 0
	for _, key := range p.order {
		if key.bodyA == body || key.bodyB == body {
			delete(p.states, key)
			continue
		}
		p.order[n] = key
		n++
	}
	p.order = p.order[:n]
}

func (p *activePairs) reset() {
	clear(p.states)
	p.order = p.order[:0]
}

// Events collects what happened during World.Step and dispatches it to listeners once
// the step is over. Enter, Stay and Exit come from comparing the touching pairs of
// two successive steps.
type Events struct {
	listeners map[EventType][]EventListener
	buffer    []Event

	previous activePairs
	current  activePairs

	sleepStates map[*actor.RigidBody]bool
}

func NewEvents() Events {
	return Events{
		listeners:   make(map[EventType][]EventListener),
		buffer:      make([]Event, 0, 256),
		previous:    newActivePairs(),
		current:     newActivePairs(),
		sleepStates: make(map[*actor.RigidBody]bool),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// recordTrigger marks a trigger pair as overlapping for this step
func (e *Events) recordTrigger(bodyA, bodyB *actor.RigidBody) {
	e.current.set(pairKey{bodyA: bodyA, bodyB: bodyB}, pairState{trigger: true})
}

// recordCollision marks a pair as touching and keeps its deepest contact
func (e *Events) recordCollision(bodyA, bodyB *actor.RigidBody, contacts []constraint.Contact) {
	state := pairState{}
	for i, contact := range contacts {
		if i == 0 || contact.Penetration > state.penetration {
			state.penetration = contact.Penetration
			state.normal = contact.Normal
			// Contacts are reported with the pair order of the detector
			if contact.BodyA != bodyA {
				state.normal = contact.Normal.Mul(-1)
			}
		}
	}

	e.current.set(pairKey{bodyA: bodyA, bodyB: bodyB}, state)
}

// forget drops every trace of a body removed from the world
func (e *Events) forget(body *actor.RigidBody) {
	delete(e.sleepStates, body)
	e.previous.remove(body)
	e.current.remove(body)
}

// processCollisionEvents compares current and previous pairs to detect Enter/Stay/Exit
func (e *Events) processCollisionEvents() {
	for _, key := range e.current.order {
		// Both asleep: nothing changes, nothing to report
		if key.bodyA.IsSleeping && key.bodyB.IsSleeping {
			continue
		}

		state := e.current.states[key]
		stay := e.previous.has(key)

		switch {
		case state.trigger && stay:
			e.buffer = append(e.buffer, TriggerStayEvent{BodyA: key.bodyA, BodyB: key.bodyB})
		case state.trigger:
			e.buffer = append(e.buffer, TriggerEnterEvent{BodyA: key.bodyA, BodyB: key.bodyB})
		case stay:
			e.buffer = append(e.buffer, CollisionStayEvent{BodyA: key.bodyA, BodyB: key.bodyB, Normal: state.normal, Penetration: state.penetration})
		default:
			e.buffer = append(e.buffer, CollisionEnterEvent{BodyA: key.bodyA, BodyB: key.bodyB, Normal: state.normal, Penetration: state.penetration})
		}
	}

	for _, key := range e.previous.order {
		if e.current.has(key) {
			continue
		}

		// A sleeping pair is skipped by the broad phase but still touches
		if key.bodyA.IsSleeping && key.bodyB.IsSleeping {
			e.current.set(key, e.previous.states[key])
			continue
		}

		if e.previous.states[key].trigger {
			e.buffer = append(e.buffer, TriggerExitEvent{BodyA: key.bodyA, BodyB: key.bodyB})
		} else {
			e.buffer = append(e.buffer, CollisionExitEvent{BodyA: key.bodyA, BodyB: key.bodyB})
		}
	}

	e.previous, e.current = e.current, e.previous
	e.current.reset()
}

func (e *Events) processSleepEvents(bodies []*actor.RigidBody) {
	for _, body := range bodies {
		trackedState, exists := e.sleepStates[body]
		if !exists {
			e.sleepStates[body] = body.IsSleeping
			continue
		}

		if !trackedState && body.IsSleeping {
			e.buffer = append(e.buffer, SleepEvent{Body: body})
			e.sleepStates[body] = true
		} else if trackedState && !body.IsSleeping {
			e.buffer = append(e.buffer, WakeEvent{Body: body})
			e.sleepStates[body] = false
		}
	}
}

// flush sends all buffered events and clears the buffer
func (e *Events) flush() {
	e.processCollisionEvents()

	for _, event := range e.buffer {
		for _, listener := range e.listeners[event.Type()] {
			listener(event)
		}
	}
	e.buffer = e.buffer[:0]
}
