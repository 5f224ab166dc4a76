package ecs

import (
	"github.com/phanxgames/flourish"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// ImpulseEventType is the Donburi event type for flourish impulse events.
var ImpulseEventType = events.NewEventType[flourish.ImpulseEvent]()

type donburiStore struct {
	world donburi.World
}

// NewDonburiStore creates an EntityStore backed by a Donburi world.
// Impulse events are published to ImpulseEventType and can be consumed with
// events.Subscribe and ProcessEvents.
func NewDonburiStore(world donburi.World) flourish.EntityStore {
	return &donburiStore{world: world}
}

func (s *donburiStore) EmitEvent(event flourish.ImpulseEvent) {
	ImpulseEventType.Publish(s.world, event)
}
