// Package ecs provides ECS adapters for flourish's impulse events.
//
// The primary adapter is [NewDonburiStore], which forwards every impulse an
// effect receives into a [Donburi] world as a typed event. Subscribe to
// [ImpulseEventType] in your ECS systems to react to them, for example to
// award points when a like button sprays.
//
// Usage:
//
//	store := ecs.NewDonburiStore(world)
//	scene.SetEntityStore(store)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
