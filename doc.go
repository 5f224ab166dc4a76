// Package flourish adds physics-driven effects to the UI nodes of an
// [Ebitengine] scene: springs that bounce a node when a value changes,
// particles that spray out of a button, glows and shines that follow a
// condition.
//
// # Quick start
//
// The simplest way to get started is [Run], which creates a window and game
// loop for you:
//
//	scene := flourish.NewScene()
//	button := flourish.NewRect("like", 120, 44, flourish.Color{R: 0.9, G: 0.2, B: 0.4, A: 1})
//	scene.Root().AddChild(button)
//
//	likes := flourish.ApplyChangeEffect(button, flourish.Spray(flourish.SprayConfig{}), 0)
//	// later, from game logic:
//	likes.Set(likes.Value() + 1)
//
//	flourish.Run(scene, flourish.RunConfig{
//		Title: "Likes", Width: 640, Height: 480,
//	})
//
// For full control, implement [ebiten.Game] yourself and call
// [Scene.Update] and [Scene.Draw] directly.
//
// # Triggers
//
// A [ChangeEffect] reacts when an observed value changes. Animated effects
// replay a curve and default to a short cooldown; simulated effects kick a
// physics state on every accepted change. [ChangeEffect.Delay] re-checks a
// change after a pause.
//
// A [ConditionalEffect] follows a boolean. [Continuous] effects track the
// condition with their own state, and [Repeat] fires a change effect at a
// fixed interval while the condition holds.
//
// # Simulation
//
// Each attached effect owns a [Driver] that steps its simulation once per
// [Scene.Update] with the frame time clamped to [MaxFrameStep]. A driver
// idles once its simulation settles, and a simulation that produces a
// non-finite value is reset to rest.
//
// # Particles
//
// Particle effects paint next to their node unless they target a
// [NamedLayer]. [Node.WrapInParticleLayer] declares such a layer on an
// ancestor, lifting the particles above the ancestor's subtree and out of
// any clipping in between.
//
// # Feedback
//
// [Feedback] plays a sound on every change through a shared
// [FeedbackEngine]. The audio backend starts with the first attached
// feedback effect and stops after the last one is detached. Set
// FLOURISH_AUDIO_ENABLED=false to silence it.
//
// ECS integration lives in flourish/ecs, which forwards every impulse to a
// [Donburi] world.
//
// [Ebitengine]: https://ebitengine.org
// [Donburi]: https://github.com/yohamta/donburi
package flourish
