// Package physics defines the engine contract the joint assembly is built on
// and ships a reference implementation of it.
//
// The contract is deliberately small:
//
//   - [Engine]: object, body and constraint lifecycle plus parameter access
//   - [Params]: every mutable parameter of one constraint
//   - [BreakListener]: per-object break notification
//   - [Util]: stateless helper that produces canonical [Params] values
//
// [World] is an in-memory 3D engine. It does not integrate rigid bodies;
// positions only change through [World.Translate]. Connector loads are derived
// from geometry on every [World.Step], which makes break behaviour
// deterministic and easy to reason about in tests and scenarios.
//
// # Thread Safety
//
// Engines are NOT thread-safe. Break listeners run synchronously inside
// Step on the caller's goroutine.
package physics
