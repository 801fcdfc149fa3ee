// Package internal contains the implementation packages of viewnav.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - app: the application, its start sequence and the two-phase navigation
//   - urlpath: navigation paths parsed into route segments and back
//   - router: path stores (memory, state file, websocket)
//   - guard: the app:guard veto, redirect and confirmation protocol
//   - resolver, registry: page names resolved to view sources
//   - composer, view: descriptors with subview slots and the view tree
//   - dom: the widget backend views render into
//   - events, scheduler, di: event bus, deferred work and services
//   - plugins: unload guard, locale and theme extensions
//   - config, logging, errors, monitoring: the ambient stack
//   - watcher, middleware, version: support for the command line
//
// # Inter-Package Communication
//
//   - The application owns one event bus; views, guards and plugins talk
//     through it rather than through each other
//   - Router callbacks and re-entrant navigations are deferred through the
//     scheduler and never run on the caller's stack
//   - The registry notifies watchers of module changes; the serve command
//     replaces descriptors in it when the descriptor file changes
//
// # Testing Strategy
//
//   - Unit tests next to every package, written with testify
//   - Property tests behind the "property" build tag, written with gopter
//   - Examples for the public navigation flow in package app
package internal
