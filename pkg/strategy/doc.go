// Package strategy is the catalog of lazy hydration triggers.
//
// A trigger decides when a deferred subtree becomes interactive. There are
// exactly eight kinds, each with an expected value type, a default value and
// an arming contract:
//
//	time     fire after a delay (default 2000ms); <= 0 fires immediately
//	promise  fire when an Awaitable completes; nil fires immediately
//	if       fire on the first transition of a Condition to true
//	event    fire on the first named event on the root element
//	visible  fire when the root element intersects the viewport
//	media    fire when a media query matches
//	idle     fire when the host reports an idle slot
//	never    never fire on its own
//
// # Arming
//
// Arm selects the kind's case from a fixed dispatch table and returns an
// Arming: either Immediate, or a Handle whose Cancel releases whatever the
// trigger registered. Cancel is safe to call any number of times, before or
// after the trigger fired.
//
// The browser primitives a trigger needs (listeners, observers, media
// queries, idle callbacks) are reached through the Host interface. SystemHost
// provides timers only; package bridge implements the rest against a
// connected client.
package strategy
