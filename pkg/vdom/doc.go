// Package vdom is the minimal virtual node model the hydration dispatcher
// renders into.
//
// A deferred subtree renders its placeholder inside a root element carrying a
// hydration id (HID). Triggers that watch the DOM (event, visible) address the
// subtree by that id. Once the loaded component mounts, the placeholder is
// replaced by the component's own tree.
package vdom
