// Package hydrate defers mounting a component subtree until a trigger fires.
//
// Lazy wraps a loader with a trigger kind. Each Mount creates an Instance
// that arms the trigger, loads the subtree once it fires and then renders it
// in place of the placeholder:
//
//	chart := hydrate.Lazy(strategy.KindVisible, loadChart,
//		hydrate.WithHost(conn),
//		hydrate.WithOnHydrated(func(i *hydrate.Instance) { ... }),
//	)
//	inst := chart.Mount(ctx, vdom.Props{"hydrate": strategy.ObserverOptions{RootMargin: "200px"}})
//	defer inst.Unmount()
//
// # States
//
// An Instance moves through Deferred, Triggered, Loading and Mounted and
// never goes back. A failed load leaves it in Loading with Err set. Unmount
// releases a pending trigger and stops in-flight loads.
//
// # Registry
//
// Compiled templates refer to lazy components by canonical tag
// (LazyVisibleChart, lazy-visible-chart). A Registry maps the component part
// of such a tag to its loader and builds the matching Component.
package hydrate
