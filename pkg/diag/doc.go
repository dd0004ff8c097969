// Package diag provides the structured diagnostics produced by the lazy
// hydration compiler passes and runtime.
//
// Diagnostics are values, not log lines: each pass returns the list it
// collected and the host decides how to surface it. Every diagnostic has a
// registered code that maps to a severity, a short message and a longer
// explanation.
//
// # Codes
//
//	H001  unknown hydration strategy          warning
//	H002  hydrate:never given a value         warning
//	H003  value does not fit the strategy     warning
//	H004  duplicate hydration directive       error (fatal for the element)
//	H005  invalid hydrate prop at runtime     warning
//	H010  invalid configuration               error
//	H011  configuration file not found        error
//
// # Usage
//
//	d := diag.New(diag.CodeUnknownKind).
//	    WithLocation(diag.LocationAt("app/pages/index.vue", src, offset)).
//	    WithTag(`<LazyChart hydrate:soon>`)
//
//	fmt.Print(d.Format())
package diag
