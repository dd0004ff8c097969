// Package compiler runs the lazy-hydration passes over a template file.
//
// Compile is the text pass, the host parse, the tree pass and a print, in
// that order:
//
//	out, err := compiler.Compile(ctx, "page.vue", src, compiler.Options{})
//	if err != nil {
//		return err // markup could not be parsed
//	}
//	diag.Print(os.Stderr, out.Diagnostics, false)
//	if err := out.Err(); err != nil {
//		return err
//	}
//
// Diagnostics never stop a compile. Output.Err reports whether the file
// should be considered failed.
package compiler

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/lazyhydrate/pkg/compiler/markup"
	"github.com/vango-dev/lazyhydrate/pkg/compiler/resolve"
	"github.com/vango-dev/lazyhydrate/pkg/compiler/rewrite"
	"github.com/vango-dev/lazyhydrate/pkg/diag"
)

const tracerName = "lazyhydrate"

// Options configures a compile.
type Options struct {
	// Strict fails the output on warnings as well as errors.
	Strict bool

	// Tracer receives the compile spans. Default: otel.Tracer("lazyhydrate").
	Tracer trace.Tracer

	// Metrics records compile outcomes. Nil disables metrics.
	Metrics *Metrics
}

// Output is the result of compiling one file.
type Output struct {
	Filename    string
	Code        string
	Changed     bool
	Diagnostics diag.List

	strict bool
}

// Err returns a *FailedError if the output has errors, or warnings in
// strict mode. It returns nil otherwise.
func (o *Output) Err() error {
	failing := o.Diagnostics.Errors()
	if o.strict {
		failing = o.Diagnostics
	}
	if len(failing) == 0 {
		return nil
	}
	return &FailedError{Filename: o.Filename, Diagnostics: failing}
}

// FailedError is returned by Output.Err.
type FailedError struct {
	Filename    string
	Diagnostics diag.List
}

func (e *FailedError) Error() string {
	if len(e.Diagnostics) == 1 {
		return fmt.Sprintf("%s: %s", e.Filename, e.Diagnostics[0].Error())
	}
	return fmt.Sprintf("%s: %d diagnostics, first: %s", e.Filename, len(e.Diagnostics), e.Diagnostics[0].Error())
}

// Compile runs both passes over src. The error is non-nil only when the
// rewritten markup cannot be parsed.
func Compile(ctx context.Context, filename, src string, opts Options) (*Output, error) {
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	ctx, span := tracer.Start(ctx, "lazyhydrate.compile",
		trace.WithAttributes(
			attribute.String("lazyhydrate.file", filename),
			attribute.Int("lazyhydrate.size", len(src)),
		),
	)
	defer span.End()

	out := &Output{Filename: filename, strict: opts.Strict}

	_, rwSpan := tracer.Start(ctx, "lazyhydrate.rewrite")
	rw := rewrite.Rewrite(filename, src)
	rwSpan.SetAttributes(attribute.Bool("lazyhydrate.changed", rw.Changed))
	rwSpan.End()
	out.Diagnostics = append(out.Diagnostics, rw.Diagnostics...)

	_, parseSpan := tracer.Start(ctx, "lazyhydrate.parse")
	root, err := markup.Parse(rw.Code)
	if err != nil {
		parseSpan.RecordError(err)
		parseSpan.SetStatus(codes.Error, err.Error())
		parseSpan.End()
		span.SetStatus(codes.Error, "parse failed")
		opts.Metrics.observe(out, err)
		return nil, fmt.Errorf("compile %s: %w", filename, err)
	}
	parseSpan.End()

	_, resolveSpan := tracer.Start(ctx, "lazyhydrate.resolve")
	locate := func(loc markup.Loc) diag.Location {
		return diag.LocationAt(filename, src, rw.SourceOffset(loc.Offset))
	}
	out.Diagnostics = append(out.Diagnostics, resolve.ResolveWith(locate, root)...)
	resolveSpan.End()

	out.Code = markup.Print(root)
	out.Changed = out.Code != src

	span.SetAttributes(
		attribute.Int("lazyhydrate.diagnostics", len(out.Diagnostics)),
		attribute.Bool("lazyhydrate.changed", out.Changed),
	)
	if err := out.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	opts.Metrics.observe(out, nil)
	return out, nil
}
