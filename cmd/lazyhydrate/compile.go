package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/lazyhydrate/internal/config"
	"github.com/vango-dev/lazyhydrate/internal/publish"
	"github.com/vango-dev/lazyhydrate/pkg/compiler"
	"github.com/vango-dev/lazyhydrate/pkg/diag"
)

// source is one input file and the name it is published under.
type source struct {
	path string
	name string
}

// compileOptions are the per-run settings shared by compile and check.
type compileOptions struct {
	strict  bool
	compact bool
}

func compileCmd(g *globals) *cobra.Command {
	var (
		out     string
		pub     bool
		bucket  string
		strict  bool
		compact bool
	)

	cmd := &cobra.Command{
		Use:   "compile [files or directories...]",
		Short: "Rewrite hydrate directives to canonical lazy tags",
		Long: `Compile template files. Directories are walked for the configured
extensions. Output goes to --out, to S3 with --publish, or to stdout.

Examples:
  lazyhydrate compile pages/home.vue
  lazyhydrate compile pages --out dist
  lazyhydrate compile pages --publish --bucket assets`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			if strict {
				cfg.Compile.Strict = true
			}
			if bucket != "" {
				cfg.Publish.Bucket = bucket
			}

			var sink publish.Sink
			switch {
			case pub:
				if cfg.Publish.Bucket == "" {
					return fmt.Errorf("--publish needs a bucket (flag --bucket or publish.bucket)")
				}
				client := publish.NewS3Client(cfg.Publish.Region, cfg.Publish.Endpoint)
				sink = publish.NewS3Sink(client, cfg.Publish.Bucket, cfg.Publish.Prefix)
			case out != "":
				if sink, err = publish.NewDirSink(out); err != nil {
					return err
				}
			}

			sources, err := collectSources(cfg, args)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			opts := compileOptions{strict: cfg.Compile.Strict, compact: compact}
			failed, err := compileSources(ctx, sources, opts, sink, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(sources))
			}
			if sink != nil {
				success("Compiled %d files", len(sources))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output directory")
	cmd.Flags().BoolVar(&pub, "publish", false, "Upload output to S3 (publish.* config)")
	cmd.Flags().StringVar(&bucket, "bucket", "", "S3 bucket, overrides publish.bucket")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail files on warnings")
	cmd.Flags().BoolVar(&compact, "compact", false, "One line per diagnostic")

	return cmd
}

func checkCmd(g *globals) *cobra.Command {
	var (
		strict  bool
		compact bool
	)

	cmd := &cobra.Command{
		Use:   "check [files or directories...]",
		Short: "Report hydrate directive diagnostics without writing output",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			sources, err := collectSources(cfg, args)
			if err != nil {
				return err
			}

			opts := compileOptions{strict: strict || cfg.Compile.Strict, compact: compact}
			failed, err := compileSources(cmd.Context(), sources, opts, nil, io.Discard, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(sources))
			}
			success("%d files ok", len(sources))
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Fail files on warnings")
	cmd.Flags().BoolVar(&compact, "compact", false, "One line per diagnostic")

	return cmd
}

// collectSources expands args into files. Files named directly are kept
// whatever their extension; directories contribute files with a configured
// extension, named relative to the directory.
func collectSources(cfg *config.Config, args []string) ([]source, error) {
	var sources []source
	for _, arg := range args {
		st, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !st.IsDir() {
			sources = append(sources, source{path: arg, name: filepath.ToSlash(filepath.Base(arg))})
			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !cfg.HasExtension(path) {
				return nil
			}
			rel, err := filepath.Rel(arg, path)
			if err != nil {
				return err
			}
			sources = append(sources, source{path: path, name: filepath.ToSlash(rel)})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return sources, nil
}

// compileSources compiles every source, prints diagnostics to stderr and
// writes output to sink, or to stdout when sink is nil. It returns the
// number of failed files; the error is for I/O failures.
func compileSources(ctx context.Context, sources []source, opts compileOptions, sink publish.Sink, stdout, stderr io.Writer) (int, error) {
	failed := 0
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return failed, err
		}

		data, err := os.ReadFile(src.path)
		if err != nil {
			return failed, err
		}

		out, err := compiler.Compile(ctx, src.path, string(data), compiler.Options{Strict: opts.strict})
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
			failed++
			continue
		}
		diag.Print(stderr, out.Diagnostics, opts.compact)
		if out.Err() != nil {
			failed++
			continue
		}

		if sink == nil {
			io.WriteString(stdout, out.Code)
			continue
		}
		if err := sink.Put(ctx, src.name, []byte(out.Code)); err != nil {
			return failed, fmt.Errorf("publish %s: %w", src.name, err)
		}
		info("%s → %s", src.path, src.name)
	}
	return failed, nil
}
