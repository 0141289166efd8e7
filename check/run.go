// Package check implements command which verifies that documents satisfy
// structural rules formatting relies on: no adjacent text runs and no mark
// nested inside a mark of the same kind.
package check

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"markfmt/doc"
	"markfmt/source"
	"markfmt/state"
)

// ErrViolations is returned when at least one document is not normalized.
var ErrViolations = errors.New("documents with violations found")

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("check")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	if src, err = filepath.Abs(src); err != nil {
		return err
	}
	if cmd.Args().Len() > 1 {
		log.Warn("Malformed command line, too many sources", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	w := source.NewWalker(log, func(ctx context.Context, name string, r io.Reader) error {
		return document(ctx, r, name, log)
	})

	// Since zip "standard" does not define file name encoding we may need to
	// force archaic code page for old archives
	if cp := cmd.String("force-zip-cp"); len(cp) > 0 {
		if w.CodePage, err = source.CodePage(cp); err != nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			w.CodePage = nil
		}
	}

	log.Info("Checking starting", zap.String("source", src))
	start := time.Now()

	stats, err := w.Walk(ctx, src)
	if err != nil {
		return err
	}
	log.Info("Checking completed",
		zap.Int("documents", stats.Documents),
		zap.Int("failed", stats.Failed),
		zap.Duration("elapsed", time.Since(start)))

	if stats.Failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrViolations, stats.Failed, stats.Documents)
	}
	return nil
}

// document parses single document and checks it. Every violation is logged,
// all of them are returned combined.
func document(ctx context.Context, r io.Reader, name string, log *zap.Logger) error {
	cfg := state.EnvFromContext(ctx).Cfg.Format

	tree, err := doc.Parse(r, doc.WithIgnorable(cfg.Ignore...), doc.WithRootTag(cfg.RootTag))
	if err != nil {
		return err
	}

	err = tree.Check(cfg.Marks...)
	for _, e := range multierr.Errors(err) {
		log.Warn("Violation", zap.String("document", name), zap.Error(e))
	}
	if err != nil {
		return fmt.Errorf("%d violation(s)", len(multierr.Errors(err)))
	}
	log.Debug("Document is normalized", zap.String("document", name), zap.Stringer("tree", tree.ID()))
	return nil
}
