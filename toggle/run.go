// Package toggle implements command which applies or removes a formatting
// mark over a selection of a single document.
package toggle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"markfmt/doc"
	"markfmt/editor"
	"markfmt/format"
	"markfmt/state"
	"markfmt/utils/debug"
)

type options struct {
	mark     string
	start    string
	end      string
	fragment bool
}

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("toggle")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	if src, err = filepath.Abs(src); err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) > 0 {
		if dst, err = filepath.Abs(dst); err != nil {
			return err
		}
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	opts := options{
		mark:     cmd.String("mark"),
		start:    cmd.String("start"),
		end:      cmd.String("end"),
		fragment: cmd.Bool("fragment"),
	}
	env.Overwrite = cmd.Bool("overwrite")

	if len(dst) > 0 && !env.Overwrite {
		if _, err := os.Stat(dst); err == nil {
			return fmt.Errorf("output file already exists: %s", dst)
		}
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst), zap.String("mark", opts.mark))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	if err := env.Rpt.StoreCopy("source/"+filepath.Base(src), src); err != nil {
		log.Warn("Unable to store source in report", zap.Error(err))
	}

	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("unable to open source: %w", err)
	}
	defer f.Close()

	out, err := process(ctx, f, src, opts, log)
	if err != nil {
		return err
	}

	if len(dst) == 0 {
		_, err = io.WriteString(os.Stdout, out)
		return err
	}
	if err := os.WriteFile(dst, []byte(out), 0644); err != nil {
		return fmt.Errorf("unable to write destination: %w", err)
	}
	env.Rpt.Store("result/"+filepath.Base(dst), dst)
	return nil
}

// process toggles mark in the document read from r and returns resulting
// markup. src is used for logging and report naming only.
func process(ctx context.Context, r io.Reader, src string, opts options, log *zap.Logger) (out string, err error) {
	env := state.EnvFromContext(ctx)
	cfg := env.Cfg.Format

	// output replaces the source, refuse what cannot be written back
	parseOpts := []doc.ParseOption{doc.WithIgnorable(cfg.Ignore...), doc.WithRootTag(cfg.RootTag), doc.WithLossless()}

	var tree *doc.Tree
	if opts.fragment {
		data, rerr := io.ReadAll(r)
		if rerr != nil {
			return "", fmt.Errorf("unable to read source: %w", rerr)
		}
		tree, err = doc.ParseFragment(string(data), parseOpts...)
	} else {
		tree, err = doc.Parse(r, parseOpts...)
	}
	if err != nil {
		return "", err
	}

	// report entries are named after the source to tell runs apart
	base := slug.Make(strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)))
	if base == "" {
		base = "document"
	}
	log = log.With(zap.Stringer("tree", tree.ID()))

	// tree states go into report even when toggling fails
	dump := debug.NewTreeWriter()
	dump.Line(0, "Source: %s", src)
	dump.Line(0, "Toggle <%s> start=%q end=%q", opts.mark, opts.start, opts.end)
	dump.Line(0, "Before:")
	dump.Lines(1, tree.String())
	defer func() {
		if err != nil {
			dump.Line(0, "Failed: %v", err)
		}
		dump.Line(0, "After:")
		dump.Lines(1, tree.String())
		env.Rpt.StoreData(fmt.Sprintf("trees/%s-%s.txt", base, tree.ID()), []byte(dump.String()))
	}()

	ed := editor.New(tree, log, cfg.Ignore...)
	if opts.start != "" {
		start, err := parseAnchor(tree, opts.start)
		if err != nil {
			return "", err
		}
		end := start
		if opts.end != "" {
			if end, err = parseAnchor(tree, opts.end); err != nil {
				return "", err
			}
		}
		if err := ed.SetSelection(doc.Range{Start: start, End: end}); err != nil {
			return "", err
		}
	}

	f := format.New(ed, log, cfg.Marks...)
	res, err := f.Toggle(opts.mark, nil)
	if err != nil {
		return "", fmt.Errorf("unable to toggle <%s>: %w", opts.mark, err)
	}
	if err := ed.SetSelection(res.Range()); err != nil {
		return "", fmt.Errorf("unable to restore selection: %w", err)
	}
	dump.Line(0, "Result: start=%s end=%s count=%d", formatAnchor(tree, res.Start), formatAnchor(tree, res.End), res.Count)

	if err := tree.Check(f.Marks()...); err != nil {
		// formatting must never break the tree, leave evidence and refuse
		// to produce output
		log.Error("Tree is not normalized after formatting", zap.Error(err))
		return "", fmt.Errorf("formatting produced inconsistent tree: %w", err)
	}

	log.Info("Mark toggled",
		zap.String("mark", opts.mark),
		zap.String("start", formatAnchor(tree, res.Start)),
		zap.String("end", formatAnchor(tree, res.End)),
		zap.Int("count", res.Count))

	if opts.fragment {
		return tree.InnerMarkup(tree.Root()), nil
	}
	return tree.Document(), nil
}
