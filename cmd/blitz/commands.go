package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/vlarkus/blitz/export"
	"github.com/vlarkus/blitz/internal/logging"
	"github.com/vlarkus/blitz/internal/watch"
	"github.com/vlarkus/blitz/model"
	"github.com/vlarkus/blitz/store"
)

func documentArg(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", fmt.Errorf("%s: expected exactly one document path", c.Command.Name)
	}
	return c.Args().First(), nil
}

func trajectoryFlag() *cli.StringSliceFlag {
	return &cli.StringSliceFlag{
		Name:    flagTrajectory,
		Aliases: []string{"t"},
		Usage:   "trajectory `NAME` to use; repeat for several, omit for all",
	}
}

// selectTrajectories loads path and returns the named trajectories in the
// order given, or every trajectory when names is empty.
func selectTrajectories(e *env, path string, names []string) ([]*model.Trajectory, error) {
	doc, err := store.LoadFile(path, e.cfg)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return doc.ListTrajectories(), nil
	}
	out := make([]*model.Trajectory, 0, len(names))
	for _, name := range names {
		tr, err := doc.GetTrajectory(name)
		if err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, nil
}

const outputFileMode os.FileMode = 0o644

// withOutput runs fn against path, or the app writer for "" and "-". Files
// are only replaced once fn has succeeded, and are left world-readable.
func withOutput(c *cli.Context, path string, fn func(w io.Writer) error) error {
	if path == "" || path == "-" {
		return fn(c.App.Writer)
	}
	f, err := os.CreateTemp(filepath.Dir(path), ".blitz-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := fn(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Chmod(outputFileMode); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func formatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "formats",
		Usage: "list export formats",
		Action: func(c *cli.Context) error {
			e, err := envFrom(c)
			if err != nil {
				return err
			}
			for _, name := range e.exports.Formats() {
				fmt.Fprintln(c.App.Writer, name)
			}
			return nil
		},
	}
}

func pointsCommand() *cli.Command {
	return &cli.Command{
		Name:      "points",
		Usage:     "print follow points as x, y, speed, source",
		ArgsUsage: "<document>",
		Flags:     []cli.Flag{trajectoryFlag()},
		Action: func(c *cli.Context) error {
			e, err := envFrom(c)
			if err != nil {
				return err
			}
			path, err := documentArg(c)
			if err != nil {
				return err
			}
			trs, err := selectTrajectories(e, path, c.StringSlice(flagTrajectory))
			if err != nil {
				return err
			}
			for _, tr := range trs {
				fps, err := e.exports.FollowPoints(c.Context, tr)
				if err != nil {
					return fmt.Errorf("%q: %w", tr.Name(), err)
				}
				if len(trs) > 1 {
					fmt.Fprintf(c.App.Writer, "# %s\n", tr.Name())
				}
				for _, fp := range fps {
					source := ""
					if fp.Source != nil {
						source = fp.Source.Name()
					}
					fmt.Fprintf(c.App.Writer, "%.4f, %.4f, %.4f, %s\n", fp.Position.X, fp.Position.Y, fp.Speed, source)
				}
			}
			return nil
		},
	}
}

func exportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    flagFormat,
			Aliases: []string{"f"},
			Value:   export.LemLibName,
			Usage:   "export format `NAME`; see the formats command",
		},
		trajectoryFlag(),
		&cli.StringFlag{
			Name:    flagOut,
			Aliases: []string{"o"},
			Usage:   "write to `FILE` instead of stdout",
		},
	}
}

// exportDocument renders the selected trajectories of path. A single
// trajectory goes through Format, several through FormatAll.
func exportDocument(ctx context.Context, e *env, path, format string, names []string) (string, error) {
	trs, err := selectTrajectories(e, path, names)
	if err != nil {
		return "", err
	}
	if len(trs) == 1 {
		return e.exports.Format(ctx, trs[0], format)
	}
	return e.exports.FormatAll(ctx, trs, format)
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "export trajectories from a document",
		ArgsUsage: "<document>",
		Flags:     exportFlags(),
		Action: func(c *cli.Context) error {
			e, err := envFrom(c)
			if err != nil {
				return err
			}
			path, err := documentArg(c)
			if err != nil {
				return err
			}
			out, err := exportDocument(c.Context, e, path, c.String(flagFormat), c.StringSlice(flagTrajectory))
			if err != nil {
				return err
			}
			return withOutput(c, c.String(flagOut), func(w io.Writer) error {
				_, err := io.WriteString(w, out)
				return err
			})
		},
	}
}

func previewCommand() *cli.Command {
	def := export.DefaultPreviewOptions()
	return &cli.Command{
		Name:      "preview",
		Usage:     "render trajectories and their follow points to PNG",
		ArgsUsage: "<document>",
		Flags: []cli.Flag{
			trajectoryFlag(),
			&cli.StringFlag{Name: flagOut, Aliases: []string{"o"}, Required: true, Usage: "PNG `FILE` to write"},
			&cli.IntFlag{Name: flagWidth, Value: def.Width, Usage: "image width in pixels"},
			&cli.IntFlag{Name: flagHeight, Value: def.Height, Usage: "image height in pixels"},
			&cli.Float64Flag{Name: flagScale, Usage: "pixels per field unit; 0 fits the drawing"},
		},
		Action: func(c *cli.Context) error {
			e, err := envFrom(c)
			if err != nil {
				return err
			}
			path, err := documentArg(c)
			if err != nil {
				return err
			}
			trs, err := selectTrajectories(e, path, c.StringSlice(flagTrajectory))
			if err != nil {
				return err
			}
			opts := def
			opts.Width = c.Int(flagWidth)
			opts.Height = c.Int(flagHeight)
			opts.Scale = c.Float64(flagScale)
			return withOutput(c, c.String(flagOut), func(w io.Writer) error {
				return e.exports.WritePreview(c.Context, w, trs, opts)
			})
		},
	}
}

func watchCommand() *cli.Command {
	flags := exportFlags()
	for _, f := range flags {
		if sf, ok := f.(*cli.StringFlag); ok && sf.Name == flagOut {
			sf.Required = true
			sf.Usage = "`FILE` rewritten after every change"
		}
	}
	return &cli.Command{
		Name:      "watch",
		Usage:     "re-export a document every time it is saved",
		ArgsUsage: "<document>",
		Flags:     flags,
		Action: func(c *cli.Context) error {
			e, err := envFrom(c)
			if err != nil {
				return err
			}
			path, err := documentArg(c)
			if err != nil {
				return err
			}
			format, names, outPath := c.String(flagFormat), c.StringSlice(flagTrajectory), c.String(flagOut)
			if _, err := e.exports.Lookup(format); err != nil {
				return err
			}

			ctx, stop := notifyContext(c.Context)
			defer stop()

			return watch.Run(ctx, path, func(ctx context.Context, path string) error {
				out, err := exportDocument(ctx, e, path, format, names)
				if err != nil {
					return err
				}
				if err := withOutput(c, outPath, func(w io.Writer) error {
					_, err := io.WriteString(w, out)
					return err
				}); err != nil {
					return err
				}
				e.log.Info(ctx, "export refreshed", logging.String("out", outPath), logging.Int("bytes", len(out)))
				return nil
			}, watch.Options{RunOnStart: true, Log: e.log})
		},
	}
}
