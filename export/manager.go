// Package export renders computed trajectories into the text formats robot
// path followers consume, and into PNG previews.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/multierr"

	"github.com/vlarkus/blitz/core"
	"github.com/vlarkus/blitz/internal/logging"
	"github.com/vlarkus/blitz/internal/observability"
	"github.com/vlarkus/blitz/model"
)

var (
	// ErrUnknownFormat is returned when no format is registered under a name.
	ErrUnknownFormat = errors.New("unknown export format")
	// ErrNotExportable is returned for trajectories with fewer than two
	// control points.
	ErrNotExportable = errors.New("trajectory needs at least two control points")
	// ErrSingleTrajectoryFormat is returned by FormatAll for formats that
	// cannot hold more than one trajectory.
	ErrSingleTrajectoryFormat = errors.New("format holds a single trajectory")
	// ErrDuplicateFormat is returned when registering a name twice.
	ErrDuplicateFormat = errors.New("export format already registered")
)

// Format renders one trajectory's follow points.
type Format interface {
	Name() string
	Write(w io.Writer, tr *model.Trajectory, fps []core.FollowPoint) error
}

// MultiFormat is a Format that can also hold several trajectories in one
// document.
type MultiFormat interface {
	Format
	WriteAll(w io.Writer, items []Item) error
}

// Item pairs a trajectory with its computed follow points.
type Item struct {
	Trajectory *model.Trajectory
	Points     []core.FollowPoint
}

// Recorder receives engine measurements. *observability.EngineCollector
// satisfies it.
type Recorder interface {
	ObserveCompute(d time.Duration, points int)
	ObserveExport(format, result string, bytes int)
}

// ComputeFunc produces follow points for a trajectory.
type ComputeFunc func(tr *model.Trajectory) ([]core.FollowPoint, error)

// Manager owns a set of named formats. It is safe for concurrent use.
type Manager struct {
	mu      sync.RWMutex
	formats map[string]Format

	compute  ComputeFunc
	recorder Recorder
	log      logging.Logger
	unit     Unit
}

// Option configures a Manager.
type Option func(*Manager)

// WithRecorder reports compute and export measurements to r.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// WithLogger sets the manager's logger.
func WithLogger(l logging.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithCompute replaces the follow-point computation, e.g. to use a custom
// speed profile.
func WithCompute(fn ComputeFunc) Option {
	return func(m *Manager) {
		if fn != nil {
			m.compute = fn
		}
	}
}

// WithSourceUnit sets the length unit trajectories are drawn in, for formats
// that convert units.
func WithSourceUnit(u Unit) Option {
	return func(m *Manager) {
		if u > 0 {
			m.unit = u
		}
	}
}

// NewManager returns a manager with the built-in formats registered.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		formats: make(map[string]Format),
		compute: core.ComputeForTrajectory,
		log:     logging.Noop(),
		unit:    Meters,
	}
	for _, opt := range opts {
		opt(m)
	}
	for _, f := range []Format{LemLib{}, JerryIO{Source: m.unit}, FTC14423Swerve{}} {
		m.formats[f.Name()] = f
	}
	return m
}

// Register adds f under f.Name().
func (m *Manager) Register(f Format) error {
	if f == nil {
		return fmt.Errorf("register format: %w", model.ErrNullArgument)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.formats[f.Name()]; ok {
		return fmt.Errorf("register %q: %w", f.Name(), ErrDuplicateFormat)
	}
	m.formats[f.Name()] = f
	return nil
}

// Formats lists the registered format names in lexical order.
func (m *Manager) Formats() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.formats))
	for name := range m.formats {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Lookup returns the format registered under name.
func (m *Manager) Lookup(name string) (Format, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.formats[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
	return f, nil
}

// FollowPoints computes tr's follow points, recording a span and metrics.
func (m *Manager) FollowPoints(ctx context.Context, tr *model.Trajectory) ([]core.FollowPoint, error) {
	if tr == nil {
		return nil, fmt.Errorf("follow points: %w", model.ErrNullArgument)
	}
	ctx, span := observability.Tracer().Start(ctx, "core.ComputeFollowPoints")
	defer span.End()
	span.SetAttributes(
		attribute.String("trajectory.name", tr.Name()),
		attribute.Int("trajectory.control_points", tr.Len()),
		attribute.String("trajectory.spline", string(tr.Spline())),
	)

	start := time.Now()
	fps, err := m.compute(tr)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("follow_points", len(fps)))
	if m.recorder != nil {
		m.recorder.ObserveCompute(elapsed, len(fps))
	}
	m.log.Debug(ctx, "follow points computed",
		logging.String("trajectory", tr.Name()),
		logging.Int("points", len(fps)),
		logging.String("elapsed", elapsed.String()),
	)
	return fps, nil
}

// Format renders tr in the named format. Trajectories with fewer than two
// control points produce no output and ErrNotExportable.
func (m *Manager) Format(ctx context.Context, tr *model.Trajectory, name string) (string, error) {
	ctx, span := observability.Tracer().Start(ctx, "export.Format")
	defer span.End()
	span.SetAttributes(attribute.String("export.format", name))

	out, err := m.format(ctx, tr, name)
	m.observe(ctx, name, out, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.Int("export.bytes", len(out)))
	return out, nil
}

func (m *Manager) format(ctx context.Context, tr *model.Trajectory, name string) (string, error) {
	if tr == nil {
		return "", fmt.Errorf("format: %w", model.ErrNullArgument)
	}
	f, err := m.Lookup(name)
	if err != nil {
		return "", err
	}
	if tr.Len() < 2 {
		return "", fmt.Errorf("export %q: %w", tr.Name(), ErrNotExportable)
	}
	fps, err := m.FollowPoints(ctx, tr)
	if err != nil {
		return "", fmt.Errorf("export %q: %w", tr.Name(), err)
	}

	var b strings.Builder
	if err := f.Write(&b, tr, fps); err != nil {
		return "", fmt.Errorf("export %q as %s: %w", tr.Name(), name, err)
	}
	return b.String(), nil
}

// FormatAll renders every trajectory into one document. The format must be
// a MultiFormat. Every non-exportable trajectory is reported; nothing is
// rendered unless all of them are exportable.
func (m *Manager) FormatAll(ctx context.Context, trs []*model.Trajectory, name string) (string, error) {
	ctx, span := observability.Tracer().Start(ctx, "export.FormatAll")
	defer span.End()
	span.SetAttributes(
		attribute.String("export.format", name),
		attribute.Int("export.trajectories", len(trs)),
	)

	out, err := m.formatAll(ctx, trs, name)
	m.observe(ctx, name, out, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return out, nil
}

func (m *Manager) formatAll(ctx context.Context, trs []*model.Trajectory, name string) (string, error) {
	f, err := m.Lookup(name)
	if err != nil {
		return "", err
	}
	multi, ok := f.(MultiFormat)
	if !ok {
		return "", fmt.Errorf("%q: %w", name, ErrSingleTrajectoryFormat)
	}
	if len(trs) == 0 {
		return "", fmt.Errorf("export all: no trajectories: %w", ErrNotExportable)
	}

	var errs error
	for i, tr := range trs {
		switch {
		case tr == nil:
			errs = multierr.Append(errs, fmt.Errorf("trajectory %d: %w", i, model.ErrNullArgument))
		case tr.Len() < 2:
			errs = multierr.Append(errs, fmt.Errorf("export %q: %w", tr.Name(), ErrNotExportable))
		}
	}
	if errs != nil {
		return "", errs
	}

	items := make([]Item, 0, len(trs))
	for _, tr := range trs {
		fps, err := m.FollowPoints(ctx, tr)
		if err != nil {
			return "", fmt.Errorf("export %q: %w", tr.Name(), err)
		}
		items = append(items, Item{Trajectory: tr, Points: fps})
	}

	var b strings.Builder
	if err := multi.WriteAll(&b, items); err != nil {
		return "", fmt.Errorf("export all as %s: %w", name, err)
	}
	return b.String(), nil
}

func (m *Manager) observe(ctx context.Context, format, out string, err error) {
	result := resultLabel(err)
	if m.recorder != nil {
		m.recorder.ObserveExport(format, result, len(out))
	}
	if err != nil {
		m.log.Warn(ctx, "export failed", logging.String("format", format), logging.String("result", result), logging.Err(err))
		return
	}
	m.log.Info(ctx, "export rendered", logging.String("format", format), logging.Int("bytes", len(out)))
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnknownFormat):
		return "unknown_format"
	case errors.Is(err, ErrNotExportable):
		return "not_exportable"
	case errors.Is(err, model.ErrNullArgument):
		return "null_argument"
	default:
		return "error"
	}
}
