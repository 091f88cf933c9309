// Package store reads and writes trajectory documents as JSON.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"

	"github.com/vlarkus/blitz/kb"
	"github.com/vlarkus/blitz/model"
)

// ErrInvalidDocument wraps every validation failure reported by Load.
var ErrInvalidDocument = errors.New("invalid trajectory document")

// internal JSON shapes, kept unexported so the on-disk format can evolve
// without touching the model.
type documentJSON struct {
	Trajectories []trajectoryJSON `json:"trajectories"`
}

type trajectoryJSON struct {
	Name          string             `json:"name"`
	MinSpeed      *float64           `json:"minSpeed,omitempty"`
	MaxSpeed      *float64           `json:"maxSpeed,omitempty"`
	MinBentRate   *float64           `json:"minBentRate,omitempty"`
	MaxBentRate   *float64           `json:"maxBentRate,omitempty"`
	Spline        string             `json:"spline,omitempty"`
	ControlPoints []controlPointJSON `json:"controlPoints"`
}

type controlPointJSON struct {
	Name        string   `json:"name"`
	X           float64  `json:"x"`
	Y           float64  `json:"y"`
	RStart      float64  `json:"rStart"`
	ThetaStart  float64  `json:"thetaStart"`
	REnd        float64  `json:"rEnd"`
	ThetaEnd    float64  `json:"thetaEnd"`
	NumSegments int      `json:"numSegments"`
	Time        float64  `json:"time"`
	Symmetry    string   `json:"symmetry"`
	Locked      bool     `json:"locked,omitempty"`
	Heading     *float64 `json:"heading,omitempty"`
}

// Load decodes a document from r into a new KnowledgeBase built with cfg.
// Every record is validated and all problems are reported together; on any
// problem no document is returned.
func Load(r io.Reader, cfg model.Config) (*kb.KnowledgeBase, error) {
	var payload documentJSON
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrInvalidDocument, err)
	}

	doc := kb.NewKnowledgeBase(cfg)
	cfg = doc.Config()

	var errs error
	seen := make(map[string]int, len(payload.Trajectories))
	built := make([]*model.Trajectory, 0, len(payload.Trajectories))
	for i, js := range payload.Trajectories {
		tr, err := buildTrajectory(cfg, js, fmt.Sprintf("trajectories[%d]", i))
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if first, dup := seen[tr.Name()]; dup {
			errs = multierr.Append(errs, fmt.Errorf("trajectories[%d]: name %q already used by trajectories[%d]", i, tr.Name(), first))
			continue
		}
		seen[tr.Name()] = i
		built = append(built, tr)
	}
	if errs != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, errs)
	}

	for _, tr := range built {
		if err := doc.AddTrajectory(tr); err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
	}
	return doc, nil
}

// LoadTrajectory decodes a single trajectory record from r.
func LoadTrajectory(r io.Reader, cfg model.Config) (*model.Trajectory, error) {
	var js trajectoryJSON
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&js); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrInvalidDocument, err)
	}
	tr, err := buildTrajectory(cfg.ApplyDefaults(), js, "trajectory")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return tr, nil
}

// Save writes doc as indented JSON.
func Save(w io.Writer, doc *kb.KnowledgeBase) error {
	if doc == nil {
		return fmt.Errorf("store: save: %w", model.ErrNullArgument)
	}
	trs := doc.ListTrajectories()
	payload := documentJSON{Trajectories: make([]trajectoryJSON, 0, len(trs))}
	for _, tr := range trs {
		payload.Trajectories = append(payload.Trajectories, toJSON(tr))
	}
	return encode(w, payload)
}

// SaveTrajectory writes a single trajectory record.
func SaveTrajectory(w io.Writer, tr *model.Trajectory) error {
	if tr == nil {
		return fmt.Errorf("store: save trajectory: %w", model.ErrNullArgument)
	}
	return encode(w, toJSON(tr))
}

// LoadFile is Load on the named file.
func LoadFile(path string, cfg model.Config) (*kb.KnowledgeBase, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	defer f.Close()

	doc, err := Load(f, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// SaveFile writes doc to path through a temporary file in the same
// directory, so readers never observe a partial document.
func SaveFile(path string, doc *kb.KnowledgeBase) error {
	var buf bytes.Buffer
	if err := Save(&buf, doc); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("store: write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return nil
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("store: encode failed: %w", err)
	}
	return nil
}

func toJSON(tr *model.Trajectory) trajectoryJSON {
	minSpeed, maxSpeed := tr.MinSpeed(), tr.MaxSpeed()
	minBent, maxBent := tr.MinBentRate(), tr.MaxBentRate()
	js := trajectoryJSON{
		Name:          tr.Name(),
		MinSpeed:      &minSpeed,
		MaxSpeed:      &maxSpeed,
		MinBentRate:   &minBent,
		MaxBentRate:   &maxBent,
		Spline:        string(tr.Spline()),
		ControlPoints: make([]controlPointJSON, 0, tr.Len()),
	}
	for _, cp := range tr.ControlPoints() {
		js.ControlPoints = append(js.ControlPoints, controlPointJSON{
			Name:        cp.Name(),
			X:           cp.X(),
			Y:           cp.Y(),
			RStart:      cp.RStart(),
			ThetaStart:  cp.ThetaStart(),
			REnd:        cp.REnd(),
			ThetaEnd:    cp.ThetaEnd(),
			NumSegments: cp.NumSegments(),
			Time:        cp.Time(),
			Symmetry:    cp.Symmetry().String(),
			Locked:      cp.Locked(),
			Heading:     headingJSON(cp),
		})
	}
	return js
}

// buildTrajectory validates js and constructs the trajectory. Every problem
// found is returned, each prefixed with its location.
func buildTrajectory(cfg model.Config, js trajectoryJSON, where string) (*model.Trajectory, error) {
	var errs error

	tr := model.NewTrajectory(cfg, js.Name)

	spline, err := model.ParseSplineKind(js.Spline)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("%s: %w", where, err))
	} else {
		tr.SetSpline(spline)
	}

	minSpeed := valueOr(js.MinSpeed, tr.MinSpeed())
	maxSpeed := valueOr(js.MaxSpeed, tr.MaxSpeed())
	if !tr.SetSpeedBounds(minSpeed, maxSpeed) {
		errs = multierr.Append(errs, fmt.Errorf("%s: invalid speed bounds [%v, %v]", where, minSpeed, maxSpeed))
	}
	minBent := valueOr(js.MinBentRate, tr.MinBentRate())
	maxBent := valueOr(js.MaxBentRate, tr.MaxBentRate())
	if !tr.SetBentRateBounds(minBent, maxBent) {
		errs = multierr.Append(errs, fmt.Errorf("%s: invalid bent rate bounds [%v, %v]", where, minBent, maxBent))
	}

	for i, cpj := range js.ControlPoints {
		cp, err := buildControlPoint(cfg, cpj, fmt.Sprintf("%s.controlPoints[%d]", where, i))
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if err := tr.Add(cp); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s.controlPoints[%d]: %w", where, i, err))
		}
	}

	if errs != nil {
		return nil, errs
	}
	return tr, nil
}

func buildControlPoint(cfg model.Config, js controlPointJSON, where string) (*model.ControlPoint, error) {
	var errs error

	if !model.ValidName(js.Name) {
		errs = multierr.Append(errs, fmt.Errorf("%s: name must not be blank", where))
	}
	if js.NumSegments < cfg.MinNumSegments || js.NumSegments > cfg.MaxNumSegments {
		errs = multierr.Append(errs, fmt.Errorf("%s: numSegments %d outside [%d, %d]",
			where, js.NumSegments, cfg.MinNumSegments, cfg.MaxNumSegments))
	}
	if js.Time < cfg.MinTime {
		errs = multierr.Append(errs, fmt.Errorf("%s: time %v below minimum %v", where, js.Time, cfg.MinTime))
	}
	sym := cfg.DefaultSymmetry
	if strings.TrimSpace(js.Symmetry) != "" {
		var err error
		if sym, err = model.ParseSymmetry(js.Symmetry); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", where, err))
		}
	}
	if errs != nil {
		return nil, errs
	}

	opts := []model.ControlPointOption{
		model.WithHandles(js.RStart, js.ThetaStart, js.REnd, js.ThetaEnd),
		model.WithNumSegments(js.NumSegments),
		model.WithTime(js.Time),
		model.WithSymmetry(sym),
		model.WithLocked(js.Locked),
	}
	if js.Heading != nil {
		opts = append(opts, model.WithHeading(*js.Heading))
	}
	return model.NewControlPoint(cfg, js.Name, js.X, js.Y, opts...), nil
}

func headingJSON(cp *model.ControlPoint) *float64 {
	h, ok := cp.Heading()
	if !ok {
		return nil
	}
	return &h
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
