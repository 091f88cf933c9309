// Package pathsvc exposes follow-point computation and export over gRPC.
package pathsvc

import (
	"bytes"
	"context"
	"fmt"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/vlarkus/blitz/export"
	"github.com/vlarkus/blitz/internal/logging"
	"github.com/vlarkus/blitz/internal/observability"
	"github.com/vlarkus/blitz/kb"
	"github.com/vlarkus/blitz/model"
	"github.com/vlarkus/blitz/store"
)

// Server implements PathServiceServer on top of an export.Manager.
type Server struct {
	cfg       model.Config
	exports   *export.Manager
	collector *observability.RPCCollector
	log       logging.Logger
}

// NewServer returns a Server that builds trajectories with cfg and renders
// them through exports. collector may be nil.
func NewServer(cfg model.Config, exports *export.Manager, collector *observability.RPCCollector, log logging.Logger) *Server {
	if exports == nil {
		exports = export.NewManager()
	}
	if log == nil {
		log = logging.Noop()
	}
	return &Server{cfg: cfg.ApplyDefaults(), exports: exports, collector: collector, log: log}
}

// NewGRPCServer builds a grpc.Server with request IDs, tracing and metrics
// interceptors, and registers srv on it.
func NewGRPCServer(srv *Server, opts ...grpc.ServerOption) *grpc.Server {
	interceptors := []grpc.UnaryServerInterceptor{
		RequestIDUnaryServerInterceptor(srv.log),
		TracingUnaryServerInterceptor(),
	}
	if srv.collector != nil {
		interceptors = append(interceptors, srv.collector.UnaryServerInterceptor())
	}
	base := []grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(interceptors...),
	}
	gs := grpc.NewServer(append(base, opts...)...)
	RegisterPathServiceServer(gs, srv)
	return gs
}

// ListFormats returns the registered export format names.
func (s *Server) ListFormats(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	names := s.exports.Formats()
	values := make([]*structpb.Value, 0, len(names))
	for _, name := range names {
		values = append(values, structpb.NewStringValue(name))
	}
	return &structpb.ListValue{Values: values}, nil
}

// ComputeFollowPoints computes the follow points of req["trajectory"].
func (s *Server) ComputeFollowPoints(ctx context.Context, req *structpb.Struct) (*structpb.ListValue, error) {
	tr, err := s.trajectoryField(ctx, req, "trajectory")
	if err != nil {
		return nil, ToStatusError(err)
	}
	s.observeDocument(tr)

	fps, err := s.exports.FollowPoints(ctx, tr)
	if err != nil {
		return nil, ToStatusError(err)
	}

	values := make([]*structpb.Value, 0, len(fps))
	for _, fp := range fps {
		source := ""
		if fp.Source != nil {
			source = fp.Source.Name()
		}
		values = append(values, structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"x":      structpb.NewNumberValue(fp.Position.X),
			"y":      structpb.NewNumberValue(fp.Position.Y),
			"speed":  structpb.NewNumberValue(fp.Speed),
			"source": structpb.NewStringValue(source),
		}}))
	}
	return &structpb.ListValue{Values: values}, nil
}

// Export renders req["trajectory"] or every entry of req["trajectories"] in
// req["format"].
func (s *Server) Export(ctx context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error) {
	format := req.GetFields()["format"].GetStringValue()
	if format == "" {
		return nil, ToStatusError(fmt.Errorf("%w: format is required", ErrInvalidRequest))
	}

	fields := req.GetFields()
	_, single := fields["trajectory"]
	_, multi := fields["trajectories"]
	switch {
	case single && multi:
		return nil, ToStatusError(fmt.Errorf("%w: set trajectory or trajectories, not both", ErrInvalidRequest))
	case single:
		tr, err := s.trajectoryField(ctx, req, "trajectory")
		if err != nil {
			return nil, ToStatusError(err)
		}
		s.observeDocument(tr)
		out, err := s.exports.Format(ctx, tr, format)
		if err != nil {
			return nil, ToStatusError(err)
		}
		return wrapperspb.String(out), nil
	case multi:
		doc, err := s.documentField(ctx, req)
		if err != nil {
			return nil, ToStatusError(err)
		}
		trs := doc.ListTrajectories()
		s.observeDocument(trs...)
		out, err := s.exports.FormatAll(ctx, trs, format)
		if err != nil {
			return nil, ToStatusError(err)
		}
		return wrapperspb.String(out), nil
	default:
		return nil, ToStatusError(fmt.Errorf("%w: trajectory or trajectories is required", ErrInvalidRequest))
	}
}

func (s *Server) trajectoryField(ctx context.Context, req *structpb.Struct, key string) (*model.Trajectory, error) {
	ctx, span := startChildSpan(ctx, "pathsvc.decodeTrajectory", attribute.String("field", key))
	defer span.End()

	raw := req.GetFields()[key].GetStructValue()
	if raw == nil {
		return nil, fmt.Errorf("%w: %s must be an object", ErrInvalidRequest, key)
	}
	data, err := protojson.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRequest, key, err)
	}
	tr, err := store.LoadTrajectory(bytes.NewReader(data), s.cfg)
	if err != nil {
		loggerFrom(ctx, s.log).Debug(ctx, "trajectory rejected", logging.Err(err))
		return nil, err
	}
	return tr, nil
}

func (s *Server) documentField(ctx context.Context, req *structpb.Struct) (*kb.KnowledgeBase, error) {
	ctx, span := startChildSpan(ctx, "pathsvc.decodeDocument")
	defer span.End()

	list := req.GetFields()["trajectories"].GetListValue()
	if list == nil {
		return nil, fmt.Errorf("%w: trajectories must be a list", ErrInvalidRequest)
	}
	wrapper := &structpb.Struct{Fields: map[string]*structpb.Value{
		"trajectories": structpb.NewListValue(list),
	}}
	data, err := protojson.Marshal(wrapper)
	if err != nil {
		return nil, fmt.Errorf("%w: trajectories: %v", ErrInvalidRequest, err)
	}
	doc, err := store.Load(bytes.NewReader(data), s.cfg)
	if err != nil {
		loggerFrom(ctx, s.log).Debug(ctx, "document rejected", logging.Err(err))
		return nil, err
	}
	return doc, nil
}

func (s *Server) observeDocument(trs ...*model.Trajectory) {
	if s.collector == nil {
		return
	}
	points := 0
	for _, tr := range trs {
		points += tr.Len()
	}
	s.collector.SetDocumentCounts(len(trs), points)
}
