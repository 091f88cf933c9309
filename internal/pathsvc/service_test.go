package pathsvc

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/vlarkus/blitz/export"
	"github.com/vlarkus/blitz/internal/observability"
	"github.com/vlarkus/blitz/model"
)

const bufSize = 1 << 20

func startTestServer(t *testing.T) (PathServiceClient, *observability.RPCCollector) {
	t.Helper()

	collector, err := observability.NewRPCCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewRPCCollector: %v", err)
	}
	srv := NewServer(model.DefaultConfig(), export.NewManager(), collector, nil)
	gs := NewGRPCServer(srv)

	lis := bufconn.Listen(bufSize)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("grpc.NewClient: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return NewPathServiceClient(conn), collector
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func lineTrajectory(name string, segments int) map[string]interface{} {
	point := func(pname string, x, y float64) map[string]interface{} {
		return map[string]interface{}{
			"name": pname, "x": x, "y": y,
			"rStart": 1, "thetaStart": 180, "rEnd": 1, "thetaEnd": 0,
			"numSegments": segments, "time": 0, "symmetry": "ALIGNED",
		}
	}
	return map[string]interface{}{
		"name":   name,
		"spline": "LINEAR",
		"controlPoints": []interface{}{
			point("start", 0, 0),
			point("end", 10, 0),
		},
	}
}

func mustStruct(t *testing.T, m map[string]interface{}) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatalf("structpb.NewStruct: %v", err)
	}
	return s
}

func TestListFormats(t *testing.T) {
	client, _ := startTestServer(t)

	resp, err := client.ListFormats(testContext(t), &emptypb.Empty{})
	if err != nil {
		t.Fatalf("ListFormats: %v", err)
	}
	var got []string
	for _, v := range resp.GetValues() {
		got = append(got, v.GetStringValue())
	}
	want := export.NewManager().Formats()
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("ListFormats = %v, want %v", got, want)
	}
}

func TestComputeFollowPoints(t *testing.T) {
	client, collector := startTestServer(t)

	req := mustStruct(t, map[string]interface{}{"trajectory": lineTrajectory("line", 4)})
	resp, err := client.ComputeFollowPoints(testContext(t), req)
	if err != nil {
		t.Fatalf("ComputeFollowPoints: %v", err)
	}

	points := resp.GetValues()
	if len(points) != 5 {
		t.Fatalf("len(points) = %d, want 5", len(points))
	}
	first := points[0].GetStructValue().GetFields()
	if first["source"].GetStringValue() != "start" {
		t.Fatalf("first source = %q, want start", first["source"].GetStringValue())
	}
	last := points[4].GetStructValue().GetFields()
	if x, speed := last["x"].GetNumberValue(), last["speed"].GetNumberValue(); x != 10 || speed != 0 {
		t.Fatalf("terminal point x=%v speed=%v, want x=10 speed=0", x, speed)
	}
	if last["source"].GetStringValue() != "end" {
		t.Fatalf("terminal source = %q, want end", last["source"].GetStringValue())
	}

	if got := testutil.ToFloat64(collector.DocumentControlPoints); got != 2 {
		t.Fatalf("document control points gauge = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.RPCRequests.WithLabelValues("PathService", "ComputeFollowPoints", codes.OK.String())); got != 1 {
		t.Fatalf("requests counter = %v, want 1", got)
	}
}

func TestExportSingleTrajectory(t *testing.T) {
	client, _ := startTestServer(t)

	req := mustStruct(t, map[string]interface{}{
		"format":     export.LemLibName,
		"trajectory": lineTrajectory("line", 2),
	})
	var header metadata.MD
	resp, err := client.Export(testContext(t), req, grpc.Header(&header))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(resp.GetValue(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("exported %d lines, want 3 points and endData:\n%s", len(lines), resp.GetValue())
	}
	if !strings.HasSuffix(lines[0], ",") || strings.HasSuffix(lines[2], ",") {
		t.Fatalf("comma placement wrong:\n%s", resp.GetValue())
	}
	if lines[2] != "10.0000, 0.0000, 0.0000" {
		t.Fatalf("terminal line = %q", lines[2])
	}
	if lines[3] != "endData" {
		t.Fatalf("last line = %q, want endData", lines[3])
	}
	if len(header.Get(requestIDMetadataKey)) == 0 {
		t.Fatal("response carries no request id header")
	}
}

func TestExportManyTrajectories(t *testing.T) {
	client, _ := startTestServer(t)

	req := mustStruct(t, map[string]interface{}{
		"format":       export.JerryIOName,
		"trajectories": []interface{}{lineTrajectory("first", 2), lineTrajectory("second", 3)},
	})
	resp, err := client.Export(testContext(t), req)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	out := resp.GetValue()
	if !strings.HasSuffix(strings.TrimSpace(out), export.JerryIOFooter) {
		t.Fatalf("output does not end with footer:\n%s", out)
	}
}

func TestExportErrors(t *testing.T) {
	client, _ := startTestServer(t)

	onePoint := lineTrajectory("short", 2)
	onePoint["controlPoints"] = onePoint["controlPoints"].([]interface{})[:1]

	bogusField := lineTrajectory("bogus", 2)
	bogusField["bogus"] = true

	fractional := lineTrajectory("fractional", 2)
	fractional["controlPoints"].([]interface{})[0].(map[string]interface{})["numSegments"] = 2.5

	twins := lineTrajectory("twins", 2)
	twins["controlPoints"].([]interface{})[1].(map[string]interface{})["name"] = "start"

	tests := []struct {
		name string
		req  map[string]interface{}
		code codes.Code
	}{
		{name: "missing format", req: map[string]interface{}{"trajectory": lineTrajectory("a", 2)}, code: codes.InvalidArgument},
		{name: "missing trajectory", req: map[string]interface{}{"format": export.LemLibName}, code: codes.InvalidArgument},
		{
			name: "both fields",
			req: map[string]interface{}{
				"format":       export.LemLibName,
				"trajectory":   lineTrajectory("a", 2),
				"trajectories": []interface{}{lineTrajectory("b", 2)},
			},
			code: codes.InvalidArgument,
		},
		{name: "unknown format", req: map[string]interface{}{"format": "csv", "trajectory": lineTrajectory("a", 2)}, code: codes.NotFound},
		{name: "too few points", req: map[string]interface{}{"format": export.LemLibName, "trajectory": onePoint}, code: codes.FailedPrecondition},
		{
			name: "single trajectory format",
			req: map[string]interface{}{
				"format":       export.LemLibName,
				"trajectories": []interface{}{lineTrajectory("a", 2)},
			},
			code: codes.FailedPrecondition,
		},
		{
			name: "duplicate names",
			req: map[string]interface{}{
				"format":       export.JerryIOName,
				"trajectories": []interface{}{lineTrajectory("a", 2), lineTrajectory("a", 2)},
			},
			code: codes.InvalidArgument,
		},
		{
			name: "invalid segments",
			req:  map[string]interface{}{"format": export.LemLibName, "trajectory": lineTrajectory("a", 0)},
			code: codes.InvalidArgument,
		},
		{name: "unknown field", req: map[string]interface{}{"format": export.LemLibName, "trajectory": bogusField}, code: codes.InvalidArgument},
		{name: "fractional segments", req: map[string]interface{}{"format": export.LemLibName, "trajectory": fractional}, code: codes.InvalidArgument},
		{
			name: "fractional segments in document",
			req:  map[string]interface{}{"format": export.JerryIOName, "trajectories": []interface{}{fractional}},
			code: codes.InvalidArgument,
		},
		{name: "duplicate point names", req: map[string]interface{}{"format": export.LemLibName, "trajectory": twins}, code: codes.InvalidArgument},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := client.Export(testContext(t), mustStruct(t, tc.req))
			if code := status.Code(err); code != tc.code {
				t.Fatalf("Export code = %v (%v), want %v", code, err, tc.code)
			}
		})
	}
}

func TestRequestIDIsPropagated(t *testing.T) {
	client, _ := startTestServer(t)

	ctx := metadata.AppendToOutgoingContext(testContext(t), requestIDMetadataKey, "req-42")
	var header metadata.MD
	if _, err := client.ListFormats(ctx, &emptypb.Empty{}, grpc.Header(&header)); err != nil {
		t.Fatalf("ListFormats: %v", err)
	}
	if got := header.Get(requestIDMetadataKey); len(got) != 1 || got[0] != "req-42" {
		t.Fatalf("request id header = %v, want [req-42]", got)
	}
}
