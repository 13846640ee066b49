// Package grpcserver exposes the catalog read path over gRPC.
//
// Services:
//
//	grpc.health.v1.Health
//	jobnotify.v1.Catalog/ListJobs       google.protobuf.Struct → google.protobuf.Struct
//	jobnotify.v1.Catalog/GetMasterData  google.protobuf.Empty  → google.protobuf.Struct
//	jobnotify.v1.Catalog/GetStats       google.protobuf.Empty  → google.protobuf.Struct
//
// ListJobs takes optional string fields q, board, location and eligibility and
// answers {"jobs": [...], "total": n}. Messages are well-known types, so
// clients need no generated stubs.
package grpcserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"jobnotify/internal/catalog"
	"jobnotify/internal/listing"
)

// ServiceName is the fully-qualified Catalog service name.
const ServiceName = "jobnotify.v1.Catalog"

// CatalogServer is the Catalog service contract.
type CatalogServer interface {
	ListJobs(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetMasterData(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetStats(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// Server implements CatalogServer on top of a catalog.
type Server struct {
	catalog *catalog.Catalog
	now     func() time.Time
}

// NewServer constructs a Server backed by c.
func NewServer(c *catalog.Catalog) *Server {
	return &Server{catalog: c, now: time.Now}
}

// WithClock replaces the time source used for derived status.
func (s *Server) WithClock(now func() time.Time) *Server {
	s.now = now
	return s
}

// New returns a grpc.Server with the health and Catalog services registered.
func New(s *Server, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(logFailures))
	gs := grpc.NewServer(opts...)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(gs, hs)

	RegisterCatalogServer(gs, s)
	return gs
}

// ─── RPC implementations ──────────────────────────────────────────────────────

// ListJobs returns the jobs matching the request's query and selection, each
// with its derived status.
func (s *Server) ListJobs(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	query, sel, err := selectionFrom(req)
	if err != nil {
		return nil, err
	}

	snap := s.catalog.Snapshot()
	now := s.now()
	matched := listing.Filter(snap.Jobs, query, sel)

	type jobOut struct {
		listing.Job
		listing.Status
	}
	out := make([]jobOut, 0, len(matched))
	for _, j := range matched {
		out = append(out, jobOut{Job: j, Status: listing.Derive(j, now)})
	}
	return toStruct(map[string]any{"jobs": out, "total": len(snap.Jobs)})
}

// GetMasterData returns the three tag vocabularies.
func (s *Server) GetMasterData(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return toStruct(s.catalog.Snapshot().Master)
}

// GetStats returns the quick-stats summary.
func (s *Server) GetStats(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return toStruct(listing.ComputeStats(s.catalog.Snapshot().Jobs, s.now()))
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// selectionFrom reads the optional filter fields. Non-string values are
// rejected.
func selectionFrom(req *structpb.Struct) (string, listing.Selection, error) {
	fields := req.GetFields()
	str := func(name string) (string, error) {
		v, ok := fields[name]
		if !ok {
			return "", nil
		}
		sv, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return "", status.Errorf(codes.InvalidArgument, "%s must be a string", name)
		}
		return sv.StringValue, nil
	}

	var (
		sel listing.Selection
		q   string
		err error
	)
	if q, err = str("q"); err != nil {
		return "", sel, err
	}
	if sel.Board, err = str("board"); err != nil {
		return "", sel, err
	}
	if sel.Location, err = str("location"); err != nil {
		return "", sel, err
	}
	if sel.Eligibility, err = str("eligibility"); err != nil {
		return "", sel, err
	}
	return strings.TrimSpace(q), sel.Normalize(), nil
}

// toStruct converts v to a Struct through its JSON form so field names match
// the HTTP API.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal server error")
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, status.Error(codes.Internal, "internal server error")
	}
	return out, nil
}

func logFailures(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	if err != nil && status.Code(err) != codes.InvalidArgument {
		slog.Warn("grpc call failed", "method", info.FullMethod, "error", err)
	}
	return resp, err
}

// ─── Service descriptor ──────────────────────────────────────────────────────

// RegisterCatalogServer registers srv on s.
func RegisterCatalogServer(s grpc.ServiceRegistrar, srv CatalogServer) {
	s.RegisterService(&catalogServiceDesc, srv)
}

func unaryHandler[Req any, PReq interface {
	*Req
}](call func(CatalogServer, context.Context, PReq) (*structpb.Struct, error), method string) grpc.MethodHandler {
	fullMethod := fmt.Sprintf("/%s/%s", ServiceName, method)
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CatalogServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(srv.(CatalogServer), ctx, req.(PReq))
		})
	}
}

var catalogServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CatalogServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListJobs", Handler: unaryHandler(CatalogServer.ListJobs, "ListJobs")},
		{MethodName: "GetMasterData", Handler: unaryHandler(CatalogServer.GetMasterData, "GetMasterData")},
		{MethodName: "GetStats", Handler: unaryHandler(CatalogServer.GetStats, "GetStats")},
	},
	Metadata: "jobnotify/v1/catalog.proto",
}
