package grpcserver_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"jobnotify/internal/catalog"
	"jobnotify/internal/grpcserver"
	"jobnotify/internal/listing"
	"jobnotify/internal/store"
)

var now = time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

func dial(t *testing.T) *grpc.ClientConn {
	t.Helper()
	ctx := context.Background()

	st := store.NewMemory()
	require.NoError(t, st.InsertJobs(ctx, []listing.Job{
		{ID: "a", PostDate: "2024-06-10", LastDate: "2024-06-12", Board: "BoardX", PositionName: "Clerk", Location: "Delhi"},
		{ID: "b", PostDate: "2024-05-01", LastDate: "2024-07-30", Board: "BoardY", PositionName: "Driver", Location: "Pune"},
	}))
	require.NoError(t, st.UpsertMasterConfig(ctx, store.MasterConfig{MasterData: listing.MasterData{
		Boards: []string{"BoardX", "BoardY"}, Locations: []string{"Delhi", "Pune"}, Eligibilities: []string{},
	}}))
	c := catalog.New(st, catalog.Options{})
	require.NoError(t, c.Load(ctx))

	lis := bufconn.Listen(1 << 20)
	gs := grpcserver.New(grpcserver.NewServer(c).WithClock(func() time.Time { return now }))
	go gs.Serve(lis)
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHealth(t *testing.T) {
	conn := dial(t)
	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(),
		&healthpb.HealthCheckRequest{Service: grpcserver.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}

func TestListJobs(t *testing.T) {
	conn := dial(t)
	req, err := structpb.NewStruct(map[string]any{"board": "BoardX"})
	require.NoError(t, err)

	out := &structpb.Struct{}
	require.NoError(t, conn.Invoke(context.Background(), "/jobnotify.v1.Catalog/ListJobs", req, out))

	m := out.AsMap()
	assert.Equal(t, float64(2), m["total"])
	jobs := m["jobs"].([]any)
	require.Len(t, jobs, 1)
	job := jobs[0].(map[string]any)
	assert.Equal(t, "a", job["id"])
	assert.Equal(t, true, job["isNew"])
	assert.Equal(t, true, job["isClosingSoon"])
	assert.Equal(t, float64(1), job["daysRemaining"])
}

func TestListJobs_EmptyRequestReturnsAll(t *testing.T) {
	conn := dial(t)
	out := &structpb.Struct{}
	require.NoError(t, conn.Invoke(context.Background(), "/jobnotify.v1.Catalog/ListJobs", &structpb.Struct{}, out))
	assert.Len(t, out.AsMap()["jobs"], 2)
}

func TestListJobs_RejectsNonStringFilter(t *testing.T) {
	conn := dial(t)
	req, err := structpb.NewStruct(map[string]any{"board": 7})
	require.NoError(t, err)

	err = conn.Invoke(context.Background(), "/jobnotify.v1.Catalog/ListJobs", req, &structpb.Struct{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGetMasterDataAndStats(t *testing.T) {
	conn := dial(t)
	ctx := context.Background()

	md := &structpb.Struct{}
	require.NoError(t, conn.Invoke(ctx, "/jobnotify.v1.Catalog/GetMasterData", &emptypb.Empty{}, md))
	assert.Equal(t, []any{"BoardX", "BoardY"}, md.AsMap()["boards"])

	st := &structpb.Struct{}
	require.NoError(t, conn.Invoke(ctx, "/jobnotify.v1.Catalog/GetStats", &emptypb.Empty{}, st))
	assert.Equal(t, float64(2), st.AsMap()["totalJobs"])
	assert.Equal(t, float64(1), st.AsMap()["closingSoon"])
}
