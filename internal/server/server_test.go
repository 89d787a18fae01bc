package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/labels-extractor/constants"
	"github.com/joseph-ayodele/labels-extractor/internal/async"
	"github.com/joseph-ayodele/labels-extractor/internal/common"
	"github.com/joseph-ayodele/labels-extractor/internal/export"
	"github.com/joseph-ayodele/labels-extractor/internal/ocr"
	"github.com/joseph-ayodele/labels-extractor/internal/pipeline"
	"github.com/joseph-ayodele/labels-extractor/internal/repository"
	"github.com/joseph-ayodele/labels-extractor/internal/services/extraction"
)

const label = "Customer Address\nAsha Rao\nPune 411001\nPrepaid\nDelhivery\n" +
	"SKU Size Qty Color Order No.\nKURTI-9 Free Size 2 Blue 7781\n"

type fileSource map[string]string

func (s fileSource) Extract(_ context.Context, path string) (ocr.ExtractionResult, error) {
	text, ok := s[path]
	if !ok {
		return ocr.ExtractionResult{}, common.Unreadable(path, errors.New("not a pdf"))
	}
	return ocr.ExtractionResult{Pages: []string{text}, SourceType: constants.PDF}, nil
}

func newClient(t *testing.T, interceptors ...grpc.UnaryServerInterceptor) *Client {
	t.Helper()
	ctx := context.Background()

	db, err := repository.Open(ctx, repository.Config{DSN: "sqlite::memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	runs := repository.NewRunRepository(db, nil)

	procs := pipeline.NewSet(fileSource{"/in/labels.pdf": label}, nil, pipeline.WithRunStore(runs))
	queue := async.NewProcessorQueue(procs, nil, async.WithWorkers(1))
	t.Cleanup(func() { queue.Shutdown(context.Background()) })

	svc := extraction.NewService(procs, export.NewService(nil), nil,
		extraction.WithRuns(runs),
		extraction.WithQueue(queue),
	)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(append([]grpc.UnaryServerInterceptor{UnaryLogging(nil)}, interceptors...)...))
	RegisterExtractionServiceServer(srv, NewExtractionServer(svc, nil))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewClient(conn)
}

func request(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestExtract(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	t.Run("text", func(t *testing.T) {
		out, err := c.Extract(ctx, request(t, map[string]any{"platform": "meesho", "text": label}))
		require.NoError(t, err)

		f := out.GetFields()
		assert.Equal(t, "OK", f["status"].GetStringValue())
		assert.Equal(t, float64(1), f["rows"].GetNumberValue())
		assert.Equal(t, "meesho", f["schema"].GetStringValue())
		assert.Len(t, f["columns"].GetListValue().GetValues(), 11)

		rec := f["records"].GetListValue().GetValues()[0].GetStructValue().GetFields()
		assert.Equal(t, "KURTI-9", rec["SKU"].GetStringValue())
		assert.Equal(t, "Delhivery", rec["Pickup"].GetStringValue())
	})

	t.Run("pages and path", func(t *testing.T) {
		out, err := c.Extract(ctx, request(t, map[string]any{"platform": "MYNTRA", "pages": []any{label, label}}))
		require.NoError(t, err)
		assert.Equal(t, float64(2), out.GetFields()["rows"].GetNumberValue())

		out, err = c.Extract(ctx, request(t, map[string]any{"platform": "meesho", "path": "/in/labels.pdf"}))
		require.NoError(t, err)
		assert.Equal(t, "/in/labels.pdf", out.GetFields()["source"].GetStringValue())
	})

	t.Run("empty document", func(t *testing.T) {
		out, err := c.Extract(ctx, request(t, map[string]any{"platform": "flipkart", "text": "no labels"}))
		require.NoError(t, err)
		assert.Equal(t, "EMPTY", out.GetFields()["status"].GetStringValue())
		assert.Equal(t, pipeline.MsgNoData, out.GetFields()["message"].GetStringValue())
	})

	t.Run("errors", func(t *testing.T) {
		tests := []struct {
			name string
			req  map[string]any
			want codes.Code
		}{
			{"unknown platform", map[string]any{"platform": "ebay", "text": label}, codes.InvalidArgument},
			{"no input", map[string]any{"platform": "meesho"}, codes.InvalidArgument},
			{"two inputs", map[string]any{"platform": "meesho", "text": label, "path": "/in/labels.pdf"}, codes.InvalidArgument},
			{"unreadable", map[string]any{"platform": "meesho", "path": "/in/broken.pdf"}, codes.FailedPrecondition},
		}
		for _, tt := range tests {
			_, err := c.Extract(ctx, request(t, tt.req))
			assert.Equal(t, tt.want, status.Code(err), tt.name)
		}
	})
}

func TestExport(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	out, err := c.Export(ctx, request(t, map[string]any{"platform": "meesho", "text": label, "format": "json"}))
	require.NoError(t, err)

	f := out.GetFields()
	assert.Regexp(t, `^meesho_labels_\d{8}_\d{6}\.json$`, f["filename"].GetStringValue())
	raw, err := base64.StdEncoding.DecodeString(f["content"].GetStringValue())
	require.NoError(t, err)
	var doc export.Document
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "meesho", doc.Schema)
	require.Len(t, doc.Rows, 1)
	assert.Equal(t, "7781", doc.Rows[0]["Order No."])

	xlsx, err := c.Export(ctx, request(t, map[string]any{"platform": "meesho", "text": label}))
	require.NoError(t, err)
	assert.Regexp(t, `\.xlsx$`, xlsx.GetFields()["filename"].GetStringValue())

	empty, err := c.Export(ctx, request(t, map[string]any{"platform": "meesho", "text": "nothing"}))
	require.NoError(t, err)
	assert.Empty(t, empty.GetFields()["filename"].GetStringValue())
	assert.Equal(t, "EMPTY", empty.GetFields()["outcome"].GetStructValue().GetFields()["status"].GetStringValue())

	_, err = c.Export(ctx, request(t, map[string]any{"platform": "meesho", "text": label, "format": "csv"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestSubmitAndRuns(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	out, err := c.Submit(ctx, request(t, map[string]any{"platform": "meesho", "path": "/in/labels.pdf"}))
	require.NoError(t, err)
	assert.Equal(t, "MEESHO", out.GetFields()["platform"].GetStringValue())
	assert.NotEmpty(t, out.GetFields()["trace_id"].GetStringValue())

	var runID string
	require.Eventually(t, func() bool {
		list, err := c.ListRuns(ctx, request(t, map[string]any{"limit": 5}))
		if err != nil {
			return false
		}
		runs := list.GetFields()["runs"].GetListValue().GetValues()
		if len(runs) != 1 {
			return false
		}
		run := runs[0].GetStructValue().GetFields()
		runID = run["id"].GetStringValue()
		return run["status"].GetStringValue() == "OK"
	}, 5*time.Second, 20*time.Millisecond)

	run, err := c.GetRun(ctx, request(t, map[string]any{"id": runID}))
	require.NoError(t, err)
	assert.Equal(t, float64(1), run.GetFields()["row_count"].GetNumberValue())
	assert.NotEmpty(t, run.GetFields()["finished_at"].GetStringValue())

	_, err = c.GetRun(ctx, request(t, map[string]any{"id": "nope"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.GetRun(ctx, request(t, map[string]any{"id": uuid.NewString()}))
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = c.Submit(ctx, request(t, map[string]any{"platform": "meesho"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestUnaryRateLimit(t *testing.T) {
	c := newClient(t, UnaryRateLimit(rate.NewLimiter(rate.Every(time.Hour), 2)))
	ctx := context.Background()
	req := request(t, map[string]any{"platform": "meesho", "text": label})

	for range 2 {
		_, err := c.Extract(ctx, req)
		require.NoError(t, err)
	}
	_, err := c.Extract(ctx, req)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))
}
