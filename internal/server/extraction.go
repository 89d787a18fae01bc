package server

import (
	"context"
	"log/slog"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/labels-extractor/internal/common"
	"github.com/joseph-ayodele/labels-extractor/internal/services/extraction"
	"github.com/joseph-ayodele/labels-extractor/internal/utils"
)

// ExtractionServer adapts the extraction service to labels.v1.ExtractionService.
type ExtractionServer struct {
	svc    *extraction.Service
	logger *slog.Logger
}

var _ ExtractionServiceServer = (*ExtractionServer)(nil)

func NewExtractionServer(svc *extraction.Service, logger *slog.Logger) *ExtractionServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractionServer{svc: svc, logger: logger}
}

// extractRequest reads platform, name and one of path, text or pages.
func extractRequest(req *structpb.Struct) extraction.ExtractRequest {
	return extraction.ExtractRequest{
		Platform: utils.GetString(req, "platform"),
		Name:     utils.GetString(req, "name"),
		Path:     utils.GetString(req, "path"),
		Text:     req.GetFields()["text"].GetStringValue(),
		Pages:    utils.GetStrings(req, "pages"),
	}
}

// Extract returns the outcome of one document, records included.
func (s *ExtractionServer) Extract(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r := extractRequest(req)
	out, err := s.svc.Extract(ctx, r)
	if err != nil {
		s.logger.Error("extract request failed", "platform", r.Platform, "path", r.Path, "error", err)
		return nil, common.GRPCError(err)
	}
	return utils.ToPBOutcome(out), nil
}

// ListRuns returns the newest runs; "limit" defaults to 20.
func (s *ExtractionServer) ListRuns(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	runs, err := s.svc.ListRuns(ctx, utils.GetInt(req, "limit"))
	if err != nil {
		s.logger.Error("failed to list runs", "error", err)
		return nil, common.GRPCError(err)
	}
	return utils.ToPBRuns(runs), nil
}

func (s *ExtractionServer) GetRun(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	run, err := s.svc.GetRun(ctx, utils.GetString(req, "id"))
	if err != nil {
		return nil, common.GRPCError(err)
	}
	return utils.ToPBRun(run), nil
}
