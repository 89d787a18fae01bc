package server

import (
	"context"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/labels-extractor/internal/common"
	"github.com/joseph-ayodele/labels-extractor/internal/utils"
)

// Submit queues a file on the server for background extraction. The outcome lands in the
// run history and, when rows were found, in the export directory.
func (s *ExtractionServer) Submit(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	platform := utils.GetString(req, "platform")
	path := utils.GetString(req, "path")

	s.logger.Info("starting file submit", "platform", platform, "path", path)
	job, err := s.svc.Submit(ctx, platform, path)
	if err != nil {
		s.logger.Error("file submit failed", "platform", platform, "path", path, "error", err)
		return nil, common.GRPCError(err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"path":         structpb.NewStringValue(job.Path),
		"platform":     structpb.NewStringValue(string(job.Platform)),
		"submitted_at": structpb.NewStringValue(job.SubmittedAt.UTC().Format(time.RFC3339)),
		"trace_id":     structpb.NewStringValue(job.TraceID),
	}}, nil
}
