package server

import (
	"context"
	"encoding/base64"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/labels-extractor/internal/common"
	"github.com/joseph-ayodele/labels-extractor/internal/utils"
)

// Export extracts one document and returns the spreadsheet ("format": "xlsx", the default)
// or JSON document as base64 "content". Both filename and content are empty when nothing
// was extracted; the outcome says why.
func (s *ExtractionServer) Export(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r := extractRequest(req)
	res, err := s.svc.Export(ctx, r, utils.GetString(req, "format"))
	if err != nil {
		s.logger.Error("export.failed", "platform", r.Platform, "path", r.Path, "err", err)
		return nil, common.GRPCError(err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"filename": structpb.NewStringValue(res.Filename),
		"content":  structpb.NewStringValue(base64.StdEncoding.EncodeToString(res.Content)),
		"outcome":  structpb.NewStructValue(utils.ToPBOutcome(res.Outcome)),
	}}, nil
}
