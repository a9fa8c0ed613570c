package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/inkwell/inkwell-server/internal/service"
)

func (s *Server) registerImportRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "importEPUB",
		Method:        http.MethodPost,
		Path:          "/api/v1/import/epub",
		Summary:       "Import EPUB",
		Description:   "Creates a novel from an EPUB file. The request body is the raw file.",
		Tags:          []string{"Import"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
		MaxBodyBytes:  s.opts.MaxEPUBBytes,
	}, s.handleImportEPUB)
}

// ImportEPUBInput carries the raw EPUB bytes.
type ImportEPUBInput struct {
	Authorization string `header:"Authorization"`
	RawBody       []byte `contentType:"application/epub+zip"`
}

// ImportOutput wraps the import result for Huma.
type ImportOutput struct {
	Body *service.ImportResult
}

func (s *Server) handleImportEPUB(ctx context.Context, input *ImportEPUBInput) (*ImportOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.services.Import.ImportEPUB(ctx, userID, input.RawBody)
	if err != nil {
		return nil, err
	}
	return &ImportOutput{Body: res}, nil
}
