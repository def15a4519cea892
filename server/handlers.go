package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/asaidimu/datainsight/core"
	"github.com/asaidimu/datainsight/core/chart"
	"github.com/asaidimu/datainsight/core/query"
	"github.com/asaidimu/datainsight/core/schema"
	"github.com/asaidimu/datainsight/core/stats"
	"github.com/asaidimu/datainsight/core/table"
	"github.com/asaidimu/datainsight/core/transform"
	"github.com/asaidimu/datainsight/export"
	"github.com/asaidimu/datainsight/ingest"
	"github.com/asaidimu/datainsight/store"
	"github.com/asaidimu/datainsight/utils"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// DatasetResponse summarises a dataset after upload or transformation.
type DatasetResponse struct {
	Columns  []string        `json:"columns"`
	Preview  []core.Document `json:"preview"`
	RowCount int             `json:"row_count"`
}

// AIQueryRequest is the body of POST /ai/query.
type AIQueryRequest struct {
	Question string `json:"question"`
}

// AIQueryResponse pairs the translated query with its answer.
type AIQueryResponse struct {
	StructuredQuery map[string]any `json:"structured_query"`
	Answer          query.Result   `json:"answer"`
}

// PlotResponse carries the rows a chart is drawn from.
type PlotResponse struct {
	Config  chart.Config    `json:"config"`
	Columns []string        `json:"columns"`
	Rows    []core.Document `json:"rows"`
	Summary *chart.Summary  `json:"summary,omitempty"`
}

// TransformRequest is the body of POST /transform.
type TransformRequest struct {
	RowOperations    []json.RawMessage `json:"row_operations"`
	ColumnOperations []json.RawMessage `json:"column_operations"`
	// Persist replaces the current dataset with the result.
	Persist bool `json:"persist"`
}

// Pipeline decodes the operations of the request.
func (r TransformRequest) Pipeline() (transform.Pipeline, error) {
	return transform.DecodePipeline(r.RowOperations, r.ColumnOperations)
}

func (s *APIServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeSuccessResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *APIServer) datasetResponse(t *table.Table) DatasetResponse {
	return DatasetResponse{
		Columns:  t.Columns(),
		Preview:  t.Head(s.previewRows).Documents(),
		RowCount: t.Len(),
	}
}

// handleUpload accepts a multipart form with a "file" field, or a raw body
// named by the filename query parameter.
func (s *APIServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	var (
		data     []byte
		filename string
		err      error
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		file, header, ferr := r.FormFile("file")
		if ferr != nil {
			s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_UPLOAD", "Missing file field", ferr.Error())
			return
		}
		defer file.Close()
		filename = header.Filename
		data, err = io.ReadAll(file)
	} else {
		filename = r.URL.Query().Get("filename")
		if filename == "" {
			filename = "upload.csv"
		}
		data, err = io.ReadAll(r.Body)
	}
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_UPLOAD", "Failed to read upload", err.Error())
		return
	}

	format, err := ingest.Detect(filename)
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "UNSUPPORTED_FILE", "Unsupported file type", err.Error())
		return
	}
	t, err := ingest.Read(format, data)
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_FILE", "Invalid "+strings.ToUpper(string(format))+" file", err.Error())
		return
	}
	if err := s.store.Save(r.Context(), t); err != nil {
		s.writeEngineError(w, "Failed to store dataset", err)
		return
	}

	s.logger.Info("Dataset uploaded",
		zap.String("filename", filename),
		zap.Int("rows", t.Len()),
		zap.Int("columns", t.Width()))
	s.writeSuccessResponse(w, http.StatusOK, s.datasetResponse(t))
}

func (s *APIServer) handleStats(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.Load(r.Context())
	if err != nil {
		s.writeEngineError(w, "Failed to load dataset", err)
		return
	}
	s.writeSuccessResponse(w, http.StatusOK, stats.Summarize(t))
}

func (s *APIServer) handleProfile(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.Load(r.Context())
	if err != nil {
		s.writeEngineError(w, "Failed to load dataset", err)
		return
	}
	s.writeSuccessResponse(w, http.StatusOK, s.engine.Profile(t))
}

func (s *APIServer) handleColumnStats(w http.ResponseWriter, r *http.Request) {
	column := r.URL.Query().Get("column")
	if column == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_PARAMETER", "Missing column parameter", "")
		return
	}
	t, err := s.store.Load(r.Context())
	if err != nil {
		s.writeEngineError(w, "Failed to load dataset", err)
		return
	}
	col, err := t.Column(column)
	if err != nil {
		s.writeErrorResponse(w, http.StatusNotFound, core.Kind(err), "Column not found", err.Error())
		return
	}
	if col.Type != schema.TypeNumber {
		s.writeSuccessResponse(w, http.StatusOK, map[string]string{"message": "Selected column is not numeric"})
		return
	}
	described, err := s.engine.Describe(t, column)
	if err != nil {
		s.writeEngineError(w, "Failed to describe column", err)
		return
	}
	s.writeSuccessResponse(w, http.StatusOK, described)
}

func (s *APIServer) handleQuery(w http.ResponseWriter, r *http.Request) {
	q, err := utils.DecodeStrict[query.StructuredQuery](r.Body)
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON in request body", err.Error())
		return
	}
	res, err := s.runQuery(r, q)
	if err != nil {
		s.writeEngineError(w, "Query failed", err)
		return
	}
	s.writeSuccessResponse(w, http.StatusOK, res)
}

// runQuery executes q on the current dataset. Stores that can filter rows
// themselves get the filters, and the engine aggregates what they return.
func (s *APIServer) runQuery(r *http.Request, q query.StructuredQuery) (query.Result, error) {
	if err := q.Validate(); err != nil {
		return query.Result{}, err
	}
	if f, ok := s.store.(store.Filterer); ok && len(q.Filters) > 0 {
		t, err := f.LoadFiltered(r.Context(), q.Filters, q.Logic)
		switch {
		case err == nil:
			rest := q
			rest.Filters = nil
			return s.engine.Query(t, rest)
		case !errors.Is(err, core.ErrUnsupportedOperator):
			return query.Result{}, err
		}
		s.logger.Debug("Store cannot evaluate filters, filtering in process", zap.Error(err))
	}

	t, err := s.store.Load(r.Context())
	if err != nil {
		return query.Result{}, err
	}
	return s.engine.Query(t, q)
}

func (s *APIServer) handleAIQuery(w http.ResponseWriter, r *http.Request) {
	req, err := utils.DecodeStrict[AIQueryRequest](r.Body)
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON in request body", err.Error())
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_PARAMETER", "Missing question", "")
		return
	}
	if s.translator == nil {
		s.writeErrorResponse(w, http.StatusServiceUnavailable, "AI_UNAVAILABLE", "Natural language queries are not configured", "")
		return
	}

	t, err := s.store.Load(r.Context())
	if err != nil {
		s.writeEngineError(w, "Failed to load dataset", err)
		return
	}
	translated, err := s.translator.Translate(r.Context(), req.Question, t.Columns())
	if err != nil {
		s.logger.Error("Translation failed", zap.Error(err))
		s.writeErrorResponse(w, http.StatusBadGateway, "AI_FAILED", "AI generation failed", err.Error())
		return
	}
	if _, ok := translated["clarification_needed"]; ok {
		s.writeSuccessResponse(w, http.StatusOK, translated)
		return
	}

	q, err := utils.MapToStruct[query.StructuredQuery](translated)
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_QUERY", "Translated query is malformed", err.Error())
		return
	}
	res, err := s.engine.Query(t, q)
	if err != nil {
		s.writeEngineError(w, "Query failed", err)
		return
	}
	s.writeSuccessResponse(w, http.StatusOK, AIQueryResponse{StructuredQuery: translated, Answer: res})
}

func (s *APIServer) handlePlot(w http.ResponseWriter, r *http.Request) {
	cfg, err := utils.DecodeStrict[chart.Config](r.Body)
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON in request body", err.Error())
		return
	}
	t, err := s.store.Load(r.Context())
	if err != nil {
		s.writeEngineError(w, "Failed to load dataset", err)
		return
	}
	data, err := s.engine.Chart(t, cfg)
	if err != nil {
		s.writeEngineError(w, "Chart preparation failed", err)
		return
	}
	s.writeSuccessResponse(w, http.StatusOK, PlotResponse{
		Config:  data.Config,
		Columns: data.Table.Columns(),
		Rows:    data.Table.Documents(),
		Summary: data.Summary,
	})
}

func (s *APIServer) handleTransform(w http.ResponseWriter, r *http.Request) {
	req, err := utils.DecodeStrict[TransformRequest](r.Body)
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON in request body", err.Error())
		return
	}
	p, err := req.Pipeline()
	if err != nil {
		s.writeEngineError(w, "Invalid pipeline", err)
		return
	}
	t, err := s.store.Load(r.Context())
	if err != nil {
		s.writeEngineError(w, "Failed to load dataset", err)
		return
	}
	out, err := s.engine.Transform(t, p)
	if err != nil {
		s.writeEngineError(w, "Transformation failed", err)
		return
	}
	if req.Persist {
		if err := s.store.Save(r.Context(), out); err != nil {
			s.writeEngineError(w, "Failed to store dataset", err)
			return
		}
	}
	s.writeSuccessResponse(w, http.StatusOK, s.datasetResponse(out))
}

func (s *APIServer) handleExport(w http.ResponseWriter, r *http.Request) {
	format := export.Format(r.URL.Query().Get("format"))
	if format == "" {
		format = export.FormatCSV
	}
	var buf bytes.Buffer
	formatter, err := export.New(format, &buf)
	if err != nil {
		s.writeEngineError(w, "Unsupported export format", err)
		return
	}
	t, err := s.store.Load(r.Context())
	if err != nil {
		s.writeEngineError(w, "Failed to load dataset", err)
		return
	}
	if err := formatter.Format(t); err != nil {
		s.writeEngineError(w, "Export failed", errors.Wrapf(err, "format %s", string(format)))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="dataset.`+format.Extension()+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Warn("Export download interrupted", zap.String("format", string(format)), zap.Error(err))
	}
}
