// Package handler provides the HTTP handlers for the difflens service.
package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/difflens/internal/diffparse"
	"github.com/dshills/difflens/internal/gitctx"
	"github.com/dshills/difflens/internal/redact"
	"github.com/dshills/difflens/internal/repoctx"
	"github.com/dshills/difflens/internal/review"
)

// DefaultMaxBody limits request bodies when no limit is configured.
const DefaultMaxBody = 5 << 20

// ErrOutsideRoot is returned for context paths that escape the configured root.
var ErrOutsideRoot = errors.New("path outside context root")

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	// Line and Block are set for diffs that could not be parsed. Block has
	// secrets redacted.
	Line  int    `json:"line,omitempty"`
	Block string `json:"block,omitempty"`
}

// AnalyzeRequest is the body of POST /api/v1/analyze.
type AnalyzeRequest struct {
	Files []diffparse.FileChange `json:"files"`
}

// ContextRequest is the body of POST /api/v1/context.
type ContextRequest struct {
	Path string `json:"path"`
}

type diffRequest struct {
	Diff string `json:"diff"`
}

// ReviewHandler serves the parse, analyze, review and context endpoints.
type ReviewHandler struct {
	engine  *review.Engine
	cache   *lru.Cache[string, *review.Report]
	maxBody int64
	root    string

	// realRoot is root with symlinks resolved.
	realRoot string
	logger   *slog.Logger
}

// NewReviewHandler creates a handler. cacheSize bounds the number of review
// results kept, keyed by diff content. contextRoot bounds the paths the
// context endpoint may inspect; empty means the working directory.
func NewReviewHandler(engine *review.Engine, cacheSize int, maxBody int64, contextRoot string, logger *slog.Logger) (*ReviewHandler, error) {
	if cacheSize <= 0 {
		cacheSize = 128
	}
	if maxBody <= 0 {
		maxBody = DefaultMaxBody
	}
	cache, err := lru.New[string, *review.Report](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating review cache: %w", err)
	}
	if contextRoot == "" {
		if contextRoot, err = os.Getwd(); err != nil {
			return nil, fmt.Errorf("resolving context root: %w", err)
		}
	}
	root, err := filepath.Abs(contextRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving context root: %w", err)
	}
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		realRoot = root
	}
	return &ReviewHandler{
		engine:   engine,
		cache:    cache,
		maxBody:  maxBody,
		root:     root,
		realRoot: realRoot,
		logger:   logger,
	}, nil
}

// Parse turns a diff into files and a summary.
func (h *ReviewHandler) Parse(w http.ResponseWriter, r *http.Request) {
	text, ok := h.readDiff(w, r)
	if !ok {
		return
	}
	res, err := diffparse.Parse(text)
	if err != nil {
		h.writeParseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Analyze runs the rule engine over already-parsed files.
func (h *ReviewHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.Files == nil {
		req.Files = []diffparse.FileChange{}
	}
	writeJSON(w, http.StatusOK, h.engine.Evaluate(req.Files))
}

// Review parses and analyzes a diff and returns the full report. Results are
// cached by diff content.
func (h *ReviewHandler) Review(w http.ResponseWriter, r *http.Request) {
	text, ok := h.readDiff(w, r)
	if !ok {
		return
	}

	key := contentKey(text)
	if report, ok := h.cache.Get(key); ok {
		w.Header().Set("X-Cache", "HIT")
		writeJSON(w, http.StatusOK, report)
		return
	}

	report, err := review.Run(r.Context(), gitctx.FromText(text, "api", gitctx.DiffOptions{}), h.engine)
	if err != nil {
		var pe *diffparse.ParseError
		if errors.As(err, &pe) {
			h.writeParseError(w, pe)
			return
		}
		h.logger.Error("review failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	h.cache.Add(key, report)
	w.Header().Set("X-Cache", "MISS")
	writeJSON(w, http.StatusOK, report)
}

// Context inspects a local checkout.
func (h *ReviewHandler) Context(w http.ResponseWriter, r *http.Request) {
	var req ContextRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "path is required"})
		return
	}
	path, err := h.resolvePath(req.Path)
	if err != nil {
		h.logger.Warn("context path rejected", "path", req.Path)
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: err.Error()})
		return
	}
	ctx, err := repoctx.Detect(path)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, repoctx.ErrRootNotFound) {
			status = http.StatusNotFound
		}
		writeJSON(w, status, ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, ctx)
}

// resolvePath maps a requested path onto the context root. Relative paths
// are taken from the root. The result, and its symlink target when it
// exists, must lie inside the root.
func (h *ReviewHandler) resolvePath(p string) (string, error) {
	if !filepath.IsAbs(p) {
		p = filepath.Join(h.root, p)
	}
	p = filepath.Clean(p)
	if !within(h.root, p) && !within(h.realRoot, p) {
		return "", ErrOutsideRoot
	}
	if target, err := filepath.EvalSymlinks(p); err == nil && !within(h.realRoot, target) {
		return "", ErrOutsideRoot
	}
	return p, nil
}

func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Rules lists the IDs of the active rules.
func (h *ReviewHandler) Rules(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"rules": h.engine.RuleIDs()})
}

// readDiff accepts either a raw diff body or JSON {"diff": "..."}.
func (h *ReviewHandler) readDiff(w http.ResponseWriter, r *http.Request) (string, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		h.writeBodyError(w, err)
		return "", false
	}
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt != "application/json" {
		return string(body), true
	}
	var req diffRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON: " + err.Error()})
		return "", false
	}
	return req.Diff, true
}

func (h *ReviewHandler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err := dec.Decode(v); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			h.writeBodyError(w, err)
			return false
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON: " + err.Error()})
		return false
	}
	return true
}

func (h *ReviewHandler) writeBodyError(w http.ResponseWriter, err error) {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: fmt.Sprintf("request body exceeds %d bytes", mbe.Limit)})
		return
	}
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "reading body: " + err.Error()})
}

func (h *ReviewHandler) writeParseError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error()}
	var pe *diffparse.ParseError
	if errors.As(err, &pe) {
		resp.Error = pe.Err.Error()
		resp.Line = pe.Line
		resp.Block = redact.Secrets(pe.Block)
	}
	h.logger.Warn("unparseable diff", "line", resp.Line, "error", resp.Error)
	writeJSON(w, http.StatusUnprocessableEntity, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func contentKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
