package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/desertthunder/libport/internal/models"
	"github.com/desertthunder/libport/internal/shared"
	"github.com/desertthunder/libport/internal/tasks"
)

// maxRequestBody bounds the size of a convert request.
const maxRequestBody = 1 << 20

var _ Handler = (*LibraryHandler)(nil)

// LibraryHandler serves one library export over HTTP.
type LibraryHandler struct {
	engine  tasks.ConversionEngine
	opts    tasks.RunOpts
	logger  shared.Logger
	convert http.Handler
}

// ConvertRequest is the body of POST /convert.
type ConvertRequest struct {
	SelectedPlaylistIDs []string `json:"selectedPlaylistIds"`
	// Write stores the result at the configured output path instead of returning it.
	Write bool `json:"write"`
}

// ConvertResponse describes a conversion written to disk.
type ConvertResponse struct {
	OutputPath      string   `json:"outputPath"`
	BytesWritten    int      `json:"bytesWritten"`
	TracksConverted int      `json:"tracksConverted"`
	TracksSkipped   int      `json:"tracksSkipped"`
	PlaylistsKept   int      `json:"playlistsKept"`
	Warnings        []string `json:"warnings"`
}

// NewLibraryHandler creates a handler for the library at opts.InputPath. Conversions written to disk go to
// opts.OutputPath through engine; limiter throttles POST /convert and may be nil.
func NewLibraryHandler(engine tasks.ConversionEngine, opts tasks.RunOpts, limiter *rate.Limiter, logger shared.Logger) *LibraryHandler {
	if logger == nil {
		logger = shared.NopLogger()
	}
	if opts.Serialize == (tasks.SerializeOptions{}) {
		opts.Serialize = tasks.DefaultSerializeOptions()
	}

	h := &LibraryHandler{engine: engine, opts: opts, logger: logger}
	h.convert = http.HandlerFunc(h.handleConvert)
	if limiter != nil {
		h.convert = Limit(limiter)(h.convert)
	}
	return h
}

// Routes returns the patterns served by the handler.
func (h *LibraryHandler) Routes() []string {
	return []string{"GET /health", "GET /library", "GET /playlists", "POST /convert"}
}

// ServeHTTP dispatches on the matched route pattern.
func (h *LibraryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Pattern {
	case "GET /health":
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	case "GET /library":
		h.handleLibrary(w, r)
	case "GET /playlists":
		h.handlePlaylists(w, r)
	case "POST /convert":
		h.convert.ServeHTTP(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *LibraryHandler) load(w http.ResponseWriter) (*models.Library, bool) {
	lib, err := tasks.Load(h.opts.InputPath, h.logger)
	if err != nil {
		h.fail(w, err)
		return nil, false
	}
	return lib, true
}

func (h *LibraryHandler) handleLibrary(w http.ResponseWriter, _ *http.Request) {
	lib, ok := h.load(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, lib.Summarize())
}

func (h *LibraryHandler) handlePlaylists(w http.ResponseWriter, _ *http.Request) {
	lib, ok := h.load(w)
	if !ok {
		return
	}
	playlists := []models.Playlist{}
	for p := range lib.VisiblePlaylists() {
		playlists = append(playlists, p)
	}
	writeJSON(w, http.StatusOK, playlists)
}

func (h *LibraryHandler) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if req.Write {
		h.convertToFile(w, r, req)
		return
	}

	lib, ok := h.load(w)
	if !ok {
		return
	}
	conv := tasks.NewConverter(h.logger).Convert(lib, req.SelectedPlaylistIDs)
	data, err := tasks.Serialize(conv.Library, h.opts.Serialize)
	if err != nil {
		h.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("X-Tracks-Converted", strconv.Itoa(conv.TracksConverted))
	w.Header().Set("X-Tracks-Skipped", strconv.Itoa(conv.TracksSkipped))
	w.Header().Set("X-Playlists-Kept", strconv.Itoa(conv.PlaylistsKept))
	w.Header().Set("X-Warnings", strconv.Itoa(len(conv.Warnings)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *LibraryHandler) convertToFile(w http.ResponseWriter, r *http.Request, req ConvertRequest) {
	opts := h.opts
	opts.SelectedPlaylistIDs = req.SelectedPlaylistIDs

	res, err := h.engine.Run(r.Context(), nil, opts)
	if err != nil {
		h.fail(w, err)
		return
	}

	warnings := make([]string, len(res.Conversion.Warnings))
	for i, warn := range res.Conversion.Warnings {
		warnings[i] = warn.Error()
	}
	writeJSON(w, http.StatusOK, ConvertResponse{
		OutputPath:      res.OutputPath,
		BytesWritten:    res.BytesWritten,
		TracksConverted: res.Conversion.TracksConverted,
		TracksSkipped:   res.Conversion.TracksSkipped,
		PlaylistsKept:   res.Conversion.PlaylistsKept,
		Warnings:        warnings,
	})
}

// fail maps conversion errors to status codes.
func (h *LibraryHandler) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, shared.ErrInputNotFound), errors.Is(err, shared.ErrOutputDirNotFound):
		status = http.StatusNotFound
	case errors.Is(err, shared.ErrParse):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := shared.MarshalJSON(v, false)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// NewRouter wires a LibraryHandler behind recovery and request logging.
func NewRouter(h *LibraryHandler, logger shared.Logger) *BasicRouter {
	if logger == nil {
		logger = shared.NopLogger()
	}
	router := NewBasicRouter()
	router.Use(Recover(logger), Logging(logger))
	router.Handler(h)
	return router
}
