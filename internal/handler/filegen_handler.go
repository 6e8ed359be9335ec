package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"dokugen/internal/repository"
	"dokugen/internal/service"
)

// GenerateRequest is the JSON body shared by all generation endpoints;
// each endpoint reads the fields it needs.
type GenerateRequest struct {
	FileName      string `json:"fileName"`
	Content       string `json:"content,omitempty"`
	TableData     string `json:"tableData,omitempty"`
	SlidesJSON    string `json:"slidesJson,omitempty"`
	Base64Content string `json:"base64Content,omitempty"`
	Title         string `json:"title,omitempty"`
	ChatID        string `json:"chatId"`
}

type GenerateResponse struct {
	URL string `json:"url"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// FileGenerationHandler exposes the generation operations and the download
// endpoint over HTTP. Ownership of the chat is the caller's concern; the
// user id is taken from the X-User-Id header as-is.
type FileGenerationHandler struct {
	service *service.FileGenerationService
	baseURL string
}

// NewFileGenerationHandler creates the handler. baseURL, when non-empty,
// overrides per-request scheme/host detection for the returned URLs.
func NewFileGenerationHandler(svc *service.FileGenerationService, baseURL string) *FileGenerationHandler {
	return &FileGenerationHandler{
		service: svc,
		baseURL: baseURL,
	}
}

func (h *FileGenerationHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/generate", func(r chi.Router) {
		r.Post("/text", h.CreateTextFile)
		r.Post("/word", h.CreateWordFile)
		r.Post("/excel", h.CreateExcelFile)
		r.Post("/powerpoint", h.CreatePowerPointFile)
		r.Post("/pdf", h.CreatePdfFile)
		r.Post("/file", h.CreateBinaryFile)
	})
	r.Get("/files/{id}", h.Download)
}

func (h *FileGenerationHandler) CreateTextFile(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, func(req *GenerateRequest, userID string) (string, error) {
		return h.service.CreateTextFile(r.Context(), h.requestBaseURL(r), req.ChatID, userID, req.FileName, req.Content)
	})
}

func (h *FileGenerationHandler) CreateWordFile(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, func(req *GenerateRequest, userID string) (string, error) {
		return h.service.CreateWordFile(r.Context(), h.requestBaseURL(r), req.ChatID, userID, req.FileName, req.Content)
	})
}

func (h *FileGenerationHandler) CreateExcelFile(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, func(req *GenerateRequest, userID string) (string, error) {
		return h.service.CreateExcelFile(r.Context(), h.requestBaseURL(r), req.ChatID, userID, req.FileName, req.TableData)
	})
}

func (h *FileGenerationHandler) CreatePowerPointFile(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, func(req *GenerateRequest, userID string) (string, error) {
		return h.service.CreatePowerPointFile(r.Context(), h.requestBaseURL(r), req.ChatID, userID, req.FileName, req.SlidesJSON)
	})
}

func (h *FileGenerationHandler) CreatePdfFile(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, func(req *GenerateRequest, userID string) (string, error) {
		return h.service.CreatePdfFile(r.Context(), h.requestBaseURL(r), req.ChatID, userID, req.FileName, req.Content, req.Title)
	})
}

func (h *FileGenerationHandler) CreateBinaryFile(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, func(req *GenerateRequest, userID string) (string, error) {
		return h.service.CreateBinaryFile(r.Context(), h.requestBaseURL(r), req.ChatID, userID, req.FileName, req.Base64Content)
	})
}

func (h *FileGenerationHandler) generate(w http.ResponseWriter, r *http.Request, call func(req *GenerateRequest, userID string) (string, error)) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "missing X-User-Id header")
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.FileName == "" {
		respondError(w, http.StatusBadRequest, "fileName is required")
		return
	}

	fileURL, err := call(&req, userID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrUnsupportedFormat) || errors.Is(err, service.ErrInvalidBase64) {
			status = http.StatusBadRequest
		}
		log.Printf("File generation failed: %v", err)
		respondError(w, status, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, GenerateResponse{URL: fileURL})
}

// Download streams a stored file with its stored content type. Expired
// files are reported as not found.
func (h *FileGenerationHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid file id")
		return
	}

	file, err := h.service.GetFile(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		respondError(w, http.StatusNotFound, "file not found")
		return
	}
	if err != nil {
		log.Printf("Failed to load file %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, "failed to load file")
		return
	}
	if file.Expired(time.Now()) {
		respondError(w, http.StatusNotFound, "file has expired")
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.FileName))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", file.SizeBytes))
	w.WriteHeader(http.StatusOK)
	w.Write(file.Content)
}

// requestBaseURL prefers the configured public base URL, then the inbound
// request's scheme and host. An empty result makes the service emit a
// relative /files/{id} path.
func (h *FileGenerationHandler) requestBaseURL(r *http.Request) string {
	if h.baseURL != "" {
		return h.baseURL
	}
	if r == nil || r.Host == "" {
		return ""
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}
