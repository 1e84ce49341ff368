// Package web serves the lead capture pages: the landing page with the
// upload form, the upload endpoint and the per-document results view.
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Lllllllleong/leadflow/internal/models"
	"github.com/Lllllllleong/leadflow/internal/services"
)

// UserIDHeader carries the caller's identity when the function sits behind
// Identity-Aware Proxy.
const UserIDHeader = "X-Goog-Authenticated-User-Id"

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Uploader is the upload service the handler drives.
type Uploader interface {
	Process(ctx context.Context, req *models.UploadRequest) (*services.UploadResult, error)
	View(ctx context.Context, documentID string) (*services.DocumentView, error)
}

// Handler routes the lead capture pages.
type Handler struct {
	uploader Uploader
	mux      *http.ServeMux
}

// NewHandler returns a Handler backed by uploader.
func NewHandler(uploader Uploader) *Handler {
	h := &Handler{uploader: uploader, mux: http.NewServeMux()}
	h.mux.HandleFunc("GET /{$}", h.handleHome)
	h.mux.HandleFunc("POST /upload", h.handleUpload)
	h.mux.HandleFunc("GET /view/{id}", h.handleView)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

type homePage struct {
	Error string
}

type viewPage struct {
	Document *models.Document
	Leads    []models.Lead
	Blur     bool
}

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	render(w, http.StatusOK, "home", homePage{})
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		slog.Warn("Upload request without a file.", "error", err)
		render(w, http.StatusBadRequest, "home", homePage{Error: "Choose a .csv file to upload."})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		slog.Error("Failed to read uploaded file.", "error", err, "filename", header.Filename)
		render(w, http.StatusBadRequest, "home", homePage{Error: "The file could not be read."})
		return
	}

	res, err := h.uploader.Process(r.Context(), &models.UploadRequest{
		Filename: header.Filename,
		Content:  content,
		Owner:    ownerFromRequest(r),
	})
	if err != nil {
		// Process has already logged the failure with the document context.
		status, message := describeUploadError(err)
		render(w, status, "home", homePage{Error: message})
		return
	}

	http.Redirect(w, r, res.RedirectPath(), http.StatusSeeOther)
}

func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	view, err := h.uploader.View(r.Context(), id)
	if errors.Is(err, models.ErrDocumentNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("Failed to load document view.", "documentId", id, "error", err)
		http.Error(w, "Internal Server Error: failed to load document", http.StatusInternalServerError)
		return
	}

	render(w, http.StatusOK, "view", viewPage{
		Document: view.Document,
		Leads:    view.Leads,
		Blur:     r.URL.Query().Get("blur") == "1",
	})
}

// ownerFromRequest returns the IAP user id without its "accounts.google.com:" prefix.
func ownerFromRequest(r *http.Request) *string {
	v := r.Header.Get(UserIDHeader)
	if v == "" {
		return nil
	}
	if _, id, ok := strings.Cut(v, ":"); ok {
		v = id
	}
	if v == "" {
		return nil
	}
	return &v
}

func describeUploadError(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrNotCSV):
		return http.StatusBadRequest, "Only .csv files are accepted."
	case errors.Is(err, services.ErrParseFailure):
		return http.StatusBadRequest, "The file could not be parsed as CSV."
	case errors.Is(err, services.ErrNoEmails):
		return http.StatusUnprocessableEntity, "No emails were found in the file."
	case errors.Is(err, services.ErrStorageUpload),
		errors.Is(err, services.ErrDocumentInsert),
		errors.Is(err, services.ErrLeadInsert):
		return http.StatusBadGateway, "The upload could not be saved. Please try again."
	default:
		return http.StatusInternalServerError, "Something went wrong. Please try again."
	}
}

func render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("Failed to render template.", "template", name, "error", err)
		http.Error(w, "Internal Server Error: failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
