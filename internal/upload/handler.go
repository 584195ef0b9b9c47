package upload

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/radif/uploader/internal/middleware"
	"github.com/radif/uploader/internal/response"
)

// Handler holds HTTP handlers for upload endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new upload Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Routes mounts the upload endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/uploads", h.Upload)
	r.Get("/uploads/*", h.Get)
	r.Get("/storage", h.Status)
}

// Upload godoc
//
//	@Summary		Upload a staged file
//	@Description	Moves a file from the staging directory into the configured object store and returns its metadata augmented with filesize, filename, resource_id and storage_backend. metadata.file_prefix is required.
//	@Tags			uploads
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		Request	true	"Staged file and metadata"
//	@Success		201		{object}	response.Envelope{data=object}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		404		{object}	response.Envelope
//	@Failure		502		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/uploads [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	callerID, _ := r.Context().Value(middleware.CallerIDKey).(string)

	res, err := h.svc.Upload(r.Context(), req, callerID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Created(w, res)
}

// Get godoc
//
//	@Summary		Get an upload
//	@Description	Returns the recorded upload for a resource id. The id may contain slashes.
//	@Tags			uploads
//	@Produce		json
//	@Security		BearerAuth
//	@Param			resourceId	path		string	true	"Resource id"
//	@Success		200			{object}	response.Envelope{data=Record}
//	@Failure		401			{object}	response.Envelope
//	@Failure		404			{object}	response.Envelope
//	@Failure		500			{object}	response.Envelope
//	@Router			/uploads/{resourceId} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	resourceID := strings.Trim(chi.URLParam(r, "*"), "/")
	if resourceID == "" {
		response.BadRequest(w, "resource id required")
		return
	}

	rec, err := h.svc.Get(r.Context(), resourceID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, rec)
}

// Status godoc
//
//	@Summary		Storage backend status
//	@Description	Reports whether uploads are sent to a remote object store and which backend is configured.
//	@Tags			uploads
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	response.Envelope{data=Status}
//	@Failure		401	{object}	response.Envelope
//	@Router			/storage [get]
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	response.OK(w, h.svc.Status())
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, "source file not found")
	case errors.Is(err, ErrRecordNotFound):
		response.NotFound(w, "upload not found")
	case errors.Is(err, ErrUpload):
		response.BadGateway(w, "object store unavailable")
	default:
		response.InternalError(w)
	}
}
