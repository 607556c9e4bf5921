package logs

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ecochamps/internal/contextutils"
	"ecochamps/internal/response"
	"ecochamps/internal/services"
	"ecochamps/internal/utils"
)

// maxUploadMemory bounds in-memory buffering of multipart submissions.
const maxUploadMemory = 10 << 20

// LogController handles waste log API endpoints. Submissions are accepted
// as plain JSON or as multipart form data with an optional photo, which is
// pushed to image storage before the entry is recorded.
type LogController struct {
	logService services.WasteLogService
	images     utils.ImageStorage
	builder    *response.Builder
	logger     *zap.Logger
}

// NewLogController creates a new waste log API controller. The image store
// may be nil, in which case photo uploads are rejected.
func NewLogController(
	logService services.WasteLogService,
	images utils.ImageStorage,
	builder *response.Builder,
	logger *zap.Logger,
) *LogController {
	return &LogController{
		logService: logService,
		images:     images,
		builder:    builder,
		logger:     logger,
	}
}

// Submit handles POST /api/v1/logs
func (c *LogController) Submit(w http.ResponseWriter, r *http.Request) {
	req, err := c.decodeSubmission(r)
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}

	// The authenticated identity owns the entry no matter what the body says.
	req.UserID = contextutils.GetUserID(r.Context())

	entry, err := c.logService.SubmitLog(r.Context(), req)
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}
	c.builder.WriteCreated(w, r, entry)
}

// decodeSubmission parses a JSON or multipart log submission.
func (c *LogController) decodeSubmission(r *http.Request) (*services.SubmitLogRequest, error) {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		var req services.SubmitLogRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, services.NewValidationError("invalid request body", err)
		}
		return &req, nil
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return nil, services.NewValidationError("invalid multipart form", err)
	}

	quantity, err := strconv.ParseFloat(r.FormValue("quantity"), 64)
	if err != nil {
		return nil, services.NewValidationError("quantity must be a number", err)
	}
	points, err := strconv.ParseInt(r.FormValue("points_awarded"), 10, 64)
	if err != nil {
		return nil, services.NewValidationError("points_awarded must be an integer", err)
	}

	req := &services.SubmitLogRequest{
		Category:      r.FormValue("category"),
		Quantity:      quantity,
		PointsAwarded: points,
	}
	if comment := r.FormValue("comment"); comment != "" {
		req.Comment = &comment
	}

	file, header, err := r.FormFile("image")
	if err == http.ErrMissingFile {
		return req, nil
	}
	if err != nil {
		return nil, services.NewValidationError("invalid image upload", err)
	}
	file.Close()

	if c.images == nil {
		return nil, services.NewServiceUnavailableError("image uploads are not configured")
	}

	result, err := c.images.UploadImage(r.Context(), header, "waste-logs")
	if err != nil {
		c.logger.Error("Image upload failed", zap.Error(err), zap.String("filename", header.Filename))
		return nil, services.NewInternalError("failed to store image")
	}
	req.ImageURL = &result.URL
	req.ImagePublicID = &result.PublicID

	return req, nil
}

// Delete handles DELETE /api/v1/logs/{id}
func (c *LogController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		c.builder.WriteError(w, r, services.NewValidationError("invalid log ID", err))
		return
	}

	requesterID := contextutils.GetUserID(r.Context())

	// Fetch first so an orphaned photo can be cleaned up after the delete.
	entry, err := c.logService.GetLog(r.Context(), id)
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}

	if err := c.logService.DeleteLog(r.Context(), id, requesterID); err != nil {
		c.builder.WriteError(w, r, err)
		return
	}

	if c.images != nil && entry.ImagePublicID != nil {
		if err := c.images.DeleteImage(r.Context(), *entry.ImagePublicID); err != nil {
			c.logger.Warn("Failed to remove image for deleted log",
				zap.Error(err),
				zap.Int64("log_id", id),
			)
		}
	}

	c.builder.WriteNoContent(w, r)
}

// Get handles GET /api/v1/logs/{id}
func (c *LogController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		c.builder.WriteError(w, r, services.NewValidationError("invalid log ID", err))
		return
	}

	entry, err := c.logService.GetLog(r.Context(), id)
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}
	c.builder.WriteSuccess(w, r, entry)
}

// ListForUser handles GET /api/v1/users/{id}/logs
func (c *LogController) ListForUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		c.builder.WriteError(w, r, services.NewValidationError("invalid user ID", err))
		return
	}

	entries, err := c.logService.ListLogsForUser(r.Context(), userID)
	if err != nil {
		c.builder.WriteError(w, r, err)
		return
	}
	c.builder.WriteSuccess(w, r, entries)
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}
