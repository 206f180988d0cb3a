package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/todo-api/internal/api/shared"
	"github.com/phrazzld/todo-api/internal/platform/filestore"
	"github.com/phrazzld/todo-api/internal/service"
	"github.com/phrazzld/todo-api/internal/store"
)

// Upload limits for todo images
const (
	// maxImageBytes caps uploaded image size at 2 MB
	maxImageBytes = 2 << 20

	// imageUploadArea is the filestore area todo images land in
	imageUploadArea = "todos"
)

// TodoHandler handles todo-related API requests.
type TodoHandler struct {
	todoService service.TodoService
	fileStore   filestore.FileStore
	validator   *validator.Validate
	logger      *slog.Logger
}

// NewTodoHandler creates a new TodoHandler with the given dependencies.
// If logger is nil, a default logger is used.
func NewTodoHandler(
	todoService service.TodoService,
	fileStore filestore.FileStore,
	logger *slog.Logger,
) *TodoHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TodoHandler{
		todoService: todoService,
		fileStore:   fileStore,
		validator:   validator.New(),
		logger:      logger.With("component", "todo_handler"),
	}
}

// List handles GET /api/todos with optional filtering and pagination.
func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := store.TodoFilter{
		Title:       query.Get("title"),
		Status:      query.Get("status"),
		CreatedDate: query.Get("created_at"),
	}
	page := store.PageRequest{
		Page:    queryInt(query.Get("page")),
		PerPage: queryInt(query.Get("per_page")),
	}

	result, err := h.todoService.ListTodos(r.Context(), filter, page)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to retrieve todos")
		return
	}

	shared.RespondWithPage(w, r, "Todos retrieved successfully", result)
}

// Create handles POST /api/todos. The body is either JSON or a multipart
// form carrying an optional image file.
func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	var req CreateTodoRequest
	var image string

	if isMultipart(r) {
		var err error
		req, image, err = h.parseCreateForm(w, r)
		if err != nil {
			// Response already written
			return
		}
	} else {
		if err := shared.DecodeJSON(r, &req); err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
			return
		}
	}

	if err := h.validator.Struct(req); err != nil {
		h.removeOrphanedImage(image)
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	todo, err := h.todoService.CreateTodo(r.Context(), userID, req.Title, req.Description, req.Status, image)
	if err != nil {
		h.removeOrphanedImage(image)
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusCreated, "Todo created successfully", todo)
}

// Get handles GET /api/todos/{id}.
func (h *TodoHandler) Get(w http.ResponseWriter, r *http.Request) {
	todoID, err := getPathUUID(r, "id")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusNotFound, "Todo not found")
		return
	}

	todo, err := h.todoService.GetTodo(r.Context(), todoID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, "Todo retrieved successfully", todo)
}

// Update handles PUT /api/todos/{id}. Fields absent from the body keep
// their current values.
func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	todoID, err := getPathUUID(r, "id")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusNotFound, "Todo not found")
		return
	}

	var req UpdateTodoRequest
	var image *string

	if isMultipart(r) {
		var ok bool
		req, image, ok = h.parseUpdateForm(w, r)
		if !ok {
			return
		}
	} else {
		if err := shared.DecodeJSON(r, &req); err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
			return
		}
	}

	if err := h.validator.Struct(req); err != nil {
		if image != nil {
			h.removeOrphanedImage(*image)
		}
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	todo, err := h.todoService.UpdateTodo(r.Context(), todoID, service.UpdateTodoInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Image:       image,
	})
	if err != nil {
		if image != nil {
			h.removeOrphanedImage(*image)
		}
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, "Todo updated successfully", todo)
}

// UpdateStatus handles PUT and PATCH /api/todos/{id}/status.
func (h *TodoHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	todoID, err := getPathUUID(r, "id")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusNotFound, "Todo not found")
		return
	}

	var req UpdateTodoStatusRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	todo, err := h.todoService.UpdateTodoStatus(r.Context(), todoID, req.Status)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, "Todo status updated successfully", todo)
}

// Delete handles DELETE /api/todos/{id}.
func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	todoID, err := getPathUUID(r, "id")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusNotFound, "Todo not found")
		return
	}

	if err := h.todoService.DeleteTodo(r.Context(), todoID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, "Todo deleted successfully", nil)
}

// parseCreateForm reads a multipart create request, saving the image when
// one is attached. On failure it writes the error response and returns a
// non-nil error.
func (h *TodoHandler) parseCreateForm(w http.ResponseWriter, r *http.Request) (CreateTodoRequest, string, error) {
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid multipart form")
		return CreateTodoRequest{}, "", err
	}

	req := CreateTodoRequest{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Status:      r.FormValue("status"),
	}

	image, ok := h.saveUploadedImage(w, r)
	if !ok {
		return CreateTodoRequest{}, "", errors.New("image upload rejected")
	}

	return req, image, nil
}

// parseUpdateForm reads a multipart update request. Only form keys that are
// present become updates; the bool result is false when a response has
// already been written.
func (h *TodoHandler) parseUpdateForm(w http.ResponseWriter, r *http.Request) (UpdateTodoRequest, *string, bool) {
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid multipart form")
		return UpdateTodoRequest{}, nil, false
	}

	var req UpdateTodoRequest
	if values, ok := r.MultipartForm.Value["title"]; ok && len(values) > 0 {
		req.Title = &values[0]
	}
	if values, ok := r.MultipartForm.Value["description"]; ok && len(values) > 0 {
		req.Description = &values[0]
	}
	if values, ok := r.MultipartForm.Value["status"]; ok && len(values) > 0 {
		req.Status = &values[0]
	}

	image, ok := h.saveUploadedImage(w, r)
	if !ok {
		return UpdateTodoRequest{}, nil, false
	}

	var imagePtr *string
	if image != "" {
		imagePtr = &image
	}
	return req, imagePtr, true
}

// saveUploadedImage stores the "image" form file if present, enforcing the
// size and content-type limits. The bool result is false when the upload
// was rejected and a response written.
func (h *TodoHandler) saveUploadedImage(w http.ResponseWriter, r *http.Request) (string, bool) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return "", true
	}
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid image upload")
		return "", false
	}
	defer func() {
		if err := file.Close(); err != nil {
			h.logger.Error("failed to close uploaded file", "error", err)
		}
	}()

	if header.Size > maxImageBytes {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Image must be at most 2 MB")
		return "", false
	}
	if !strings.HasPrefix(header.Header.Get("Content-Type"), "image/") {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Uploaded file must be an image")
		return "", false
	}

	path, err := h.fileStore.Save(file, imageUploadArea, header.Filename)
	if err != nil {
		h.logger.Error("failed to store uploaded image", "error", err)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to store image")
		return "", false
	}

	return path, true
}

// removeOrphanedImage deletes a stored upload whose todo write failed.
func (h *TodoHandler) removeOrphanedImage(image string) {
	if image == "" {
		return
	}
	if err := h.fileStore.Remove(image); err != nil {
		h.logger.Error("failed to remove orphaned image",
			"image", image,
			"error", err)
	}
}

// queryInt parses a positive integer query parameter, returning zero for
// missing or malformed values so PageRequest.Normalize applies defaults.
func queryInt(value string) int {
	if value == "" {
		return 0
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
