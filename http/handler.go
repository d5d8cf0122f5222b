package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/sagarc03/shareline"
)

// FileService is the upload/retrieval orchestration the boundary depends on.
type FileService interface {
	Upload(ctx context.Context, ownerID int64, originalName, contentTypeHint string, content io.Reader) (shareline.File, error)
	List(ctx context.Context, ownerID int64) ([]shareline.FileInfo, error)
	Download(ctx context.Context, fileID, requesterID int64) (shareline.File, io.ReadSeekCloser, error)
	OpenShared(ctx context.Context, token string) (shareline.File, io.ReadSeekCloser, error)
	Delete(ctx context.Context, fileID, requesterID int64) error
}

// ShareService manages share capability tokens.
type ShareService interface {
	CreateShareToken(ctx context.Context, fileID, requesterID int64, expirationDays int) (string, error)
	RevokeShareToken(ctx context.Context, fileID, requesterID int64) error
	ResolveByToken(ctx context.Context, token string) (shareline.File, error)
}

// IdentityService reconciles identity assertions into local users.
type IdentityService interface {
	Reconcile(ctx context.Context, claims shareline.IdentityClaims) (shareline.User, error)
	Lookup(ctx context.Context, id int64) (shareline.User, error)
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	// BaseURL is the fallback public URL when no forwarded headers are present.
	BaseURL string
	// MaxUploadSize caps upload bodies in bytes; 0 means no limit.
	MaxUploadSize int64
	CORS          CORSConfig
}

// Handler provides the REST boundary for the shareline core.
type Handler struct {
	config   HandlerConfig
	sessions *Sessions
	identity IdentityService
	files    FileService
	shares   ShareService
}

// NewHandler creates a new Handler with the given configuration and services.
func NewHandler(config *HandlerConfig, sessions *Sessions, identity IdentityService, files FileService, shares ShareService) *Handler {
	return &Handler{
		config:   *config,
		sessions: sessions,
		identity: identity,
		files:    files,
		shares:   shares,
	}
}

// Router returns an http.Handler with all API routes configured.
// Share endpoints are public by design; everything else under /api requires
// a session.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/auth/test", h.handleAuthTest)
		r.Post("/auth/login", h.handleLogin)
		r.Post("/auth/logout", h.handleLogout)

		r.Get("/share/{token}", h.handleSharedDownload)
		r.Get("/share/{token}/info", h.handleSharedInfo)

		r.Group(func(r chi.Router) {
			r.Use(RequireSession(h.sessions))

			r.Get("/auth/user", h.handleCurrentUser)

			r.Post("/files/upload", h.handleUpload)
			r.Get("/files", h.handleList)
			r.Get("/files/{id}", h.handleDownload)
			r.Get("/files/{id}/preview", h.handlePreview)
			r.Delete("/files/{id}", h.handleDelete)

			r.Post("/files/{id}/share", h.handleCreateShare)
			r.Delete("/files/{id}/share", h.handleRevokeShare)
		})
	})

	return r
}

func (h *Handler) handleAuthTest(w http.ResponseWriter, r *http.Request) {
	_ = WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "API is accessible",
	})
}

type loginRequest struct {
	Assertion string `json:"assertion"`
}

type userResponse struct {
	Authenticated bool   `json:"authenticated"`
	ID            int64  `json:"id,omitempty"`
	Name          string `json:"name,omitempty"`
	Email         string `json:"email,omitempty"`
	Message       string `json:"message,omitempty"`
}

// handleLogin consumes a provider-signed identity assertion, reconciles it
// into a local user, and starts a session.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	assertion := bearerToken(r)
	if assertion == "" {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			WriteError(w, http.StatusBadRequest, "invalid_input", "Malformed request body")
			return
		}
		assertion = req.Assertion
	}

	if assertion == "" {
		WriteError(w, http.StatusUnauthorized, "authentication_required", "Missing identity assertion")
		return
	}

	claims, err := h.sessions.VerifyAssertion(assertion)
	if err != nil {
		HandleError(w, err)
		return
	}

	user, err := h.identity.Reconcile(r.Context(), claims)
	if err != nil {
		HandleError(w, err)
		return
	}

	token, err := h.sessions.Issue(user)
	if err != nil {
		HandleError(w, err)
		return
	}

	h.sessions.SetCookie(w, token)
	_ = WriteJSON(w, http.StatusOK, userResponse{
		Authenticated: true,
		ID:            user.ID,
		Name:          user.Name,
		Email:         user.Email,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearCookie(w)
	_ = WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (h *Handler) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, err := requesterID(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	user, err := h.identity.Lookup(r.Context(), userID)
	if err != nil {
		// Session references a user that no longer resolves.
		if errors.Is(err, shareline.ErrNotFound) {
			_ = WriteJSON(w, http.StatusOK, userResponse{Authenticated: false, Message: "User not found"})
			return
		}
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, userResponse{
		Authenticated: true,
		ID:            user.ID,
		Name:          user.Name,
		Email:         user.Email,
	})
}

type uploadResponse struct {
	shareline.UploadResult
	Message string `json:"message"`
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	userID, err := requesterID(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	if h.config.MaxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadSize)
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			WriteError(w, http.StatusRequestEntityTooLarge, "file_too_large", "Uploaded file exceeds the size limit")
			return
		}
		WriteError(w, http.StatusBadRequest, "invalid_input", "Missing file field")
		return
	}
	defer func() { _ = part.Close() }()

	f, err := h.files.Upload(r.Context(), userID, header.Filename, header.Header.Get("Content-Type"), part)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, uploadResponse{
		UploadResult: shareline.UploadResult{
			ID:               f.ID,
			OriginalFilename: f.OriginalFilename,
			FileSize:         f.FileSize,
		},
		Message: "File uploaded successfully",
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	userID, err := requesterID(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	infos, err := h.files.List(r.Context(), userID)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, infos)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	h.serveOwned(w, r, "attachment")
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	h.serveOwned(w, r, "inline")
}

func (h *Handler) serveOwned(w http.ResponseWriter, r *http.Request, disposition string) {
	userID, err := requesterID(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	fileID, ok := pathID(w, r)
	if !ok {
		return
	}

	f, content, err := h.files.Download(r.Context(), fileID, userID)
	if err != nil {
		HandleError(w, err)
		return
	}
	defer func() { _ = content.Close() }()

	serveContent(w, r, f, content, disposition)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	userID, err := requesterID(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	fileID, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.files.Delete(r.Context(), fileID, userID); err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]string{"message": "File deleted successfully"})
}

type shareRequest struct {
	ExpirationDays *int `json:"expirationDays"`
}

type shareResponse struct {
	ShareToken string `json:"shareToken"`
	ShareURL   string `json:"shareUrl"`
}

func (h *Handler) handleCreateShare(w http.ResponseWriter, r *http.Request) {
	userID, err := requesterID(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	fileID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req shareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, http.StatusBadRequest, "invalid_input", "Malformed request body")
		return
	}

	days := 0
	if req.ExpirationDays != nil {
		if *req.ExpirationDays <= 0 {
			WriteError(w, http.StatusBadRequest, "invalid_input", "expirationDays must be positive")
			return
		}
		days = *req.ExpirationDays
	}

	token, err := h.shares.CreateShareToken(r.Context(), fileID, userID, days)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, shareResponse{
		ShareToken: token,
		ShareURL:   h.resolveBaseURL(r) + "/share/" + token,
	})
}

func (h *Handler) handleRevokeShare(w http.ResponseWriter, r *http.Request) {
	userID, err := requesterID(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	fileID, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.shares.RevokeShareToken(r.Context(), fileID, userID); err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]string{"message": "Share link revoked successfully"})
}

func (h *Handler) handleSharedDownload(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	f, content, err := h.files.OpenShared(r.Context(), token)
	if err != nil {
		HandleError(w, err)
		return
	}
	defer func() { _ = content.Close() }()

	serveContent(w, r, f, content, "attachment")
}

func (h *Handler) handleSharedInfo(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	f, err := h.shares.ResolveByToken(r.Context(), token)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, f.ShareInfo())
}

// resolveBaseURL honors forwarded headers when behind a proxy or load
// balancer, falling back to the configured base URL, then to the request host.
func (h *Handler) resolveBaseURL(r *http.Request) string {
	if host := r.Header.Get("X-Forwarded-Host"); host != "" {
		scheme := r.Header.Get("X-Forwarded-Proto")
		if scheme == "" {
			scheme = requestScheme(r)
		}
		port := ""
		if p := r.Header.Get("X-Forwarded-Port"); p != "" && p != "80" && p != "443" {
			port = ":" + p
		}
		return scheme + "://" + host + port
	}

	if h.config.BaseURL != "" {
		return strings.TrimSuffix(h.config.BaseURL, "/")
	}

	return requestScheme(r) + "://" + r.Host
}

func requestScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_input", "Invalid file id")
		return 0, false
	}
	return id, true
}

func serveContent(w http.ResponseWriter, r *http.Request, f shareline.File, content io.ReadSeekCloser, disposition string) {
	mimeType := f.MimeType
	if mimeType == "" {
		mimeType = shareline.FallbackMimeType
	}

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType(disposition, map[string]string{"filename": f.OriginalFilename}))
	if f.Checksum != "" {
		w.Header().Set("ETag", `"`+f.Checksum+`"`)
	}

	http.ServeContent(w, r, "", f.CreatedAt, content)
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if strings.HasPrefix(auth, prefix) {
		return strings.TrimSpace(auth[len(prefix):])
	}
	return ""
}
