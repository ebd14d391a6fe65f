package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"flyra-backend/internal/domain"
	"flyra-backend/internal/repository"
	"flyra-backend/internal/service"
	"flyra-backend/pkg/qrcode"
)

var validate = validator.New()

// LinksHandler serves link creation, deletion and password verification.
type LinksHandler struct {
	shortener *service.ShortenerService
	verifier  *service.PasswordVerifier
	log       *zap.Logger
}

func NewLinksHandler(shortener *service.ShortenerService, verifier *service.PasswordVerifier, log *zap.Logger) *LinksHandler {
	return &LinksHandler{
		shortener: shortener,
		verifier:  verifier,
		log:       log,
	}
}

// CreateLinkRequest mirrors the shorten form of the web UI.
type CreateLinkRequest struct {
	URL              string `json:"url" validate:"required,url"`
	CustomSlug       string `json:"custom_slug,omitempty"`
	ExpirationOption string `json:"expiration_option,omitempty" validate:"omitempty,oneof=never clicks time"`
	ExpirationValue  string `json:"expiration_value,omitempty"`
	Password         string `json:"password,omitempty"`
	IsOneTimeUse     bool   `json:"is_one_time_use,omitempty"`

	IsDynamicLink      bool `json:"is_dynamic_link,omitempty"`
	DynamicLinkOptions struct {
		Day   string `json:"day" validate:"omitempty,url"`
		Night string `json:"night" validate:"omitempty,url"`
	} `json:"dynamic_link_options,omitempty"`

	IsAppStoreLink bool `json:"is_app_store_link,omitempty"`
	AppStoreLinks  struct {
		IOS     string `json:"ios" validate:"omitempty,url"`
		Android string `json:"android" validate:"omitempty,url"`
	} `json:"app_store_links,omitempty"`
}

// CreateLinkResponse carries the public short URL and its QR code.
type CreateLinkResponse struct {
	Slug     string `json:"slug"`
	ShortURL string `json:"short_url"`
	QRCode   string `json:"qr_code,omitempty"`
}

// VerifyRequest is the password challenge submission.
type VerifyRequest struct {
	Password string `json:"password" validate:"required"`
}

// VerifyResponse discloses the destination after a password match.
type VerifyResponse struct {
	OriginalURL string `json:"original_url"`
}

// CreateLink handles POST /api/shorten.
func (h *LinksHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug("invalid create link request", zap.Error(err))
		h.writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(&req); err != nil {
		h.writeError(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	input, err := buildCreateInput(&req)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	rec, err := h.shortener.CreateLink(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSlug), errors.Is(err, service.ErrReservedSlug),
			errors.Is(err, service.ErrMissingExpiration):
			h.writeError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, repository.ErrSlugExists):
			h.writeError(w, "Slug already exists", http.StatusConflict)
		default:
			h.log.Error("failed to create link", zap.Error(err))
			h.writeError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	resp := CreateLinkResponse{
		Slug:     rec.Slug,
		ShortURL: h.shortener.ShortURL(rec.Slug),
	}

	// QR generation is best effort; a broken image must not fail creation
	if qr, err := qrcode.DataURL(resp.ShortURL, 512); err == nil {
		resp.QRCode = qr
	} else {
		h.log.Warn("failed to generate qr code", zap.String("slug", rec.Slug), zap.Error(err))
	}

	h.writeJSON(w, http.StatusCreated, resp)
}

// HandleLink routes /api/links/{slug}[/verify].
func (h *LinksHandler) HandleLink(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/links/")

	if slugPart, ok := strings.CutSuffix(rest, "/verify"); ok && r.Method == http.MethodPost {
		h.verify(w, r, unescape(slugPart))
		return
	}

	if r.Method == http.MethodDelete && rest != "" && !strings.Contains(rest, "/") {
		h.delete(w, r, unescape(rest))
		return
	}

	http.NotFound(w, r)
}

func (h *LinksHandler) verify(w http.ResponseWriter, r *http.Request, slug string) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(&req); err != nil {
		h.writeError(w, "Password is required", http.StatusBadRequest)
		return
	}

	originalURL, err := h.verifier.Verify(r.Context(), slug, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLinkNotFound):
			h.writeError(w, "URL not found", http.StatusNotFound)
		case errors.Is(err, service.ErrNotPasswordProtected):
			h.writeError(w, "URL is not password protected", http.StatusBadRequest)
		case errors.Is(err, service.ErrIncorrectPassword):
			h.writeError(w, "Incorrect password", http.StatusUnauthorized)
		default:
			h.log.Error("verify failed", zap.String("slug", slug), zap.Error(err))
			h.writeError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(w, http.StatusOK, VerifyResponse{OriginalURL: originalURL})
}

func (h *LinksHandler) delete(w http.ResponseWriter, r *http.Request, slug string) {
	if err := h.shortener.DeleteLink(r.Context(), slug); err != nil {
		if errors.Is(err, repository.ErrSlugNotFound) {
			h.writeError(w, "URL not found", http.StatusNotFound)
			return
		}
		h.log.Error("failed to delete link", zap.String("slug", slug), zap.Error(err))
		h.writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func buildCreateInput(req *CreateLinkRequest) (service.CreateLinkInput, error) {
	input := service.CreateLinkInput{
		URL:              req.URL,
		CustomSlug:       req.CustomSlug,
		ExpirationPolicy: domain.ExpirationPolicy(req.ExpirationOption),
		Password:         req.Password,
		IsOneTimeUse:     req.IsOneTimeUse,
		IsDynamicLink:    req.IsDynamicLink,
		DynamicLinkOptions: domain.DynamicLinkOptions{
			Day:   req.DynamicLinkOptions.Day,
			Night: req.DynamicLinkOptions.Night,
		},
		IsAppStoreLink: req.IsAppStoreLink,
		AppStoreLinks: domain.AppStoreLinks{
			IOS:     req.AppStoreLinks.IOS,
			Android: req.AppStoreLinks.Android,
		},
	}

	switch domain.ExpirationPolicy(req.ExpirationOption) {
	case domain.ExpirationAfterClicks:
		clicks, err := strconv.ParseInt(req.ExpirationValue, 10, 64)
		if err != nil || clicks <= 0 {
			return input, errors.New("expiration_value must be a positive click count")
		}
		input.ClicksLimit = clicks
	case domain.ExpirationAfterTime:
		expiresAt, err := time.Parse(time.RFC3339, req.ExpirationValue)
		if err != nil {
			return input, errors.New("expiration_value must be an RFC3339 timestamp")
		}
		input.ExpiresAt = &expiresAt
	}

	return input, nil
}

func unescape(s string) string {
	if u, err := url.PathUnescape(s); err == nil {
		return u
	}
	return s
}

func (h *LinksHandler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("failed to encode response", zap.Error(err))
	}
}

func (h *LinksHandler) writeError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
