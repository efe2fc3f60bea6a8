package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/forgo/storefront/api/internal/logger"
	"github.com/forgo/storefront/api/internal/model"
)

// maxTokenPayloadBytes bounds the POST /auth body.
const maxTokenPayloadBytes = 100 << 10

// TokenIssuer issues tokens from raw JSON claims. *service.TokenService implements it.
type TokenIssuer interface {
	CheckIssue() error
	IssueJSON(raw []byte) (string, error)
}

// TokenResponse is the body of a successful POST /auth
type TokenResponse struct {
	Token string `json:"token"`
}

// TokenHandler handles token issuance
type TokenHandler struct {
	tokens TokenIssuer
	log    logger.Logger
}

// NewTokenHandler creates a new token handler
func NewTokenHandler(tokens TokenIssuer, log logger.Logger) *TokenHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &TokenHandler{tokens: tokens, log: log}
}

// Issue handles POST /auth
func (h *TokenHandler) Issue(w http.ResponseWriter, r *http.Request) {
	// Configuration is reported before anything about the request.
	if err := h.tokens.CheckIssue(); err != nil {
		h.writeError(w, r, err)
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxTokenPayloadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, model.NewInvalidPayloadError("payload too large"))
			return
		}
		WriteError(w, model.NewBadRequestError("could not read request body"))
		return
	}

	token, err := h.tokens.IssueJSON(raw)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, TokenResponse{Token: token})
}

func (h *TokenHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := MapServiceError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		h.log.Errorw("token issuance failed", "error", err, "path", r.URL.Path)
	}
	WriteError(w, apiErr)
}
