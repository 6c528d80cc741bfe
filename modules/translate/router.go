package translate

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/readlingo/readlingo/core"
)

// Handlers carries the translation endpoint dependencies.
type Handlers struct {
	translator Translator
}

// NewHandlers creates the translation endpoint handlers.
func NewHandlers(translator Translator) *Handlers {
	if translator == nil {
		panic("translate: translator is required")
	}
	return &Handlers{translator: translator}
}

// Routes registers the translation endpoint on the given router.
func Routes(r chi.Router, h *Handlers) {
	r.Post("/translate", h.handleTranslate)
}

type translateRequest struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Target string `json:"target"`
}

type translateResponse struct {
	Translation string `json:"translation"`
	Cached      bool   `json:"cached"`
}

func (h *Handlers) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.WriteError(w, http.StatusBadRequest, core.ErrBadRequest.Code, "Invalid request body", "")
		return
	}
	if req.Text == "" || req.Source == "" || req.Target == "" {
		core.WriteError(w, http.StatusBadRequest, core.ErrBadRequest.Code, "text, source and target are required", "")
		return
	}

	out, err := h.translator.Translate(r.Context(), req.Text, req.Source, req.Target)
	if err != nil {
		core.WriteError(w, http.StatusInternalServerError, core.ErrInternalError.Code, "Translation failed", err.Error())
		return
	}

	core.WriteJSON(w, http.StatusOK, translateResponse{Translation: out.Text, Cached: out.Cached})
}
