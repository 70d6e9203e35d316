package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"agendazap/internal/professionals/service"
	httputil "agendazap/pkg/http"
	"agendazap/pkg/logger"
	"agendazap/pkg/model"
)

type ProfessionalHandler struct {
	service service.ProfessionalService
	log     *logger.Logger
}

func NewProfessionalHandler(service service.ProfessionalService, log *logger.Logger) *ProfessionalHandler {
	return &ProfessionalHandler{
		service: service,
		log:     log,
	}
}

func (h *ProfessionalHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var professional model.Professional
	if err := json.NewDecoder(r.Body).Decode(&professional); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	if err := h.service.Create(r.Context(), &professional); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteCreated(w, professional)
}

func (h *ProfessionalHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	professional, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, professional)
}

func (h *ProfessionalHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	professionals, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, professionals)
}

func (h *ProfessionalHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.ProfessionalUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		})
		return
	}

	if err := h.service.Update(r.Context(), ps.ByName("id"), &updates); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

// Remove runs the cancellation cascade. The response body is the removal
// report so callers can see which side effects need a manual retry.
func (h *ProfessionalHandler) Remove(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	report, err := h.service.Remove(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if !report.Clean() {
		h.log.Warn("Professional removal finished with failures",
			"professional_id", report.ProfessionalID,
			"failed_notifications", len(report.FailedNotifications),
			"failed_event_deletions", len(report.FailedEventDeletions),
		)
	}
	httputil.WriteSuccess(w, report)
}

// Connect returns the OAuth consent URL for the professional's calendar.
func (h *ProfessionalHandler) Connect(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	url, err := h.service.ConnectURL(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, map[string]string{"auth_url": url})
}

// ConnectCallback stores the tokens exchanged from the OAuth redirect. The
// professional is identified by the sealed state parameter, so the route is
// fixed and can be registered as the provider's redirect URI.
func (h *ProfessionalHandler) ConnectCallback(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if err := h.service.CompleteConnect(r.Context(), state, code); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, map[string]string{"status": "connected"})
}

func (h *ProfessionalHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/professionals", h.Create)
	router.GET("/api/v1/professionals", h.List)
	router.GET("/api/v1/professionals/id/:id", h.GetByID)
	router.PATCH("/api/v1/professionals/id/:id", h.Update)
	router.DELETE("/api/v1/professionals/id/:id", h.Remove)
	router.GET("/api/v1/professionals/id/:id/connect", h.Connect)
	router.GET("/api/v1/professionals/connect/callback", h.ConnectCallback)
}
