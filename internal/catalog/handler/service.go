package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"agendazap/internal/catalog/service"
	httputil "agendazap/pkg/http"
)

// ServiceHandler serves the read-only service catalog.
type ServiceHandler struct {
	service service.CatalogService
}

func NewServiceHandler(service service.CatalogService) *ServiceHandler {
	return &ServiceHandler{service: service}
}

func (h *ServiceHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	services, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, services)
}

func (h *ServiceHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	svc, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteSuccess(w, svc)
}

func (h *ServiceHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/services", h.List)
	router.GET("/api/v1/services/id/:id", h.GetByID)
}
