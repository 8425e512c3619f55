package handlers

import (
	"net/http"

	"github.com/ultrai-project/orchestrator/api"
	"github.com/ultrai-project/orchestrator/registry"
)

// ModelsHandler answers GET /api/orchestrator/models from the Registry.
type ModelsHandler struct {
	reg *registry.Registry
}

// NewModelsHandler builds a ModelsHandler bound to reg.
func NewModelsHandler(reg *registry.Registry) *ModelsHandler {
	return &ModelsHandler{reg: reg}
}

func (h *ModelsHandler) Handle(w http.ResponseWriter, r *http.Request) {
	descriptors := h.reg.All()
	resp := api.ModelListResponse{Models: make([]api.ModelSummary, 0, len(descriptors))}
	for _, d := range descriptors {
		resp.Models = append(resp.Models, api.ModelSummary{
			ModelID:            d.ID,
			Provider:           d.Provider,
			RequiresCredential: d.RequiresCredential,
		})
	}
	WriteSuccess(w, resp)
}
