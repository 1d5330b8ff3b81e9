package v1

import (
	"net/http"

	"github.com/careops/clinicops/internal/domain/catalog"
	"github.com/gin-gonic/gin"
)

// CatalogHandler serves the read-only reference data the flows are built
// on: bookable services, protocol templates, and the medicine list.
type CatalogHandler struct {
	services  catalog.ServiceRepository
	medicines catalog.MedicineRepository
	protocols catalog.ProtocolRepository
}

func NewCatalogHandler(services catalog.ServiceRepository, medicines catalog.MedicineRepository, protocols catalog.ProtocolRepository) *CatalogHandler {
	return &CatalogHandler{services: services, medicines: medicines, protocols: protocols}
}

func (h *CatalogHandler) ListServices(c *gin.Context) {
	var category *catalog.ServiceCategory
	if raw := c.Query("category"); raw != "" {
		cat := catalog.ServiceCategory(raw)
		if !cat.IsValid() {
			respondError(c, http.StatusBadRequest, "invalid category: must be TEST, CONSULT, or TREATMENT")
			return
		}
		category = &cat
	}

	services, err := h.services.List(c.Request.Context(), category)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, services)
}

func (h *CatalogHandler) GetService(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	svc, err := h.services.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, svc)
}

func (h *CatalogHandler) ListMedicines(c *gin.Context) {
	meds, err := h.medicines.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, meds)
}

func (h *CatalogHandler) ListProtocols(c *gin.Context) {
	protos, err := h.protocols.List(c.Request.Context(), c.Query("target_condition"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, protos)
}

func (h *CatalogHandler) GetProtocol(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	proto, err := h.protocols.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, proto)
}
