package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all quantum routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/quantum", func(r chi.Router) {
		r.Post("/circuit", h.HandleExecuteCircuit)
		r.Post("/bell-pair", h.HandleBellPair)
		r.Post("/teleport", h.HandleTeleport)
		r.Post("/grover", h.HandleGrover)
		r.Post("/vqe", h.HandleVQE)
		r.Post("/qft", h.HandleQFT)
		r.Post("/phase-estimation", h.HandlePhaseEstimation)
		r.Post("/classifier/train", h.HandleTrainClassifier)
		r.Post("/error-correction", h.HandleErrorCorrection)
		r.Get("/statistics", h.HandleStatistics)
		r.Get("/gates", h.HandleGetGates)
	})
}
