package handlers

import "net/http"

// Router набор обработчиков API
type Router struct {
	Health    *HealthHandler
	Votes     *VotesHandler
	Papeletas *PapeletaHandler
	Audit     *AuditHandler
}

// Register регистрирует маршруты API на mux.
// protect оборачивает все маршруты, требующие идентификации актора.
func (rt Router) Register(mux *http.ServeMux, protect func(http.Handler) http.Handler) {
	if protect == nil {
		protect = func(h http.Handler) http.Handler { return h }
	}

	// Публичные маршруты
	mux.HandleFunc("GET /api/v1/health", rt.Health.Health)

	routes := map[string]http.HandlerFunc{
		"POST /api/v1/escrutinios/{id}/votes":     rt.Votes.Submit,
		"GET /api/v1/escrutinios/{id}/counters":   rt.Votes.Counters,
		"POST /api/v1/escrutinios/{id}/complete":  rt.Votes.Complete,
		"GET /api/v1/escrutinios/{id}/audit":      rt.Audit.List,
		"GET /api/v1/escrutinios/{id}/location":   rt.Audit.Location,
		"POST /api/v1/escrutinios/{id}/papeletas": rt.Papeletas.Start,
		"GET /api/v1/papeletas/{id}":              rt.Papeletas.Status,
		"POST /api/v1/papeletas/{id}/votes":       rt.Papeletas.Vote,
		"PUT /api/v1/papeletas/{id}/votes":        rt.Papeletas.VotesBatch,
		"POST /api/v1/papeletas/{id}/anular":      rt.Papeletas.Anular,
		"POST /api/v1/papeletas/{id}/commit":      rt.Papeletas.Commit,
	}

	for pattern, handler := range routes {
		mux.Handle(pattern, protect(handler))
	}
}
