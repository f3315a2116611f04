package httpapi

import "net/http"

func (s *Server) listShippingMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := s.shipping.ListActive(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	views := make([]shippingMethodView, 0, len(methods))
	for _, m := range methods {
		views = append(views, toShippingMethodView(m))
	}
	respondJSON(w, http.StatusOK, views)
}
