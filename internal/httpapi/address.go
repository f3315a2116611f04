package httpapi

import (
	"net/http"

	"github.com/Bruce101github/crochethairbygg/internal/domain/customer"
)

func (s *Server) listAddresses(w http.ResponseWriter, r *http.Request) {
	customerID := *identityFrom(r.Context()).CustomerID

	addrs, err := s.customers.ListAddresses(r.Context(), customerID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	views := make([]addressView, 0, len(addrs))
	for _, a := range addrs {
		views = append(views, toAddressView(a))
	}
	respondJSON(w, http.StatusOK, views)
}

type createAddressRequest struct {
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
	AddressLine string `json:"address_line"`
	City        string `json:"city"`
	Region      string `json:"region"`
	Country     string `json:"country"`
	IsDefault   bool   `json:"is_default"`
}

func (s *Server) createAddress(w http.ResponseWriter, r *http.Request) {
	customerID := *identityFrom(r.Context()).CustomerID

	var req createAddressRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.FullName == "" || req.PhoneNumber == "" || req.AddressLine == "" ||
		req.City == "" || req.Region == "" {
		respondError(w, http.StatusBadRequest, "full_name, phone_number, address_line, city, and region are required")
		return
	}
	if req.Country == "" {
		req.Country = "Ghana"
	}

	a := &customer.Address{
		CustomerID:  customerID,
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		AddressLine: req.AddressLine,
		City:        req.City,
		Region:      req.Region,
		Country:     req.Country,
		IsDefault:   req.IsDefault,
	}
	if err := s.customers.CreateAddress(r.Context(), a); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toAddressView(*a))
}
