package web

import (
	"net/http"

	"github.com/vbonduro/setasidevault/internal/service"
)

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.Items.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var in service.ItemInput
	image, err := s.readEntity(w, r, &in, "image")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	item, err := s.svc.Items.Create(r.Context(), in, image)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.svc.Items.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var in service.ItemInput
	image, err := s.readEntity(w, r, &in, "image")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	item, err := s.svc.Items.Update(r.Context(), r.PathValue("id"), in, image)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Items.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDescribeItem(w http.ResponseWriter, r *http.Request) {
	desc, err := s.svc.Items.Describe(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, desc)
}
