package web

import (
	"net/http"

	"github.com/vbonduro/setasidevault/internal/service"
)

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := s.svc.Collections.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, collections)
}

func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var in service.CollectionInput
	cover, err := s.readEntity(w, r, &in, "coverPhoto")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	c, err := s.svc.Collections.Create(r.Context(), in, cover)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.Collections.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleUpdateCollection(w http.ResponseWriter, r *http.Request) {
	var in service.CollectionInput
	cover, err := s.readEntity(w, r, &in, "coverPhoto")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	c, err := s.svc.Collections.Update(r.Context(), r.PathValue("id"), in, cover)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Collections.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCollectionItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.Collections.ListItems(r.Context(), r.PathValue("id"), r.URL.Query().Get("category"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, items)
}
