package web

import (
	"net/http"

	"github.com/vbonduro/setasidevault/internal/service"
	"github.com/vbonduro/setasidevault/internal/store"
)

func (s *Server) handleListStories(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	stories, err := s.svc.Stories.List(r.Context(), store.StoryFilter{
		CollectionID: q.Get("collectionId"),
		ItemID:       q.Get("itemId"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stories)
}

func (s *Server) handleCreateStory(w http.ResponseWriter, r *http.Request) {
	var in service.StoryInput
	cover, err := s.readEntity(w, r, &in, "coverImage")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	st, err := s.svc.Stories.Create(r.Context(), in, cover)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, st)
}

func (s *Server) handleGetStory(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Stories.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleUpdateStory(w http.ResponseWriter, r *http.Request) {
	var in service.StoryInput
	cover, err := s.readEntity(w, r, &in, "coverImage")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	st, err := s.svc.Stories.Update(r.Context(), r.PathValue("id"), in, cover)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleDeleteStory(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Stories.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
