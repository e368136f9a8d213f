package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/at-ishikawa/offlinedict/internal/assetcache"
	"github.com/at-ishikawa/offlinedict/internal/dictionary"
)

type errorResponse struct {
	Error string `json:"error"`
}

type bookmarksResponse struct {
	IDs     []string              `json:"ids"`
	Entries dictionary.Collection `json:"entries"`
}

type toggleResponse struct {
	ID         string   `json:"id"`
	Bookmarked bool     `json:"bookmarked"`
	IDs        []string `json:"ids"`
}

type statusResponse struct {
	Enabled      bool               `json:"enabled"`
	IsLoading    bool               `json:"is_loading"`
	Entries      int                `json:"entries"`
	LastError    string             `json:"last_error,omitempty"`
	LastSyncedAt *time.Time         `json:"last_synced_at,omitempty"`
	Online       *bool              `json:"online,omitempty"`
	Cache        *assetcache.Status `json:"cache,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	writeJSON(w, http.StatusOK, s.store.SearchInCategory(query.Get("q"), query.Get("category")))
}

func (s *Server) getEntry(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	entry, ok := s.store.Entry(id)
	if !ok {
		writeError(w, http.StatusNotFound, "entry not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) getDailyPick(w http.ResponseWriter, _ *http.Request) {
	entry, ok := s.store.DailyPick()
	if !ok {
		writeError(w, http.StatusNotFound, "no entries are loaded")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) listCategories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Categories())
}

func (s *Server) listBookmarks(w http.ResponseWriter, r *http.Request) {
	set := s.bookmarks.Current(r.Context())
	writeJSON(w, http.StatusOK, bookmarksResponse{
		IDs:     set.IDs(),
		Entries: s.store.Bookmarked(set),
	})
}

func (s *Server) toggleBookmark(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	set, added, err := s.bookmarks.Toggle(r.Context(), id)
	if err != nil {
		slog.Error("failed to toggle a bookmark", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save bookmarks")
		return
	}
	writeJSON(w, http.StatusOK, toggleResponse{
		ID:         id,
		Bookmarked: added,
		IDs:        set.IDs(),
	})
}

// sync reports the resulting status. A failed sync is not an HTTP error: the last good data is still served.
func (s *Server) sync(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.syncTimeout)
	defer cancel()

	if err := s.store.Sync(ctx); err != nil {
		slog.Warn("sync requested through the API failed", "error", err)
	}
	s.getStatus(w, r)
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	state := s.store.State()
	response := statusResponse{
		Enabled:   s.store.Enabled(),
		IsLoading: state.IsLoading,
		Entries:   len(state.LastGood),
	}
	if state.LastError != nil {
		response.LastError = state.LastError.Error()
	}
	if !state.LastSyncedAt.IsZero() {
		response.LastSyncedAt = &state.LastSyncedAt
	}
	if s.connectivity != nil {
		online := s.connectivity.Online()
		response.Online = &online
	}
	if s.worker != nil {
		status, err := s.worker.Status(r.Context())
		if err != nil {
			slog.Warn("failed to read cache status", "error", err)
		} else {
			response.Cache = &status
		}
	}
	writeJSON(w, http.StatusOK, response)
}
