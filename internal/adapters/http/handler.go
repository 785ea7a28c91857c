package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/PabloGalante/anota/internal/app/assist"
	appsync "github.com/PabloGalante/anota/internal/app/sync"
	"github.com/PabloGalante/anota/internal/app/view"
	"github.com/PabloGalante/anota/internal/domain"
)

// Server is the thin presentation stand-in over the sync engine. Handlers are
// identical whatever the engine's mode; no handler ever branches on session
// state.
type Server struct {
	engine *appsync.Engine
	assist *assist.Service
}

func NewServer(engine *appsync.Engine, assistSvc *assist.Service) http.Handler {
	s := &Server{engine: engine, assist: assistSvc}
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealthz)

	// /session          → GET: current state
	// /session/signin   → POST
	// /session/signout  → POST
	mux.HandleFunc("/session", s.handleSession)
	mux.HandleFunc("/session/", s.handleSessionIntent)

	// /groups                   → GET active, POST create
	// /groups/archived          → GET
	// /groups/{id}/messages     → GET, POST
	// /groups/{id}/archive      → POST
	// /groups/{id}/title        → POST
	// /groups/{id}/summary      → POST
	mux.HandleFunc("/groups", s.handleGroups)
	mux.HandleFunc("/groups/", s.handleGroupWithID)

	// /messages/{id} → POST: edit text, DELETE: remove
	mux.HandleFunc("/messages/", s.handleMessageWithID)

	mux.HandleFunc("/agenda", s.handleAgenda)

	// /assist/enhance → POST, /assist/title → POST
	mux.HandleFunc("/assist/", s.handleAssist)

	return chainMiddlewares(mux, withRequestID, withLogging, withCORS)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type sessionResponse struct {
	State string        `json:"state"`
	User  *userResponse `json:"user,omitempty"`
}

type userResponse struct {
	UID         string `json:"uid"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photo_url"`
}

type groupResponse struct {
	ID         string `json:"id"`
	IDKind     string `json:"id_kind"`
	Title      string `json:"title"`
	LastActive int64  `json:"last_active"`
	Snippet    string `json:"snippet"`
	IsArchived bool   `json:"is_archived"`
}

type messageResponse struct {
	ID        string `json:"id"`
	IDKind    string `json:"id_kind"`
	GroupID   string `json:"group_id"`
	Text      string `json:"text"`
	Sender    string `json:"sender"`
	Timestamp int64  `json:"timestamp"`
}

type createGroupRequest struct {
	Title       string `json:"title"`
	InitialNote string `json:"initial_note,omitempty"`
}

type createGroupResponse struct {
	ID     string `json:"id"`
	IDKind string `json:"id_kind"`
}

type textRequest struct {
	Text string `json:"text"`
}

type titleRequest struct {
	Title string `json:"title"`
}

type summaryRequest struct {
	Date string `json:"date"` // YYYY-MM-DD
}

type summaryResponse struct {
	Summary string `json:"summary"`
}

type agendaSectionResponse struct {
	Label  string          `json:"label"`
	Events []eventResponse `json:"events"`
}

type eventResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// ─────────────────────────────────────────────
// Session
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	resp := sessionResponse{State: string(s.engine.State())}
	if u := s.engine.CurrentUser(); u != nil {
		resp.User = &userResponse{
			UID:         string(u.UID),
			DisplayName: u.DisplayName,
			Email:       u.Email,
			PhotoURL:    u.PhotoURL,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSessionIntent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	switch strings.TrimPrefix(r.URL.Path, "/session/") {
	case "signin":
		if err := s.engine.SignIn(r.Context()); err != nil {
			// The session stays exactly as it was; nothing partial remains.
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "sign-in failed"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "signed_in"})
	case "signout":
		if err := s.engine.SignOut(r.Context()); err != nil {
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "sign-out failed"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
	default:
		http.NotFound(w, r)
	}
}

// ─────────────────────────────────────────────
// Groups
// ─────────────────────────────────────────────

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, toGroupsResponse(view.ActiveGroups(s.engine.Groups())))
	case http.MethodPost:
		s.handleCreateGroup(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	id, err := s.engine.CreateGroup(r.Context(), req.Title, req.InitialNote)
	if err != nil {
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createGroupResponse{
		ID:     id.Value,
		IDKind: string(id.Kind),
	})
}

// /groups/archived or /groups/{id}/...
func (s *Server) handleGroupWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/groups/")
	if path == "" {
		http.NotFound(w, r)
		return
	}

	if path == "archived" {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		writeJSON(w, http.StatusOK, toGroupsResponse(view.ArchivedGroups(s.engine.Groups())))
		return
	}

	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	id := s.docID(r, parts[0])

	switch parts[1] {
	case "messages":
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, toMessagesResponse(s.engine.MessagesForGroup(id)))
		case http.MethodPost:
			s.handleAddMessage(w, r, id)
		default:
			methodNotAllowed(w)
		}
	case "archive":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		if err := s.engine.ArchiveGroup(r.Context(), id); err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "archived"})
	case "title":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		var req titleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid JSON body")
			return
		}
		if err := s.engine.UpdateGroupTitle(r.Context(), id, req.Title); err != nil {
			internalError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "renamed"})
	case "summary":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		s.handleSummary(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleAddMessage(w http.ResponseWriter, r *http.Request, groupID domain.DocID) {
	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		badRequest(w, "text is required")
		return
	}

	if err := s.engine.AddMessage(r.Context(), groupID, req.Text); err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

// handleSummary digests one day's notes of a group into the two-section
// summary.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, groupID domain.DocID) {
	var req summaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	day, err := time.ParseInLocation("2006-01-02", req.Date, time.Local)
	if err != nil {
		badRequest(w, "date must be YYYY-MM-DD")
		return
	}

	from := day.UnixMilli()
	to := day.AddDate(0, 0, 1).UnixMilli()
	var notes []domain.Message
	for _, m := range s.engine.MessagesForGroup(groupID) {
		if m.Timestamp >= from && m.Timestamp < to {
			notes = append(notes, m)
		}
	}

	summary := s.assist.SummarizeDay(r.Context(), req.Date, notes)
	writeJSON(w, http.StatusOK, summaryResponse{Summary: summary})
}

// ─────────────────────────────────────────────
// Messages
// ─────────────────────────────────────────────

func (s *Server) handleMessageWithID(w http.ResponseWriter, r *http.Request) {
	value := strings.TrimPrefix(r.URL.Path, "/messages/")
	if value == "" || strings.Contains(value, "/") {
		http.NotFound(w, r)
		return
	}
	id := s.docID(r, value)

	switch r.Method {
	case http.MethodPost:
		var req textRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid JSON body")
			return
		}
		if err := s.engine.UpdateMessage(r.Context(), id, req.Text); err != nil {
			badRequest(w, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
	case http.MethodDelete:
		if err := s.engine.DeleteMessage(r.Context(), id); err != nil {
			badRequest(w, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

// ─────────────────────────────────────────────
// Agenda and AI assists
// ─────────────────────────────────────────────

func (s *Server) handleAgenda(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	sections := view.GroupEventsByDate(s.engine.Agenda())
	out := make([]agendaSectionResponse, 0, len(sections))
	for _, sec := range sections {
		events := make([]eventResponse, 0, len(sec.Events))
		for _, ev := range sec.Events {
			events = append(events, eventResponse{
				ID:        ev.ID,
				Title:     ev.Title,
				StartTime: ev.StartTime,
				EndTime:   ev.EndTime,
			})
		}
		out = append(out, agendaSectionResponse{Label: sec.Label, Events: events})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAssist(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	switch strings.TrimPrefix(r.URL.Path, "/assist/") {
	case "enhance":
		writeJSON(w, http.StatusOK, textRequest{Text: s.assist.EnhanceNote(r.Context(), req.Text)})
	case "title":
		writeJSON(w, http.StatusOK, titleRequest{Title: s.assist.SuggestTitle(r.Context(), req.Text)})
	default:
		http.NotFound(w, r)
	}
}

// ─────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────

// docID builds a tagged id from the path value and the optional ?kind= query.
// Without the query the kind follows the current mode, which is what a client
// holding a fresh listing has.
func (s *Server) docID(r *http.Request, value string) domain.DocID {
	switch r.URL.Query().Get("kind") {
	case string(domain.KindLocal):
		return domain.LocalID(value)
	case string(domain.KindRemote):
		return domain.RemoteID(value)
	}
	if s.engine.State() == appsync.StateAuthenticated {
		return domain.RemoteID(value)
	}
	return domain.LocalID(value)
}

func toGroupsResponse(groups []domain.Group) []groupResponse {
	out := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, groupResponse{
			ID:         g.ID.Value,
			IDKind:     string(g.ID.Kind),
			Title:      g.Title,
			LastActive: g.LastActive,
			Snippet:    g.Snippet,
			IsArchived: g.IsArchived,
		})
	}
	return out
}

func toMessagesResponse(msgs []domain.Message) []messageResponse {
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageResponse{
			ID:        m.ID.Value,
			IDKind:    string(m.ID.Kind),
			GroupID:   m.GroupID.Value,
			Text:      m.Text,
			Sender:    string(m.Sender),
			Timestamp: m.Timestamp,
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func internalError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}
