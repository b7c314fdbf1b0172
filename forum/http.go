package forum

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/threadbot/forumerr"
)

// maxReplyBody bounds a reply request: MaxReplyLength runes of up to 4
// bytes, plus JSON framing.
const maxReplyBody = MaxReplyLength*4 + 4096

// RegisterHTTP mounts the bot's routes on r.
func (s *Server) RegisterHTTP(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(noSniff)
		r.Get("/health", s.handleHealth)
		r.Get("/posts/{pid}/commands", s.handleCommands)
		r.Get("/posts/{pid}/since", s.handlePosts)
		r.Post("/threads/{tid}/replies", s.handleReply)
		r.Get("/session", s.handleSession)
	})
}

// Handler returns a standalone router with every route mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	s.RegisterHTTP(r)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	pid, err := intParam(r, "pid")
	if err != nil {
		s.writeError(w, err)
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 0 {
			s.writeError(w, forumerr.Validationf("forum.HTTP", "limit %q must be a non-negative integer", v))
			return
		}
	}
	s.call(w, r, s.commandsSince(), &sinceReq{PostID: pid, Limit: limit}, http.StatusOK)
}

func (s *Server) handlePosts(w http.ResponseWriter, r *http.Request) {
	pid, err := intParam(r, "pid")
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.call(w, r, s.postsSince(), &sinceReq{PostID: pid}, http.StatusOK)
}

func (s *Server) handleReply(w http.ResponseWriter, r *http.Request) {
	tid, err := intParam(r, "tid")
	if err != nil {
		s.writeError(w, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxReplyBody)
	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
				"error": fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
				"kind":  forumerr.Validation.String(),
			})
			return
		}
		s.writeError(w, forumerr.Validationf("forum.HTTP", "invalid request body: %v", err))
		return
	}
	s.call(w, r, s.replyThread(), &replyReq{ThreadID: tid, Content: body.Content}, http.StatusNoContent)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	s.call(w, r, s.loginStatus(), &loginReq{Login: r.URL.Query().Get("login") == "1"}, http.StatusOK)
}

func (s *Server) call(w http.ResponseWriter, r *http.Request, ep Endpoint, req any, status int) {
	resp, err := ep(withTransport(r.Context(), "http"), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	writeJSON(w, status, resp)
}

// noSniff keeps browsers from reinterpreting JSON answers.
func noSniff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		next.ServeHTTP(w, r)
	})
}

func intParam(r *http.Request, name string) (int, error) {
	v := chi.URLParam(r, name)
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, forumerr.Validationf("forum.HTTP", "%s %q must be a positive integer", name, v)
	}
	return n, nil
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	kind := forumerr.KindOf(err)
	var fe *forumerr.Error
	if !errors.As(err, &fe) {
		s.logger.Error("forum: unclassified error", "error", err)
	}
	writeJSON(w, kind.HTTPStatus(), map[string]string{
		"error": err.Error(),
		"kind":  kind.String(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
