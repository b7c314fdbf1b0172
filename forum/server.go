package forum

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/threadbot/forumerr"
	"github.com/hazyhaar/threadbot/post"
)

// Endpoint is one bot operation, shared by the HTTP and MCP transports.
type Endpoint func(ctx context.Context, req any) (any, error)

type transportKey struct{}

func withTransport(ctx context.Context, t string) context.Context {
	return context.WithValue(ctx, transportKey{}, t)
}

func transport(ctx context.Context) string {
	if v, ok := ctx.Value(transportKey{}).(string); ok {
		return v
	}
	return "direct"
}

// Server exposes a Bot over HTTP and MCP. The bot drives a single page, so
// every call holds mu for its whole duration.
type Server struct {
	mu     sync.Mutex
	bot    *Bot
	logger *slog.Logger
}

// NewServer wraps bot. A nil logger falls back to slog.Default().
func NewServer(bot *Bot, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{bot: bot, logger: logger}
}

type sinceReq struct {
	PostID int `json:"post_id"`
	Limit  int `json:"limit,omitempty"`
}

type replyReq struct {
	ThreadID int    `json:"thread_id"`
	Content  string `json:"content"`
}

type loginReq struct {
	Login bool `json:"login,omitempty"`
}

type loginStatus struct {
	LoggedIn bool   `json:"logged_in"`
	User     string `json:"user"`
}

func (s *Server) serialized(name string, fn Endpoint) Endpoint {
	return func(ctx context.Context, req any) (any, error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		start := time.Now()
		resp, err := fn(ctx, req)
		attrs := []any{"endpoint", name, "transport", transport(ctx), "duration", time.Since(start)}
		if err != nil {
			s.logger.Warn("forum: call failed", append(attrs, "kind", forumerr.KindOf(err), "error", err)...)
		} else {
			s.logger.Debug("forum: call", attrs...)
		}
		return resp, err
	}
}

func (s *Server) commandsSince() Endpoint {
	return s.serialized("commands_since", func(ctx context.Context, req any) (any, error) {
		r := req.(*sinceReq)
		if r.PostID <= 0 {
			return nil, forumerr.Validationf("forum.Server", "post_id must be positive")
		}
		cmds, err := s.bot.FetchCommandsSince(ctx, r.PostID, r.Limit)
		if err != nil {
			return nil, err
		}
		if cmds == nil {
			cmds = []ThreadCommand{}
		}
		return cmds, nil
	})
}

func (s *Server) postsSince() Endpoint {
	return s.serialized("posts_since", func(ctx context.Context, req any) (any, error) {
		r := req.(*sinceReq)
		if r.PostID <= 0 {
			return nil, forumerr.Validationf("forum.Server", "post_id must be positive")
		}
		posts, err := s.bot.FetchPostsSince(ctx, r.PostID)
		if err != nil {
			return nil, err
		}
		if posts == nil {
			posts = []*post.Post{}
		}
		return posts, nil
	})
}

func (s *Server) replyThread() Endpoint {
	return s.serialized("reply_thread", func(ctx context.Context, req any) (any, error) {
		r := req.(*replyReq)
		if err := s.bot.ReplyThread(ctx, r.ThreadID, r.Content); err != nil {
			return nil, err
		}
		return map[string]any{"thread_id": r.ThreadID, "posted": true}, nil
	})
}

func (s *Server) loginStatus() Endpoint {
	return s.serialized("login_status", func(ctx context.Context, req any) (any, error) {
		r := req.(*loginReq)
		if r.Login {
			if err := s.bot.Login(ctx); err != nil {
				return nil, err
			}
		}
		ok, err := s.bot.IsLoggedIn(ctx)
		if err != nil {
			return nil, err
		}
		return loginStatus{LoggedIn: ok, User: s.bot.cfg.Credentials.Username}, nil
	})
}
