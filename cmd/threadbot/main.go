// Command threadbot reads !commands from forum threads and posts replies.
//
// Usage:
//
//	threadbot -config threadbot.yaml -since 12345            # commands after post 12345, as JSON
//	threadbot -config threadbot.yaml -since 12345 -posts     # the posts themselves
//	threadbot -config threadbot.yaml -reply 678 -content "hi" # reply to thread 678
//	threadbot -config threadbot.yaml -serve :8080            # HTTP API
//	threadbot -config threadbot.yaml -mcp                    # MCP over stdio
//
// Credentials may come from THREADBOT_USERNAME and THREADBOT_PASSWORD, read
// from the environment or a .env file in the working directory.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/threadbot/forum"
)

type options struct {
	configPath  string
	since       int
	limit       int
	posts       bool
	quote       bool
	reply       int
	content     string
	contentFile string
	serve       string
	mcp         bool
	headful     bool
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "path to threadbot.yaml")
	flag.IntVar(&o.since, "since", 0, "print commands posted after this post id")
	flag.IntVar(&o.limit, "limit", 0, "max commands per post (0: all)")
	flag.BoolVar(&o.posts, "posts", false, "with -since, print posts instead of commands")
	flag.BoolVar(&o.quote, "quote", false, "with -since, print each command as a BBCode quote")
	flag.IntVar(&o.reply, "reply", 0, "reply to this thread id")
	flag.StringVar(&o.content, "content", "", "reply body")
	flag.StringVar(&o.contentFile, "content-file", "", "read the reply body from a file (- for stdin)")
	flag.StringVar(&o.serve, "serve", "", "serve the HTTP API on this address")
	flag.BoolVar(&o.mcp, "mcp", false, "serve MCP tools over stdio")
	flag.BoolVar(&o.headful, "headful", false, "show the browser window")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	// A missing .env is normal.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("threadbot: .env", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, o); err != nil {
		logger.Error("threadbot: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, o options) error {
	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}

	// Read the reply body before a browser is started.
	var content string
	if o.reply != 0 {
		if content, err = replyContent(o); err != nil {
			return err
		}
	}

	bot, err := forum.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer bot.Close()

	switch {
	case o.mcp:
		return serveMCP(ctx, bot, logger)
	case o.serve != "":
		return serveHTTP(ctx, bot, logger, o.serve)
	case o.reply != 0:
		return bot.ReplyThread(ctx, o.reply, content)
	case o.since != 0:
		return printSince(ctx, bot, o)
	}
	return errors.New("nothing to do: pass -since, -reply, -serve or -mcp")
}

func loadConfig(o options) (forum.Config, error) {
	var cfg forum.Config
	if o.configPath != "" {
		c, err := forum.LoadConfigFile(o.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = *c
	}
	if v := os.Getenv("THREADBOT_BASE_URL"); v != "" {
		cfg.Site.BaseURL = v
	}
	if v := os.Getenv("THREADBOT_USERNAME"); v != "" {
		cfg.Credentials.Username = v
	}
	if v := os.Getenv("THREADBOT_PASSWORD"); v != "" {
		cfg.Credentials.Password = v
	}
	if v := os.Getenv("THREADBOT_BROWSER"); v != "" {
		cfg.Browser.Remote = v
	}
	if o.headful {
		headless := false
		cfg.Browser.Headless = &headless
	}
	return cfg, nil
}

func replyContent(o options) (string, error) {
	switch o.contentFile {
	case "":
		return o.content, nil
	case "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return strings.TrimRight(string(data), "\n"), nil
	default:
		data, err := os.ReadFile(o.contentFile)
		if err != nil {
			return "", fmt.Errorf("read content: %w", err)
		}
		return strings.TrimRight(string(data), "\n"), nil
	}
}

func printSince(ctx context.Context, bot *forum.Bot, o options) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if o.posts {
		posts, err := bot.FetchPostsSince(ctx, o.since)
		if err != nil {
			return err
		}
		return enc.Encode(posts)
	}

	cmds, err := bot.FetchCommandsSince(ctx, o.since, o.limit)
	if err != nil {
		return err
	}
	if o.quote {
		for _, c := range cmds {
			fmt.Print(forum.QuoteCommand(c))
		}
		return nil
	}
	if cmds == nil {
		cmds = []forum.ThreadCommand{}
	}
	return enc.Encode(cmds)
}

func serveHTTP(ctx context.Context, bot *forum.Bot, logger *slog.Logger, addr string) error {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	forum.NewServer(bot, logger).RegisterHTTP(r)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		// A thread walk can take a while.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("threadbot: http listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("threadbot: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func serveMCP(ctx context.Context, bot *forum.Bot, logger *slog.Logger) error {
	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "threadbot",
		Version: "1.0.0",
	}, nil)
	forum.NewServer(bot, logger).RegisterMCP(srv)

	logger.Info("threadbot: mcp on stdio")
	if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
