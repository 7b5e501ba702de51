package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rhuss/askgate/pkg/api"
	"github.com/rhuss/askgate/pkg/debug"
	"github.com/rhuss/askgate/pkg/prompt"
	"github.com/rhuss/askgate/pkg/provider"
	"github.com/rhuss/askgate/pkg/session"
	"github.com/rhuss/askgate/pkg/textclean"
	"github.com/rhuss/askgate/pkg/transport"
)

// Providers resolves the provider for a request.
type Providers interface {
	Get(name string) (provider.Provider, bool)
	Default() provider.Provider
}

// Engine orchestrates answering between the transport layer and the
// provider backends. It implements transport.Answerer and
// transport.ArticleKeeper.
type Engine struct {
	providers Providers
	sessions  session.Store
	toggle    *Toggle
	builder   *prompt.Builder
	cfg       Config
}

// Ensure Engine implements the transport interfaces at compile time.
var (
	_ transport.Answerer      = (*Engine)(nil)
	_ transport.ArticleKeeper = (*Engine)(nil)
)

// New creates a new Engine. The providers and toggle must not be nil. The
// session store can be nil, in which case articles must be sent with every
// question.
func New(providers Providers, sessions session.Store, toggle *Toggle, cfg Config) (*Engine, error) {
	if providers == nil {
		return nil, fmt.Errorf("engine: providers must not be nil")
	}
	if toggle == nil {
		return nil, fmt.Errorf("engine: toggle must not be nil")
	}
	return &Engine{
		providers: providers,
		sessions:  sessions,
		toggle:    toggle,
		builder: &prompt.Builder{
			System:        cfg.SystemPrompt,
			MaxInputRunes: cfg.MaxInputRunes,
		},
		cfg: cfg,
	}, nil
}

// Toggle returns the enabled switch.
func (e *Engine) Toggle() *Toggle {
	return e.toggle
}

// Answer runs the pipeline for one question.
func (e *Engine) Answer(ctx context.Context, req *api.AskRequest) (*api.AskResponse, error) {
	if !e.toggle.Enabled() {
		return nil, api.NewUnavailableError("Service is currently disabled")
	}

	article, stored, err := e.loadArticle(ctx, req)
	if err != nil {
		return nil, err
	}

	in := prompt.Input{
		Question:    req.Q,
		Article:     article,
		HTML:        req.HTML,
		Instruction: req.Prompt,
	}
	if req.Image != "" {
		img, err := decodeImage(req.Image)
		if err != nil {
			return nil, api.NewInvalidRequestError("image", "Image must be base64 encoded")
		}
		in.Images = []prompt.Image{{MIMEType: img.MIMEType, Data: img.Data}}
	}

	p, err := e.builder.Build(in)
	if err != nil {
		if errors.Is(err, prompt.ErrEmptyInput) {
			return nil, api.NewInvalidRequestError("q", "No query parameter provided")
		}
		return nil, api.NewInvalidRequestError("html", fmt.Sprintf("could not read input: %v", err))
	}

	prov, err := e.choose(req.Provider)
	if err != nil {
		return nil, err
	}

	conversationID := ""
	switch {
	case req.Article != "" && e.sessions != nil:
		id := req.ConversationID
		if id == "" {
			id = api.NewSessionID()
		}
		sess, err := e.saveArticle(ctx, id, req.Article)
		if err != nil {
			return nil, err
		}
		conversationID = publicID(sess)
	case stored != nil:
		conversationID = publicID(stored)
	}

	preq := &provider.Request{
		Model:     req.Model,
		System:    p.System,
		Prompt:    p.User,
		MaxTokens: e.cfg.MaxTokens,
	}
	for _, img := range p.Images {
		preq.Images = append(preq.Images, provider.Image{MIMEType: img.MIMEType, Data: img.Data})
	}

	debug.Log("engine", "generate", "provider", prov.Name(), "prompt_len", len(preq.Prompt), "images", len(preq.Images))
	debug.Trace("engine", "prompt", "text", preq.Prompt)

	resp, err := prov.Generate(ctx, preq)
	if err != nil {
		slog.Error("generation failed",
			"request_id", transport.RequestIDFromContext(ctx), "provider", prov.Name(), "error", err)
		return nil, provider.ToAPIError(err)
	}

	answer := textclean.Normalize(textclean.StripCodeFences(resp.Text))
	if answer == "" {
		return nil, api.NewModelError("Failed to generate a valid response")
	}

	slog.Info("answered",
		"request_id", transport.RequestIDFromContext(ctx),
		"question", debug.Truncate(textclean.Normalize(req.Q), logTruncate),
		"answer", debug.Truncate(answer, logTruncate),
		"provider", resp.Provider)

	return &api.AskResponse{
		Response:       answer,
		Provider:       resp.Provider,
		Model:          resp.Model,
		ConversationID: conversationID,
	}, nil
}

// loadArticle returns the article for this request. An article sent with
// the request wins; otherwise the stored one is used and its session is
// returned. Nothing is written here, so a request that fails validation
// leaves no session behind.
func (e *Engine) loadArticle(ctx context.Context, req *api.AskRequest) (string, *session.Session, error) {
	if req.Article != "" || e.sessions == nil || req.ConversationID == "" {
		return req.Article, nil, nil
	}
	sess, err := e.sessions.Get(ctx, req.ConversationID)
	if errors.Is(err, session.ErrNotFound) {
		return "", nil, nil
	}
	if err != nil {
		slog.Error("session lookup failed", "error", err)
		return "", nil, api.NewServerError("Internal server error")
	}
	return sess.Article, sess, nil
}

// saveArticle keeps any login state already attached to the session.
func (e *Engine) saveArticle(ctx context.Context, id, article string) (*session.Session, error) {
	sess, err := e.sessions.Get(ctx, id)
	if errors.Is(err, session.ErrNotFound) {
		sess = &session.Session{ID: id}
	} else if err != nil {
		slog.Error("session lookup failed", "error", err)
		return nil, api.NewServerError("Internal server error")
	}
	sess.Article = article
	if err := e.sessions.Save(ctx, sess); err != nil {
		slog.Error("session save failed", "error", err)
		return nil, api.NewServerError("Internal server error")
	}
	return sess, nil
}

// publicID is the id a response body may carry for sess. A logged-in
// session's id is the admin credential and only ever travels in the
// HttpOnly cookie.
func publicID(sess *session.Session) string {
	if sess.Admin {
		return ""
	}
	return sess.ID
}

func (e *Engine) choose(name string) (provider.Provider, error) {
	if name == "" {
		return e.providers.Default(), nil
	}
	p, ok := e.providers.Get(name)
	if !ok {
		return nil, api.NewInvalidRequestError("provider", fmt.Sprintf("provider %q is not configured", name))
	}
	return p, nil
}

// StoreArticle saves an article in the request's session.
func (e *Engine) StoreArticle(ctx context.Context, req *api.ArticleRequest) (*api.ArticleResponse, error) {
	if e.sessions == nil {
		return nil, api.NewInvalidRequestError("", "sessions are not enabled")
	}
	if req.Article == "" {
		return nil, api.NewInvalidRequestError("article", "article is required")
	}
	id := req.ConversationID
	if id == "" {
		id = api.NewSessionID()
	}
	sess, err := e.saveArticle(ctx, id, req.Article)
	if err != nil {
		return nil, err
	}
	debug.Log("engine", "article stored", "admin", sess.Admin, "runes", len([]rune(req.Article)))
	return &api.ArticleResponse{ConversationID: publicID(sess), Length: len([]rune(req.Article))}, nil
}

// ClearArticle drops the article but keeps the session (and any login).
func (e *Engine) ClearArticle(ctx context.Context, conversationID string) error {
	if e.sessions == nil || conversationID == "" {
		return nil
	}
	sess, err := e.sessions.Get(ctx, conversationID)
	if errors.Is(err, session.ErrNotFound) {
		return nil
	}
	if err != nil {
		return api.NewServerError("Internal server error")
	}
	sess.Article = ""
	if err := e.sessions.Save(ctx, sess); err != nil {
		return api.NewServerError("Internal server error")
	}
	return nil
}
