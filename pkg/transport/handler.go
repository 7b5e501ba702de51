package transport

import (
	"context"

	"github.com/rhuss/askgate/pkg/api"
)

// Answerer handles the core ask operation: turn a question into a cleaned
// answer.
type Answerer interface {
	Answer(ctx context.Context, req *api.AskRequest) (*api.AskResponse, error)
}

// AnswerFunc is an adapter that allows using an ordinary function as an
// Answerer.
type AnswerFunc func(ctx context.Context, req *api.AskRequest) (*api.AskResponse, error)

// Answer calls f(ctx, req).
func (f AnswerFunc) Answer(ctx context.Context, req *api.AskRequest) (*api.AskResponse, error) {
	return f(ctx, req)
}

// ArticleKeeper stores the article a client is reading so later questions
// can refer to it without resending it.
type ArticleKeeper interface {
	// StoreArticle saves the article in the request's session, creating
	// the session when the request names none.
	StoreArticle(ctx context.Context, req *api.ArticleRequest) (*api.ArticleResponse, error)

	// ClearArticle removes the article from a session.
	ClearArticle(ctx context.Context, conversationID string) error
}

// Switch is the process-wide enabled flag for the ask family of routes.
type Switch interface {
	Enabled() bool
	SetEnabled(enabled bool)
	Flip() bool
}
