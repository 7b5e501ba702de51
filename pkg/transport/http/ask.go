package http

import (
	"log/slog"
	"net/http"

	"github.com/rhuss/askgate/pkg/api"
	"github.com/rhuss/askgate/pkg/transport"
)

// handleAsk serves GET /ask (query parameters) and POST /ask (JSON body).
func (a *Adapter) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req api.AskRequest
	if r.Method == http.MethodGet {
		q := r.URL.Query()
		req = api.AskRequest{
			Q:              q.Get("q"),
			Article:        q.Get("article"),
			HTML:           q.Get("html"),
			Image:          q.Get("image"),
			Prompt:         q.Get("prompt"),
			ConversationID: q.Get("conversation_id"),
			Provider:       q.Get("provider"),
			Model:          q.Get("model"),
		}
	} else if !a.decodeJSON(w, r, &req, false) {
		return
	}

	if a.b.Sessions != nil {
		req.ConversationID = a.b.Sessions.RequestID(r, req.ConversationID)
	} else {
		req.ConversationID = ""
	}

	resp, err := a.b.Answerer.Answer(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}

	a.issueSession(w, r, resp.ConversationID)
	transport.WriteJSON(w, http.StatusOK, resp)
}

// handleStoreArticle serves POST /article.
func (a *Adapter) handleStoreArticle(w http.ResponseWriter, r *http.Request) {
	var req api.ArticleRequest
	if !a.decodeJSON(w, r, &req, false) {
		return
	}
	if a.b.Sessions != nil {
		req.ConversationID = a.b.Sessions.RequestID(r, req.ConversationID)
	}

	resp, err := a.b.Articles.StoreArticle(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	a.issueSession(w, r, resp.ConversationID)
	transport.WriteJSON(w, http.StatusOK, resp)
}

// handleClearArticle serves DELETE /article. The session comes from the
// conversation_id query parameter or the cookie.
func (a *Adapter) handleClearArticle(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("conversation_id")
	if a.b.Sessions != nil {
		id = a.b.Sessions.RequestID(r, id)
	}
	if id == "" {
		transport.WriteAPIError(w, api.NewInvalidRequestError("conversation_id", "No conversation to clear"))
		return
	}
	if err := a.b.Articles.ClearArticle(r.Context(), id); err != nil {
		slog.Error("clearing article failed", "conversation_id", id, "error", err)
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// issueSession sets the cookie for a new or anonymous conversation. When
// the response carries no id (a logged-in session), the cookie the client
// sent is refreshed instead.
func (a *Adapter) issueSession(w http.ResponseWriter, r *http.Request, id string) {
	switch {
	case a.b.Sessions == nil:
	case id != "":
		a.b.Sessions.Issue(w, id)
	default:
		a.b.Sessions.Refresh(w, r)
	}
}
