package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/nasermirzaei89/lms/authcontext"
	"github.com/nasermirzaei89/lms/interactions"
	"github.com/nasermirzaei89/lms/knowledge"
	"github.com/nasermirzaei89/lms/votes"
)

func formBool(r *http.Request, key string) bool {
	value, err := strconv.ParseBool(r.FormValue(key))
	if err != nil {
		return false
	}

	return value
}

// writeLocalError answers a mutation the coordinator refused before
// dispatching it.
func writeLocalError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr interactions.ValidationError
		inFlightErr   interactions.MutationInFlightError
		notFoundErr   interactions.EntityNotFoundError
	)

	switch {
	case errors.As(err, &validationErr) && validationErr.Field == "subject":
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	case errors.As(err, &validationErr):
		http.Error(w, validationErr.Error(), http.StatusBadRequest)
	case errors.As(err, &inFlightErr):
		http.Error(w, inFlightErr.Error(), http.StatusConflict)
	case errors.As(err, &notFoundErr):
		http.Error(w, notFoundErr.Error(), http.StatusNotFound)
	default:
		slog.ErrorContext(r.Context(), "failed to apply mutation", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func mutationErrorStatus(err error) int {
	var (
		rejectedErr *interactions.RejectedError
		networkErr  *interactions.NetworkError
	)

	switch {
	case errors.As(err, &rejectedErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &networkErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondMutation answers with 202 right after the optimistic change, or,
// when the request asks to wait, with the settled outcome.
func respondMutation(
	w http.ResponseWriter,
	r *http.Request,
	m *interactions.Mutation,
	fill func(resp *mutationResponse),
) {
	status := http.StatusAccepted

	if formBool(r, "wait") {
		err := m.Wait(r.Context())

		switch {
		case err == nil:
			status = http.StatusOK
		case r.Context().Err() != nil:
			return
		default:
			status = mutationErrorStatus(err)
		}
	}

	resp := mutationResponse{
		Mutation: newMutationView(m),
		Article:  nil,
		Reply:    nil,
		Thread:   nil,
	}

	fill(&resp)

	writeJSON(w, r, status, resp)
}

func (h *Handler) workspaceOrError(w http.ResponseWriter, r *http.Request) (*workspace, bool) {
	space, err := h.workspace(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to get session workspace", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)

		return nil, false
	}

	return space, true
}

func (h *Handler) HandleCreateArticle() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := r.ParseForm()
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to parse form", "error", err)
			http.Error(w, "Bad Request", http.StatusBadRequest)

			return
		}

		title := strings.TrimSpace(r.FormValue("title"))
		if title == "" {
			http.Error(w, "Title is required", http.StatusBadRequest)

			return
		}

		space, ok := h.workspaceOrError(w, r)
		if !ok {
			return
		}

		article, err := h.backend.CreateArticle(r.Context(), title)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to create article", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)

			return
		}

		space.store.PutArticle(*article)

		writeJSON(w, r, http.StatusCreated, newArticleView(*article, space.coordinator))
	})
}

func (h *Handler) loadArticle(w http.ResponseWriter, r *http.Request, space *workspace, articleID string) bool {
	err := h.hydrateArticle(r.Context(), space, articleID)
	if err != nil {
		var articleNotFoundErr knowledge.ArticleNotFoundError
		if errors.As(err, &articleNotFoundErr) {
			http.Error(w, "Article not found", http.StatusNotFound)

			return false
		}

		slog.ErrorContext(r.Context(), "failed to load article", "articleId", articleID, "error", err)
		http.Error(w, "Failed to load article", http.StatusInternalServerError)

		return false
	}

	return true
}

func (h *Handler) HandleViewArticle() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		articleID := r.PathValue("articleId")

		space, ok := h.workspaceOrError(w, r)
		if !ok {
			return
		}

		if !h.loadArticle(w, r, space, articleID) {
			return
		}

		article, ok := space.store.Article(articleID)
		if !ok {
			http.Error(w, "Article not found", http.StatusNotFound)

			return
		}

		writeJSON(w, r, http.StatusOK, newArticleView(article, space.coordinator))
	})
}

func (h *Handler) HandleReact(kind interactions.Kind) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		articleID := r.PathValue("articleId")

		space, ok := h.workspaceOrError(w, r)
		if !ok {
			return
		}

		if !h.loadArticle(w, r, space, articleID) {
			return
		}

		react := space.coordinator.LikeKnowledge
		if kind == interactions.KindDislike {
			react = space.coordinator.DislikeKnowledge
		}

		m, err := react(r.Context(), articleID)
		if err != nil {
			writeLocalError(w, r, err)

			return
		}

		respondMutation(w, r, m, func(resp *mutationResponse) {
			article, ok := space.store.Article(articleID)
			if ok {
				view := newArticleView(article, space.coordinator)
				resp.Article = &view
			}
		})
	})
}

func (h *Handler) loadDiscussion(w http.ResponseWriter, r *http.Request, space *workspace, discussionID string) bool {
	err := h.hydrateDiscussion(r.Context(), space, discussionID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to load discussion", "discussionId", discussionID, "error", err)
		http.Error(w, "Failed to load discussion", http.StatusInternalServerError)

		return false
	}

	return true
}

func (h *Handler) threadView(r *http.Request, space *workspace, discussionID string) (threadView, bool) {
	thread, ok := space.store.Thread(discussionID, formBool(r, "expanded"), h.previewLimit)
	if !ok {
		return threadView{}, false
	}

	return newThreadView(thread, authcontext.GetSubject(r.Context()), space.coordinator), true
}

func (h *Handler) HandleViewThread() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		discussionID := r.PathValue("discussionId")

		space, ok := h.workspaceOrError(w, r)
		if !ok {
			return
		}

		if !h.loadDiscussion(w, r, space, discussionID) {
			return
		}

		view, ok := h.threadView(r, space, discussionID)
		if !ok {
			http.Error(w, "Discussion not found", http.StatusNotFound)

			return
		}

		writeJSON(w, r, http.StatusOK, view)
	})
}

func (h *Handler) HandleSubmitReply() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := r.ParseForm()
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to parse form", "error", err)
			http.Error(w, "Bad Request", http.StatusBadRequest)

			return
		}

		discussionID := r.PathValue("discussionId")

		space, ok := h.workspaceOrError(w, r)
		if !ok {
			return
		}

		if !h.loadDiscussion(w, r, space, discussionID) {
			return
		}

		m, err := space.coordinator.SubmitReply(r.Context(), interactions.SubmitReplyRequest{
			DiscussionID: discussionID,
			Content:      r.FormValue("content"),
			ReplyTo:      r.FormValue("replyTo"),
			AuthorLabel:  r.FormValue("authorLabel"),
		})
		if err != nil {
			writeLocalError(w, r, err)

			return
		}

		respondMutation(w, r, m, func(resp *mutationResponse) {
			view, ok := h.threadView(r, space, discussionID)
			if ok {
				resp.Thread = &view
			}
		})
	})
}

func (h *Handler) HandleVoteReply() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := r.ParseForm()
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to parse form", "error", err)
			http.Error(w, "Bad Request", http.StatusBadRequest)

			return
		}

		replyID := r.PathValue("replyId")

		direction, err := votes.ParseDirection(r.FormValue("direction"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)

			return
		}

		space, ok := h.workspaceOrError(w, r)
		if !ok {
			return
		}

		m, err := space.coordinator.VoteReply(r.Context(), replyID, direction)
		if err != nil {
			writeLocalError(w, r, err)

			return
		}

		respondMutation(w, r, m, func(resp *mutationResponse) {
			reply, ok := space.store.Reply(replyID)
			if ok {
				view := newReplyView(reply, authcontext.GetSubject(r.Context()), space.coordinator)
				resp.Reply = &view
			}
		})
	})
}
