package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/nasermirzaei89/lms/authcontext"
)

const (
	sessionIDKey = "sessionId"
	subjectKey   = "subject"
)

type SessionValueNotFoundError struct {
	Key string
}

func (err SessionValueNotFoundError) Error() string {
	return fmt.Sprintf("session value for key '%s' not found", err.Key)
}

type (
	contextKeySessionID struct{}
	contextKeySession   struct{}
)

func withSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, contextKeySessionID{}, sessionID)
}

func sessionIDFromContext(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(contextKeySessionID{}).(string)

	return sessionID, ok && sessionID != ""
}

// getSession returns the session loaded by sessionMiddleware, so a cookie
// that failed to decode is not reported again.
func (h *Handler) getSession(r *http.Request) (*sessions.Session, error) {
	session, ok := r.Context().Value(contextKeySession{}).(*sessions.Session)
	if ok {
		return session, nil
	}

	session, err := h.cookieStore.Get(r, h.sessionName)
	if err != nil {
		return nil, fmt.Errorf("error getting session: %w", err)
	}

	return session, nil
}

// sessionMiddleware makes sure every visitor has a session id, which selects
// their store, and puts the signed in subject, if any, into the context.
func (h *Handler) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := h.cookieStore.Get(r, h.sessionName)
		if err != nil {
			// an undecodable cookie still yields a fresh session
			slog.WarnContext(r.Context(), "discarding unreadable session", "error", err)
		}

		sessionID, _ := session.Values[sessionIDKey].(string)
		if sessionID == "" {
			sessionID = uuid.NewString()
			session.Values[sessionIDKey] = sessionID

			err = session.Save(r, w)
			if err != nil {
				slog.ErrorContext(r.Context(), "error on saving session", "error", err)
				http.Error(w, "error on saving session", http.StatusInternalServerError)

				return
			}
		}

		ctx := withSessionID(r.Context(), sessionID)
		ctx = context.WithValue(ctx, contextKeySession{}, session)

		subject, _ := session.Values[subjectKey].(string)
		if subject != "" {
			ctx = authcontext.WithSubject(ctx, subject)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func isAuthenticated(r *http.Request) bool {
	return !authcontext.IsAnonymous(r.Context())
}

func (h *Handler) AuthenticatedOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isAuthenticated(r) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (h *Handler) setSessionValue(
	w http.ResponseWriter,
	r *http.Request,
	key string,
	value any,
) error {
	session, err := h.getSession(r)
	if err != nil {
		return err
	}

	session.Values[key] = value

	err = session.Save(r, w)
	if err != nil {
		return fmt.Errorf("error saving session: %w", err)
	}

	return nil
}

func (h *Handler) deleteSessionValue(w http.ResponseWriter, r *http.Request, key string) error {
	session, err := h.getSession(r)
	if err != nil {
		return err
	}

	if _, ok := session.Values[key]; !ok {
		return SessionValueNotFoundError{Key: key}
	}

	delete(session.Values, key)

	err = session.Save(r, w)
	if err != nil {
		return fmt.Errorf("error saving session: %w", err)
	}

	return nil
}
