package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nasermirzaei89/lms/authcontext"
)

// HandleLogin signs the session in as the posted subject. Identities are
// asserted by the caller; verifying them belongs in front of this handler.
func (h *Handler) HandleLogin() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := r.ParseForm()
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to parse form", "error", err)
			http.Error(w, "Bad Request", http.StatusBadRequest)

			return
		}

		subject := strings.TrimSpace(r.FormValue("subject"))
		if subject == "" || subject == authcontext.Anonymous {
			http.Error(w, "Subject is required", http.StatusBadRequest)

			return
		}

		// whatever the previous subject cached must not leak into this one
		if sessionID, ok := sessionIDFromContext(r.Context()); ok {
			h.workspaces.drop(sessionID)
		}

		err = h.setSessionValue(w, r, subjectKey, subject)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to set session subject", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)

			return
		}

		returnTo := r.FormValue("returnTo")
		if returnTo != "" {
			http.Redirect(w, r, sanitizeReturnToPath(returnTo), http.StatusSeeOther)

			return
		}

		writeJSON(w, r, http.StatusOK, map[string]string{"subject": subject})
	})
}

func (h *Handler) HandleLogout() http.Handler {
	hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sessionID, ok := sessionIDFromContext(r.Context()); ok {
			h.workspaces.drop(sessionID)
		}

		err := h.deleteSessionValue(w, r, subjectKey)
		if err != nil {
			var sessionValueNotFoundError SessionValueNotFoundError
			if !errors.As(err, &sessionValueNotFoundError) {
				slog.ErrorContext(
					r.Context(),
					"error on deleting session value",
					"key",
					subjectKey,
					"error",
					err,
				)
				http.Error(w, "error on deleting session value", http.StatusInternalServerError)

				return
			}
		}

		w.WriteHeader(http.StatusNoContent)
	})

	return h.AuthenticatedOnly(hf)
}

// sanitizeReturnToPath only lets local absolute paths through; anything that
// could leave the site falls back to the root.
func sanitizeReturnToPath(returnTo string) string {
	if !strings.HasPrefix(returnTo, "/") {
		return "/"
	}

	if strings.HasPrefix(returnTo, "//") || strings.HasPrefix(returnTo, "/\\") {
		return "/"
	}

	return returnTo
}
