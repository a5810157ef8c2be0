package httptransport

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"oidcop/internal/oidc/oautherr"
	"oidcop/internal/platform/logger"
)

// writeError delivers err by redirect when it carries a redirect target and
// as a JSON body otherwise. Anything that is not a protocol error becomes an
// opaque server_error.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.From(r.Context(), h.logger)
	oe, ok := oautherr.As(err)
	switch {
	case !ok:
		log.Error("unexpected error", logger.Err(err))
		oe = oautherr.ServerError("")
	case oe.Code == oautherr.CodeServerError:
		log.Error("server error", logger.OAuthError(oe.Code), zap.String("hint", oe.Hint), logger.Err(oe.Cause))
	default:
		log.Info("protocol error", logger.OAuthError(oe.Code), zap.String("hint", oe.Hint))
	}

	if oe.IsRedirectable() {
		if target, rerr := oe.RedirectURL(); rerr == nil {
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
	}

	status := oe.HTTPStatus
	if status == 0 {
		status = http.StatusBadRequest
	}
	switch oe.Code {
	case oautherr.CodeInvalidClient:
		if _, _, hasBasic := r.BasicAuth(); hasBasic {
			w.Header().Set("WWW-Authenticate", `Basic realm="oidcop"`)
		}
	case oautherr.CodeInvalidToken:
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	}
	writeJSON(w, status, oe.Payload())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
