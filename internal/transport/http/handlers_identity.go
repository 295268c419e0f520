package httptransport

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"relief/pkg/domain"
	dErrors "relief/pkg/domain-errors"
	"relief/pkg/platform/httputil"
	"relief/pkg/requestcontext"
)

func identityIDParam(r *http.Request) (domain.IdentityID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "identityID"))
	if raw == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "identity id is required")
	}
	return domain.IdentityID(raw), nil
}

func (h *Handler) handleListIdentities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identities, err := h.svc.Identities.List(ctx, requestcontext.UserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	resp := make([]identityResponse, 0, len(identities))
	for _, fi := range identities {
		resp = append(resp, toIdentityResponse(fi))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"identities": resp})
}

func (h *Handler) handleActivateIdentity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := identityIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	fi, err := h.svc.Identities.Switch(ctx, requestcontext.UserID(ctx), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toIdentityResponse(fi))
}

func (h *Handler) handleRemoveIdentity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := identityIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.svc.Identities.Remove(ctx, requestcontext.UserID(ctx), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
