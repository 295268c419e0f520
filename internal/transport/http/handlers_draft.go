package httptransport

import (
	"net/http"

	"relief/internal/draft"
	"relief/pkg/platform/httputil"
	"relief/pkg/requestcontext"
)

func (h *Handler) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code, err := fundCodeParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	d, err := h.svc.Drafts.Load(ctx, requestcontext.UserID(ctx), code)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if d == nil {
		d = draft.NewDraft()
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) handlePatchDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code, err := fundCodeParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	patch, ok := httputil.DecodeAndPrepare[draft.Patch](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	d, err := h.svc.Drafts.Merge(ctx, requestcontext.UserID(ctx), code, patch)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) handleResetDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code, err := fundCodeParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.svc.Drafts.Clear(ctx, requestcontext.UserID(ctx), code); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
