package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// isPrecondition reports whether err aborted an operation without any
// backend call. The current view is returned unchanged in that case.
func isPrecondition(err error) bool {
	return errors.Is(err, ErrUnknownItem) ||
		errors.Is(err, ErrNoPendingDelete) ||
		errors.Is(err, ErrInvalidPageSize)
}

const (
	pageFetchedMessage    = "page fetched successfully."
	pageLoadFailedMessage = "page fetched, failed to load its data."
)

// pageOp runs one controller operation. A returned error other than a
// precondition or a backend failure is treated as bad input.
type pageOp func(r *http.Request, page PageController, ps httprouter.Params) (string, error)

// errBadInput marks malformed admin input.
type errBadInput struct {
	err error
}

func (e errBadInput) Error() string { return e.err.Error() }

func (e errBadInput) Unwrap() error { return e.err }

func badInput(err error) error {
	return errBadInput{err}
}

// workspace returns the workspace of the session attached to the request.
func (api *APIHandler) workspace(r *http.Request) (*Workspace, error) {
	sessionID := GetValueFromContext(r.Context(), ContextSessionID)
	if sessionID == "" {
		return nil, errors.New("missing session")
	}
	return api.registry.Get(r.Context(), sessionID)
}

// PageHandler wraps a controller operation of a resource page. Backend
// failures are reported through the view notification so the response
// is 200 unless the input itself was malformed.
func (api *APIHandler) PageHandler(resource string, mutates bool, op pageOp) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx := r.Context()
		requestID := GetValueFromContext(ctx, ContextRequestID)
		logger := api.GetLoggerFromContext(ctx).With(zap.String("resource", resource))

		ws, err := api.workspace(r)
		if err != nil {
			logger.Error("failed to get session workspace", zap.Error(err))
			errResp := NewAPIError(requestID, http.StatusInternalServerError, "failed to open the session workspace.", EmptyData)
			if err = WriteErrorResponse(ctx, w, errResp); err != nil {
				logger.Error("failed to send error response", zap.Error(err))
			}
			return
		}
		page, ok := ws.Page(resource)
		if !ok {
			errResp := NewAPIError(requestID, http.StatusNotFound, "unknown resource page.", EmptyData)
			if err = WriteErrorResponse(ctx, w, errResp); err != nil {
				logger.Error("failed to send error response", zap.Error(err))
			}
			return
		}

		// backend calls stop early enough for the response to beat the request timeout.
		opCtx := ctx
		if budget := api.config.Server.BackendBudget(); budget > 0 {
			var cancel context.CancelFunc
			opCtx, cancel = context.WithTimeout(ctx, budget)
			defer cancel()
		}

		var mountErr error
		if !page.Loaded() {
			// first display of the page in this session.
			mountErr = page.Load(opCtx)
		}

		message, err := op(r.WithContext(opCtx), page, ps)
		if err == nil && mountErr != nil && message == pageFetchedMessage {
			message = pageLoadFailedMessage
		}
		var bad errBadInput
		switch {
		case errors.As(err, &bad), errors.Is(err, ErrInvalidDraft), errors.Is(err, ErrInvalidPage):
			logger.Warn("invalid admin request", zap.Error(err))
			errResp := NewAPIError(requestID, http.StatusBadRequest, err.Error(), page.View())
			if err = WriteErrorResponse(ctx, w, errResp); err != nil {
				logger.Error("failed to send error response", zap.Error(err))
			}
			return
		case isPrecondition(err):
			logger.Warn("operation aborted", zap.Error(err))
			message = "operation ignored: " + err.Error()
		case err != nil:
			logger.Error("operation failed", zap.Error(err))
		}

		if mutates {
			if serr := api.registry.Save(ctx, ws); serr != nil {
				logger.Error("failed to save session state", zap.Error(serr))
			}
		}

		resp := GenericResponse(requestID, http.StatusOK, message, nil, page.View())
		if err = WriteResponse(ctx, w, resp); err != nil {
			logger.Error("failed to send response", zap.Error(err))
		}
	}
}

func parseIntQuery(values map[string][]string, key string) (int, bool, error) {
	raw, ok := values[key]
	if !ok || len(raw) == 0 || raw[0] == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(raw[0])
	if err != nil {
		return 0, true, badInput(errors.New("invalid " + key + " query parameter"))
	}
	return n, true, nil
}

// GetPage mounts the page if needed and applies the `size`, `search`
// and `page` query values in that order.
//
//	@Summary	Get the view of a resource page
//	@Tags		admin
//	@Produce	json
//	@Param		resource	path	string	true	"authors, books, publishers, categories or borrows"
//	@Param		search		query	string	false	"search term"
//	@Param		page		query	int		false	"zero-based page"
//	@Param		size		query	int		false	"page size"
//	@Success	200	{object}	APIResponse
//	@Failure	400	{object}	APIError
//	@Router		/admin/{resource} [get]
func (api *APIHandler) GetPage(resource string) httprouter.Handle {
	return api.PageHandler(resource, true, func(r *http.Request, page PageController, _ httprouter.Params) (string, error) {
		return pageFetchedMessage, requestQuery(r.URL.Query()).apply(page)
	})
}

// requestQuery holds the page state sent in the url.
type requestQuery map[string][]string

func (q requestQuery) apply(page PageController) error {
	size, hasSize, err := parseIntQuery(q, "size")
	if err != nil {
		return err
	}
	index, hasPage, err := parseIntQuery(q, "page")
	if err != nil {
		return err
	}
	if hasSize {
		if err = page.SetPageSize(size); err != nil {
			return err
		}
	}
	if terms, ok := q["search"]; ok {
		term := ""
		if len(terms) > 0 {
			term = terms[0]
		}
		page.SetSearch(term)
	}
	if hasPage {
		return page.SetPage(index)
	}
	return nil
}

// ReloadPage fetches the items and the reference lists again.
func (api *APIHandler) ReloadPage(resource string) httprouter.Handle {
	return api.PageHandler(resource, false, func(r *http.Request, page PageController, _ httprouter.Params) (string, error) {
		return "page reloaded.", page.Load(r.Context())
	})
}

// BeginEdit switches the form to edit the item `:id`.
func (api *APIHandler) BeginEdit(resource string) httprouter.Handle {
	return api.PageHandler(resource, true, func(_ *http.Request, page PageController, ps httprouter.Params) (string, error) {
		id, err := ParseEntityID(ps.ByName("id"))
		if err != nil {
			return "", badInput(err)
		}
		return "edit mode enabled.", page.BeginEdit(id)
	})
}

// UpdateDraft merges the JSON object of the request body into the draft.
func (api *APIHandler) UpdateDraft(resource string) httprouter.Handle {
	return api.PageHandler(resource, true, func(r *http.Request, page PageController, _ httprouter.Params) (string, error) {
		patch, err := ReadDraftPatch(r)
		if err != nil {
			return "", badInput(err)
		}
		return "draft updated.", page.UpdateDraft(patch)
	})
}

// SubmitDraft creates or updates the entity described by the draft.
func (api *APIHandler) SubmitDraft(resource string) httprouter.Handle {
	return api.PageHandler(resource, true, func(r *http.Request, page PageController, _ httprouter.Params) (string, error) {
		return "draft submitted.", page.Submit(r.Context())
	})
}

// ClearDraft resets the form.
func (api *APIHandler) ClearDraft(resource string) httprouter.Handle {
	return api.PageHandler(resource, true, func(_ *http.Request, page PageController, _ httprouter.Params) (string, error) {
		page.Clear()
		return "form cleared.", nil
	})
}

// RequestDelete opens the delete confirmation of the item `:id`.
func (api *APIHandler) RequestDelete(resource string) httprouter.Handle {
	return api.PageHandler(resource, true, func(_ *http.Request, page PageController, ps httprouter.Params) (string, error) {
		id, err := ParseEntityID(ps.ByName("id"))
		if err != nil {
			return "", badInput(err)
		}
		return "deletion awaiting confirmation.", page.RequestDelete(id)
	})
}

// ConfirmDelete deletes the item awaiting confirmation.
func (api *APIHandler) ConfirmDelete(resource string) httprouter.Handle {
	return api.PageHandler(resource, true, func(r *http.Request, page PageController, _ httprouter.Params) (string, error) {
		return "deletion confirmed.", page.ConfirmDelete(r.Context())
	})
}

// CancelDelete closes the delete confirmation.
func (api *APIHandler) CancelDelete(resource string) httprouter.Handle {
	return api.PageHandler(resource, true, func(_ *http.Request, page PageController, _ httprouter.Params) (string, error) {
		page.CancelDelete()
		return "deletion cancelled.", nil
	})
}

// DismissNotification hides the current notification of the page.
func (api *APIHandler) DismissNotification(resource string) httprouter.Handle {
	return api.PageHandler(resource, false, func(_ *http.Request, page PageController, _ httprouter.Params) (string, error) {
		page.DismissNotification()
		return "notification dismissed.", nil
	})
}
