package main

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// BookDetailView is the read-only page of one book.
type BookDetailView struct {
	Book         *Book         `json:"book"`
	Notification *Notification `json:"notification"`
}

// GetBookDetails fetches a single book through the books client. A
// backend failure, a missing book included, is returned as the view
// notification.
func (api *APIHandler) GetBookDetails(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx := r.Context()
	requestID := GetValueFromContext(ctx, ContextRequestID)
	id, err := ParseEntityID(ps.ByName("id"))
	if err != nil {
		api.logger.Error("book id provided is not valid", zap.String("book.id", ps.ByName("id")), zap.String("request.id", requestID))
		errResp := NewAPIError(requestID, http.StatusBadRequest, "book id provided is not valid", EmptyData)
		if err = WriteErrorResponse(ctx, w, errResp); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	view := BookDetailView{}
	message := "book fetched successfully."
	book, err := api.clients.Books.GetByID(ctx, id)
	if err != nil {
		api.logger.Error("failed to fetch book", zap.String("request.id", requestID), zap.Int64("book.id", id), zap.Error(err))
		n := NormalizeError(err)
		n.Resource = BooksPath
		n.RaisedAt = api.clock.Now()
		n.ExpiresAt = n.RaisedAt.Add(api.config.Notification.Timeout)
		view.Notification = &n
		message = "failed to fetch the book."
		var cerr *ClientError
		if errors.As(err, &cerr) && cerr.IsNotFound() {
			message = "book not found."
		}
	} else {
		view.Book = &book
	}

	resp := GenericResponse(requestID, http.StatusOK, message, nil, view)
	if err = WriteResponse(ctx, w, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}
