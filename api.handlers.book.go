package main

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// writeBookError maps a book service failure to its client facing response.
// Validation errors carry the violation message into the data field.
func (api *APIHandler) writeBookError(w http.ResponseWriter, r *http.Request, requestID, bookID, action string, err error) {
	var verr *ValidationError
	var errResp *APIError

	switch {
	case errors.As(err, &verr):
		errResp = NewAPIError(requestID, http.StatusBadRequest, "failed to "+action+" the book", verr.Message)
	case errors.Is(err, ErrInvalidBookID):
		errResp = NewAPIError(requestID, http.StatusBadRequest, "book id provided is not valid", EmptyData)
	case errors.Is(err, ErrBookNotFound):
		errResp = NewAPIError(requestID, http.StatusNotFound, "book does not exist", EmptyData)
	default:
		errResp = NewAPIError(requestID, http.StatusInternalServerError, "failed to "+action+" the book", EmptyData)
	}

	fields := []zap.Field{
		zap.String("request.id", requestID),
		zap.Int("response.status", errResp.Status),
		zap.Error(err),
	}
	if bookID != "" {
		fields = append(fields, zap.String("book.id", bookID))
	}
	if errResp.Status >= http.StatusInternalServerError {
		api.logger.Error("failed to "+action+" book", fields...)
	} else {
		api.logger.Info("failed to "+action+" book", fields...)
	}

	if err = WriteErrorResponse(r.Context(), w, errResp); err != nil {
		api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// BooksIndex reminds callers that an operation must be named in the path.
//
// @Summary Books index
// @Tags books
// @Produce plain
// @Failure 400 {string} string "please specify the operation"
// @Router /books [get]
func (api *APIHandler) BooksIndex(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	if err := WriteTextResponse(r.Context(), w, http.StatusBadRequest, "please specify the operation"); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// CreateBook stores a new book built from the request payload.
//
// @Summary Create a book
// @Tags books
// @Accept json
// @Produce json
// @Param book body NewBook true "Book to create"
// @Success 201 {object} Book
// @Failure 400 {object} APIError
// @Failure 500 {object} APIError
// @Router /books/create [post]
func (api *APIHandler) CreateBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var nb NewBook
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	if err := DecodeNewBookRequestBody(w, r, &nb); err != nil {
		api.writeBookError(w, r, requestID, "", "create", &ValidationError{Message: "invalid book json payload"})
		return
	}

	book, err := api.bookService.Create(r.Context(), nb)
	if err != nil {
		api.writeBookError(w, r, requestID, "", "create", err)
		return
	}

	api.logger.Info("success to create book", zap.String("book.id", book.ID.Hex()), zap.String("request.id", requestID))
	if err = WriteJSONResponse(r.Context(), w, http.StatusCreated, book); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// GetAllBooks lists every stored book.
//
// @Summary List books
// @Tags books
// @Produce json
// @Success 200 {array} BookResponse
// @Failure 500 {object} APIError
// @Router /books/getall [get]
func (api *APIHandler) GetAllBooks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	books, err := api.bookService.GetAll(r.Context())
	if err != nil {
		api.writeBookError(w, r, requestID, "", "get all", err)
		return
	}

	api.logger.Info("success to get all books", zap.String("request.id", requestID), zap.Int("books.total", len(books)))
	if err = WriteJSONResponse(r.Context(), w, http.StatusOK, books); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// GetOneBook fetches a single book by its id.
//
// @Summary Get a book
// @Tags books
// @Produce json
// @Param id path string true "Book id (24 hex characters)"
// @Success 200 {object} BookResponse
// @Failure 400 {object} APIError
// @Failure 404 {object} APIError
// @Failure 500 {object} APIError
// @Router /books/get/{id} [get]
func (api *APIHandler) GetOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	id := ps.ByName("id")
	book, err := api.bookService.GetByID(r.Context(), id)
	if err != nil {
		api.writeBookError(w, r, requestID, id, "get", err)
		return
	}

	api.logger.Info("success to get book", zap.String("book.id", id), zap.String("request.id", requestID))
	if err = WriteJSONResponse(r.Context(), w, http.StatusOK, book); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// UpdateBook replaces the fields of an existing book.
//
// @Summary Update a book
// @Tags books
// @Accept json
// @Produce json
// @Param id path string true "Book id (24 hex characters)"
// @Param book body NewBook true "New book fields"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} APIError
// @Failure 404 {object} APIError
// @Failure 500 {object} APIError
// @Router /books/update/{id} [put]
func (api *APIHandler) UpdateBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var nb NewBook
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	id := ps.ByName("id")
	if err := DecodeNewBookRequestBody(w, r, &nb); err != nil {
		api.writeBookError(w, r, requestID, id, "update", &ValidationError{Message: "invalid book json payload"})
		return
	}

	if err := api.bookService.Update(r.Context(), id, nb); err != nil {
		api.writeBookError(w, r, requestID, id, "update", err)
		return
	}

	api.logger.Info("success to update book", zap.String("book.id", id), zap.String("request.id", requestID))
	resp := MessageResponse{Message: "Book updated successfully"}
	if err := WriteJSONResponse(r.Context(), w, http.StatusOK, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// DeleteOneBook removes a single book.
//
// @Summary Delete a book
// @Tags books
// @Produce json
// @Param id path string true "Book id (24 hex characters)"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} APIError
// @Failure 404 {object} APIError
// @Failure 500 {object} APIError
// @Router /books/delete/{id} [delete]
func (api *APIHandler) DeleteOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	id := ps.ByName("id")
	deleted, err := api.bookService.Delete(r.Context(), id)
	if err != nil {
		api.writeBookError(w, r, requestID, id, "delete", err)
		return
	}

	api.logger.Info("success to delete book", zap.String("book.id", id), zap.String("request.id", requestID))
	resp := MessageResponse{Message: "Book deleted successfully", Deleted: &deleted}
	if err = WriteJSONResponse(r.Context(), w, http.StatusOK, resp); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// DeleteAllBooks removes every book without any confirmation.
//
// @Summary Delete all books
// @Tags books
// @Produce plain
// @Success 200 {string} string "Deleted N books"
// @Failure 500 {object} APIError
// @Router /books/deleteall [get]
func (api *APIHandler) DeleteAllBooks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	deleted, err := api.bookService.DeleteAll(r.Context())
	if err != nil {
		api.writeBookError(w, r, requestID, "", "delete all", err)
		return
	}

	api.logger.Warn("success to delete all books", zap.String("request.id", requestID), zap.Int64("books.deleted", deleted))
	if err = WriteTextResponse(r.Context(), w, http.StatusOK, "Deleted %d books", deleted); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}
