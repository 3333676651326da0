package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

func newTestAPIHandler(bs BookServiceProvider) *APIHandler {
	return NewAPIHandler(zap.NewNop(), &Config{}, &Statistics{started: NewMockClocker().Now()}, NewMockClocker(), NewMockUIDHandler("abc", true), bs)
}

// readBody returns the status, content type and body of a recorded response.
func readBody(t *testing.T, w *httptest.ResponseRecorder) (int, string, []byte) {
	t.Helper()
	res := w.Result()
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, res.Header.Get("Content-Type"), data
}

func idParam(id string) httprouter.Params {
	return httprouter.Params{{Key: "id", Value: id}}
}

// TestStatusHandler ensures api handler can provides its status.
func TestStatusHandler(t *testing.T) {
	api := newTestAPIHandler(nil)
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	api.Status(w, req, httprouter.Params{})

	status, contentType, data := readBody(t, w)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json; charset=UTF-8", contentType)
	m := make(map[string]interface{})
	require.NoError(t, json.Unmarshal(data, &m))
	_, ok := m["requestid"]
	assert.True(t, ok)
	assert.Equal(t, "up & running since 0 mins", m["status"])
	assert.Equal(t, "Hello. Book catalog api is available. Enjoy :)", m["message"])
}

func TestIndexHandler(t *testing.T) {
	api := newTestAPIHandler(nil)
	w := httptest.NewRecorder()
	api.Index(w, httptest.NewRequest(http.MethodGet, "/", nil), httprouter.Params{})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/status", w.Header().Get("Location"))
}

func TestBooksIndexHandler(t *testing.T) {
	api := newTestAPIHandler(nil)
	w := httptest.NewRecorder()
	api.BooksIndex(w, httptest.NewRequest(http.MethodGet, "/books", nil), httprouter.Params{})
	status, contentType, data := readBody(t, w)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "text/plain; charset=UTF-8", contentType)
	assert.Equal(t, "please specify the operation", string(data))
}

// TestCreateBookHandler ensures api handler can create a book.
//
//nolint:funlen
func TestCreateBookHandler(t *testing.T) {
	api := newTestAPIHandler(newTestBookService(NewMemoryBookStorage(), nil))

	t.Run("should pass: valid payload", func(t *testing.T) {
		payload := `{"title":"Dune","author":"Herbert","published_year":1965}`
		w := httptest.NewRecorder()
		api.CreateBook(w, httptest.NewRequest(http.MethodPost, "/books/create", strings.NewReader(payload)), httprouter.Params{})

		status, contentType, data := readBody(t, w)
		assert.Equal(t, http.StatusCreated, status)
		assert.Equal(t, "application/json; charset=UTF-8", contentType)
		var book BookResponse
		require.NoError(t, json.Unmarshal(data, &book))
		assert.Len(t, book.ID, 24)
		assert.Equal(t, "Dune", book.Title)
		assert.Equal(t, "Herbert", book.Author)
		assert.Equal(t, 1965, book.PublishedYear)
	})

	t.Run("should fail: missing title", func(t *testing.T) {
		payload := `{"author":"Herbert","published_year":1965}`
		w := httptest.NewRecorder()
		api.CreateBook(w, httptest.NewRequest(http.MethodPost, "/books/create", strings.NewReader(payload)), httprouter.Params{})

		status, _, data := readBody(t, w)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.JSONEq(t, `{"requestid":"","status":400,"message":"failed to create the book","data":"title is required"}`, string(data))
	})

	t.Run("should fail: non positive year", func(t *testing.T) {
		payload := `{"title":"Dune","author":"Herbert","published_year":0}`
		w := httptest.NewRecorder()
		api.CreateBook(w, httptest.NewRequest(http.MethodPost, "/books/create", strings.NewReader(payload)), httprouter.Params{})

		status, _, data := readBody(t, w)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, string(data), "published_year must be greater than 0")
	})

	t.Run("should fail: malformed json", func(t *testing.T) {
		w := httptest.NewRecorder()
		api.CreateBook(w, httptest.NewRequest(http.MethodPost, "/books/create", strings.NewReader(`{"title":`)), httprouter.Params{})

		status, _, data := readBody(t, w)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, string(data), "invalid book json payload")
	})

	t.Run("should fail: store failure", func(t *testing.T) {
		failing := newTestAPIHandler(newTestBookService(failingBookStorage(errors.New("db down")), nil))
		payload := `{"title":"Dune","author":"Herbert","published_year":1965}`
		w := httptest.NewRecorder()
		failing.CreateBook(w, httptest.NewRequest(http.MethodPost, "/books/create", strings.NewReader(payload)), httprouter.Params{})

		status, _, data := readBody(t, w)
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.JSONEq(t, `{"requestid":"","status":500,"message":"failed to create the book","data":{}}`, string(data))
	})
}

func TestGetAllBooksHandler(t *testing.T) {
	ctx := context.Background()
	bs := newTestBookService(NewMemoryBookStorage(), nil)
	api := newTestAPIHandler(bs)

	t.Run("empty catalog", func(t *testing.T) {
		w := httptest.NewRecorder()
		api.GetAllBooks(w, httptest.NewRequest(http.MethodGet, "/books/getall", nil), httprouter.Params{})
		status, _, data := readBody(t, w)
		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `[]`, string(data))
	})

	t.Run("lists created books", func(t *testing.T) {
		created, err := bs.Create(ctx, NewBook{Title: "Dune", Author: "Herbert", PublishedYear: 1965})
		require.NoError(t, err)

		w := httptest.NewRecorder()
		api.GetAllBooks(w, httptest.NewRequest(http.MethodGet, "/books/getall", nil), httprouter.Params{})
		status, _, data := readBody(t, w)
		assert.Equal(t, http.StatusOK, status)
		var books []BookResponse
		require.NoError(t, json.Unmarshal(data, &books))
		assert.Equal(t, []BookResponse{created.Response()}, books)
	})

	t.Run("store failure", func(t *testing.T) {
		failing := newTestAPIHandler(newTestBookService(failingBookStorage(errors.New("db down")), nil))
		w := httptest.NewRecorder()
		failing.GetAllBooks(w, httptest.NewRequest(http.MethodGet, "/books/getall", nil), httprouter.Params{})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestGetOneBookHandler(t *testing.T) {
	bs := newTestBookService(NewMemoryBookStorage(), nil)
	api := newTestAPIHandler(bs)
	created, err := bs.Create(context.Background(), NewBook{Title: "Dune", Author: "Herbert", PublishedYear: 1965})
	require.NoError(t, err)

	t.Run("existing book", func(t *testing.T) {
		w := httptest.NewRecorder()
		api.GetOneBook(w, httptest.NewRequest(http.MethodGet, "/books/get/"+created.ID.Hex(), nil), idParam(created.ID.Hex()))
		status, _, data := readBody(t, w)
		assert.Equal(t, http.StatusOK, status)
		expected := `{"id":"` + created.ID.Hex() + `","title":"Dune","author":"Herbert","published_year":1965}`
		assert.JSONEq(t, expected, string(data))
	})

	t.Run("invalid id", func(t *testing.T) {
		w := httptest.NewRecorder()
		api.GetOneBook(w, httptest.NewRequest(http.MethodGet, "/books/get/xyz", nil), idParam("xyz"))
		status, _, data := readBody(t, w)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.JSONEq(t, `{"requestid":"","status":400,"message":"book id provided is not valid","data":{}}`, string(data))
	})

	t.Run("missing book", func(t *testing.T) {
		id := bson.NewObjectID().Hex()
		w := httptest.NewRecorder()
		api.GetOneBook(w, httptest.NewRequest(http.MethodGet, "/books/get/"+id, nil), idParam(id))
		status, _, data := readBody(t, w)
		assert.Equal(t, http.StatusNotFound, status)
		assert.JSONEq(t, `{"requestid":"","status":404,"message":"book does not exist","data":{}}`, string(data))
	})
}

func TestUpdateBookHandler(t *testing.T) {
	bs := newTestBookService(NewMemoryBookStorage(), nil)
	api := newTestAPIHandler(bs)
	created, err := bs.Create(context.Background(), NewBook{Title: "Dune", Author: "Herbert", PublishedYear: 1965})
	require.NoError(t, err)
	id := created.ID.Hex()
	payload := []byte(`{"title":"Dune Messiah","author":"Herbert","published_year":1969}`)

	t.Run("existing book", func(t *testing.T) {
		w := httptest.NewRecorder()
		api.UpdateBook(w, httptest.NewRequest(http.MethodPut, "/books/update/"+id, bytes.NewReader(payload)), idParam(id))
		status, _, data := readBody(t, w)
		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `{"message":"Book updated successfully"}`, string(data))

		book, err := bs.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, "Dune Messiah", book.Title)
	})

	t.Run("invalid payload", func(t *testing.T) {
		w := httptest.NewRecorder()
		body := strings.NewReader(`{"title":"Dune","published_year":1965}`)
		api.UpdateBook(w, httptest.NewRequest(http.MethodPut, "/books/update/"+id, body), idParam(id))
		status, _, data := readBody(t, w)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.JSONEq(t, `{"requestid":"","status":400,"message":"failed to update the book","data":"author is required"}`, string(data))
	})

	t.Run("missing book", func(t *testing.T) {
		missing := bson.NewObjectID().Hex()
		w := httptest.NewRecorder()
		api.UpdateBook(w, httptest.NewRequest(http.MethodPut, "/books/update/"+missing, bytes.NewReader(payload)), idParam(missing))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		w := httptest.NewRecorder()
		api.UpdateBook(w, httptest.NewRequest(http.MethodPut, "/books/update/xyz", bytes.NewReader(payload)), idParam("xyz"))
		status, _, data := readBody(t, w)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, string(data), "book id provided is not valid")
	})
}

// TestDeleteOneBook_MissingBook ensures deleting twice the same book reports it as missing.
func TestDeleteOneBook_MissingBook(t *testing.T) {
	bs := newTestBookService(NewMemoryBookStorage(), nil)
	api := newTestAPIHandler(bs)
	created, err := bs.Create(context.Background(), NewBook{Title: "Dune", Author: "Herbert", PublishedYear: 1965})
	require.NoError(t, err)
	id := created.ID.Hex()

	w := httptest.NewRecorder()
	api.DeleteOneBook(w, httptest.NewRequest(http.MethodDelete, "/books/delete/"+id, nil), idParam(id))
	status, _, data := readBody(t, w)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"message":"Book deleted successfully","deleted":1}`, string(data))

	w = httptest.NewRecorder()
	api.DeleteOneBook(w, httptest.NewRequest(http.MethodDelete, "/books/delete/"+id, nil), idParam(id))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	api.DeleteOneBook(w, httptest.NewRequest(http.MethodDelete, "/books/delete/xyz", nil), idParam("xyz"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteAllBooksHandler(t *testing.T) {
	bs := newTestBookService(NewMemoryBookStorage(), nil)
	api := newTestAPIHandler(bs)
	for _, title := range []string{"Dune", "Emma"} {
		_, err := bs.Create(context.Background(), NewBook{Title: title, Author: "Someone", PublishedYear: 1900})
		require.NoError(t, err)
	}

	w := httptest.NewRecorder()
	api.DeleteAllBooks(w, httptest.NewRequest(http.MethodGet, "/books/deleteall", nil), httprouter.Params{})
	status, contentType, data := readBody(t, w)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "text/plain; charset=UTF-8", contentType)
	assert.Equal(t, "Deleted 2 books", string(data))

	w = httptest.NewRecorder()
	api.DeleteAllBooks(w, httptest.NewRequest(http.MethodGet, "/books/deleteall", nil), httprouter.Params{})
	_, _, data = readBody(t, w)
	assert.Equal(t, "Deleted 0 books", string(data))
}

// TestHandlers_CancelledRequest ensures a request closed by the client is recorded with 499.
func TestHandlers_CancelledRequest(t *testing.T) {
	api := newTestAPIHandler(newTestBookService(NewMemoryBookStorage(), nil))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/books/getall", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	api.GetAllBooks(w, req, httprouter.Params{})
	assert.Equal(t, 499, w.Code)
}
