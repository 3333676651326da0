package main

import (
	"github.com/julienschmidt/httprouter"
)

// SetupBookRoutes injects book related the api endpoints.
func (api *APIHandler) SetupBookRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.RedirectTrailingSlash = true
	router.GET("/", m.public(api.Index))
	router.GET("/status", m.public(api.Status))
	router.GET("/books", m.public(api.BooksIndex))
	router.POST("/books/create", m.public(api.CreateBook))
	router.GET("/books/getall", m.public(api.GetAllBooks))
	router.GET("/books/get/:id", m.public(api.GetOneBook))
	router.PUT("/books/update/:id", m.public(api.UpdateBook))
	router.DELETE("/books/delete/:id", m.public(api.DeleteOneBook))
	router.GET("/books/deleteall", m.public(api.DeleteAllBooks))
	return router
}
