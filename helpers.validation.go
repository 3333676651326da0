package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// maxBookPayloadBytes caps the size of book creation/update request bodies.
const maxBookPayloadBytes = 1 << 20

var validate = newBookValidator()

// newBookValidator reports violations with the json names of the fields.
func newBookValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateNewBook checks a creation or update payload and returns
// a *ValidationError describing the first violated rule.
func ValidateNewBook(nb *NewBook) error {
	err := validate.Struct(nb)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return &ValidationError{Field: fe.Field(), Message: fe.Field() + " is required"}
	case "gt":
		return &ValidationError{Field: fe.Field(), Message: fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())}
	default:
		return &ValidationError{Field: fe.Field(), Message: fe.Field() + " is not valid"}
	}
}

// DecodeNewBookRequestBody is a helper function to read the content of a book creation or update request.
func DecodeNewBookRequestBody(w http.ResponseWriter, r *http.Request, nb *NewBook) error {
	if r.Body == nil {
		return errors.New("invalid book request body")
	}
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBookPayloadBytes)).Decode(nb)
}
