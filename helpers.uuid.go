package main

import (
	"strings"

	"github.com/gofrs/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var (
	_ UIDHandler    = (*IDsHandler)(nil)      // ensure IDsHandler implements UIDHandler.
	_ BookIDHandler = (*ObjectIDHandler)(nil) // ensure ObjectIDHandler implements BookIDHandler.
)

// UIDHandler is an interface for getting and checking prefixed uids.
type UIDHandler interface {
	Generate(prefix string) string
	IsValid(id, prefix string) bool
}

// IDsHandler implements the UIDHandler interface.
type IDsHandler struct{}

// NewIDsHandler returns a ready to use IDsHandler.
func NewIDsHandler() *IDsHandler {
	return &IDsHandler{}
}

// Generate provides a random unique identifier.
func (idh *IDsHandler) Generate(prefix string) string {
	id, _ := uuid.NewV4()
	return prefix + ":" + id.String()
}

// IsValid checks if a given string is a valid uuid after removal of custom prefix.
func (idh *IDsHandler) IsValid(id, prefix string) bool {
	return uuid.FromStringOrNil(strings.TrimPrefix(id, prefix+":")) != uuid.Nil
}

// BookIDHandler issues and parses books identifiers.
type BookIDHandler interface {
	Generate() bson.ObjectID
	Parse(id string) (bson.ObjectID, error)
}

// ObjectIDHandler assigns ObjectIDs on the service side before insertion.
type ObjectIDHandler struct{}

// NewObjectIDHandler returns a ready to use ObjectIDHandler.
func NewObjectIDHandler() *ObjectIDHandler {
	return &ObjectIDHandler{}
}

// Generate provides a fresh ObjectID.
func (oh *ObjectIDHandler) Generate() bson.ObjectID {
	return bson.NewObjectID()
}

// Parse converts a 24 hex characters string into an ObjectID.
// Any other input yields ErrInvalidBookID.
func (oh *ObjectIDHandler) Parse(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.NilObjectID, ErrInvalidBookID
	}
	return oid, nil
}
