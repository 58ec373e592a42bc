package model

import (
	"regexp"
	"time"
)

// Collections used by the storefront.
const (
	CollectionProducts   = "products"
	CollectionCategories = "categories"
)

// FieldID is the key under which a document's store-assigned id is exposed in flat form.
const FieldID = "id"

var collectionNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]{0,63}$`)

// ValidCollectionName reports whether name can be used as a collection name.
func ValidCollectionName(name string) bool {
	return collectionNamePattern.MatchString(name)
}

// Document is a schemaless record in a named collection.
// ID is assigned by the store on add and never appears inside Fields.
type Document struct {
	ID     string                 `json:"id" bson:"_id"`
	Fields map[string]interface{} `json:"fields" bson:"fields"`
}

// Flatten returns the document's fields with the id merged in under "id".
// The store-assigned id wins over any "id" field.
func (d *Document) Flatten() map[string]interface{} {
	out := make(map[string]interface{}, len(d.Fields)+1)
	for k, v := range d.Fields {
		out[k] = v
	}
	out[FieldID] = d.ID
	return out
}

// StripID returns a copy of fields without the reserved "id" key.
func StripID(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if k == FieldID {
			continue
		}
		out[k] = v
	}
	return out
}

// ChangeType is the kind of mutation a ChangeEvent reports.
type ChangeType string

const (
	ChangeCreated ChangeType = "created"
	ChangeDeleted ChangeType = "deleted"
	// ChangeResync is raised by a client feed after it reconnects; changes made
	// while it was away may be missing, so the subscriber should reload.
	ChangeResync ChangeType = "resync"
)

// ChangeEvent reports a single mutation in a collection.
type ChangeEvent struct {
	Type       ChangeType             `json:"type"`
	Collection string                 `json:"collection"`
	DocumentID string                 `json:"documentId"`
	Data       map[string]interface{} `json:"data,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	// ResumeToken is the change log position of this event; empty when no change log is configured.
	ResumeToken string `json:"resumeToken,omitempty"`
}
