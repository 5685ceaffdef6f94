// internal/domain/models/document.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document is metadata for an uploaded file attached to a case. The bytes
// live in file storage under FilePath; only metadata is kept in Mongo.
type Document struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CaseID       primitive.ObjectID `bson:"case_id" json:"case_id"`
	UploadedByID primitive.ObjectID `bson:"uploaded_by_id" json:"uploaded_by_id"`

	DocType     string `bson:"doc_type,omitempty" json:"doc_type,omitempty"` // e.g. "passport", "bank_statement"
	FileName    string `bson:"file_name" json:"file_name"`                   // original filename
	FilePath    string `bson:"file_path" json:"file_path"`                   // storage path (uuid-prefixed)
	FileSize    int64  `bson:"file_size" json:"file_size"`
	ContentType string `bson:"content_type,omitempty" json:"content_type,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// DocumentRequest records a staff request for the client to supply a
// document. Uploading a document of the requested type marks pending
// requests fulfilled.
type DocumentRequest struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CaseID        primitive.ObjectID `bson:"case_id" json:"case_id"`
	RequestedByID primitive.ObjectID `bson:"requested_by_id" json:"requested_by_id"`

	DocumentType string `bson:"document_type" json:"document_type"`
	Message      string `bson:"message,omitempty" json:"message,omitempty"`
	Status       string `bson:"status" json:"status"` // pending | fulfilled

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
