package documents_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glojourn/casehub/internal/app/features/documents"
	"github.com/glojourn/casehub/internal/domain/models"
	"github.com/glojourn/casehub/internal/testutil"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newHandler(t *testing.T, db *mongo.Database) *documents.Handler {
	t.Helper()
	local, err := storage.NewLocal(storage.LocalConfig{BasePath: t.TempDir(), BaseURL: "/uploads"})
	if err != nil {
		t.Fatalf("local storage: %v", err)
	}
	return documents.NewHandler(db, local, zap.NewNop())
}

func multipartUpload(t *testing.T, target, docType, filename string, content []byte) (*http.Request, error) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(content); err != nil {
		return nil, err
	}
	if err := mw.WriteField("doc_type", docType); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req := httptest.NewRequest("POST", target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req, nil
}

func TestHandleUpload(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	client := fixtures.CreateUser(ctx, "Uploader", "up@example.com", models.RoleClient)
	c := fixtures.CreateCase(ctx, client.ID)

	req, err := multipartUpload(t, "/api/cases/"+c.ID.Hex()+"/documents", "passport", "passport.pdf", []byte("%PDF-1.4 test"))
	if err != nil {
		t.Fatalf("build upload: %v", err)
	}
	req = testutil.WithUser(req, testutil.UserFor(client.ID, client.FullName, client.Email, client.Role))
	req = testutil.WithChiURLParam(req, "caseID", c.ID.Hex())

	rec := testutil.NewRecorder()
	h.HandleUpload(rec, req)

	rec.AssertStatus(t, http.StatusCreated)

	var stored models.Document
	if err := db.Collection("documents").FindOne(ctx, bson.M{"case_id": c.ID}).Decode(&stored); err != nil {
		t.Fatalf("load stored document: %v", err)
	}
	if stored.DocType != "passport" {
		t.Errorf("doc_type = %q", stored.DocType)
	}
	if stored.FileName != "passport.pdf" {
		t.Errorf("file_name = %q", stored.FileName)
	}
	if stored.FilePath == "" || stored.FilePath == "passport.pdf" {
		t.Errorf("file_path = %q, want a unique generated path", stored.FilePath)
	}
	if stored.UploadedByID != client.ID {
		t.Error("uploader not recorded")
	}
}

func TestHandleUpload_ForeignCaseForbidden(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	foreign := fixtures.CreateCase(ctx, primitive.NewObjectID())

	req, err := multipartUpload(t, "/api/cases/"+foreign.ID.Hex()+"/documents", "passport", "p.pdf", []byte("x"))
	if err != nil {
		t.Fatalf("build upload: %v", err)
	}
	req = testutil.WithUser(req, testutil.ClientUser())
	req = testutil.WithChiURLParam(req, "caseID", foreign.ID.Hex())

	rec := testutil.NewRecorder()
	h.HandleUpload(rec, req)

	rec.AssertStatus(t, http.StatusForbidden)
}

func TestHandleUpload_MissingDocType(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	client := fixtures.CreateUser(ctx, "Uploader", "u2@example.com", models.RoleClient)
	c := fixtures.CreateCase(ctx, client.ID)

	req, err := multipartUpload(t, "/api/cases/"+c.ID.Hex()+"/documents", "", "p.pdf", []byte("x"))
	if err != nil {
		t.Fatalf("build upload: %v", err)
	}
	req = testutil.WithUser(req, testutil.UserFor(client.ID, client.FullName, client.Email, client.Role))
	req = testutil.WithChiURLParam(req, "caseID", c.ID.Hex())

	rec := testutil.NewRecorder()
	h.HandleUpload(rec, req)

	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestHandleUpload_FulfillsPendingRequest(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	client := fixtures.CreateUser(ctx, "Uploader", "u3@example.com", models.RoleClient)
	c := fixtures.CreateCase(ctx, client.ID)

	if _, err := h.Documents.CreateRequest(ctx, models.DocumentRequest{
		CaseID:        c.ID,
		RequestedByID: primitive.NewObjectID(),
		DocumentType:  "passport",
	}); err != nil {
		t.Fatalf("create request: %v", err)
	}

	req, err := multipartUpload(t, "/api/cases/"+c.ID.Hex()+"/documents", "passport", "p.pdf", []byte("x"))
	if err != nil {
		t.Fatalf("build upload: %v", err)
	}
	req = testutil.WithUser(req, testutil.UserFor(client.ID, client.FullName, client.Email, client.Role))
	req = testutil.WithChiURLParam(req, "caseID", c.ID.Hex())

	rec := testutil.NewRecorder()
	h.HandleUpload(rec, req)
	rec.AssertStatus(t, http.StatusCreated)

	reqs, err := h.Documents.ListRequestsByCase(ctx, c.ID)
	if err != nil {
		t.Fatalf("list requests: %v", err)
	}
	if len(reqs) != 1 || reqs[0].Status != "fulfilled" {
		t.Errorf("request not fulfilled by upload: %+v", reqs)
	}
}

func TestHandleDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := fixtures.CreateCase(ctx, primitive.NewObjectID())
	doc, err := h.Documents.Create(ctx, models.Document{
		CaseID:       c.ID,
		UploadedByID: primitive.NewObjectID(),
		DocType:      "passport",
		FileName:     "p.pdf",
		FilePath:     "documents/2026/01/p.pdf",
	})
	if err != nil {
		t.Fatalf("seed document: %v", err)
	}

	req := testutil.NewAuthenticatedRequest("DELETE",
		"/api/cases/"+c.ID.Hex()+"/documents/"+doc.ID.Hex(), testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "caseID", c.ID.Hex())
	req = testutil.WithChiURLParam(req, "docID", doc.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleDelete(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	n, err := db.Collection("documents").CountDocuments(ctx, bson.M{"_id": doc.ID})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Error("document record still present after delete")
	}
}

func TestHandleDelete_WrongCase(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := fixtures.CreateCase(ctx, primitive.NewObjectID())
	other := fixtures.CreateCase(ctx, primitive.NewObjectID())
	doc, err := h.Documents.Create(ctx, models.Document{
		CaseID:       other.ID,
		UploadedByID: primitive.NewObjectID(),
		DocType:      "passport",
		FileName:     "p.pdf",
		FilePath:     "documents/2026/01/p.pdf",
	})
	if err != nil {
		t.Fatalf("seed document: %v", err)
	}

	req := testutil.NewAuthenticatedRequest("DELETE",
		"/api/cases/"+c.ID.Hex()+"/documents/"+doc.ID.Hex(), testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "caseID", c.ID.Hex())
	req = testutil.WithChiURLParam(req, "docID", doc.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleDelete(rec, req)

	rec.AssertStatus(t, http.StatusNotFound)
}

func TestHandleRequest_And_ServeRequests(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	coord := fixtures.CreateUser(ctx, "Coord", "co@example.com", models.RoleCoordinator)
	c := fixtures.CreateCase(ctx, primitive.NewObjectID())
	fixtures.AssignCoordinator(ctx, c.ID, coord.ID)

	user := testutil.UserFor(coord.ID, coord.FullName, coord.Email, coord.Role)
	req := testutil.NewAuthenticatedJSONRequest(t, "POST", "/api/cases/"+c.ID.Hex()+"/document-requests",
		map[string]string{"document_type": "bank_statement", "message": "<b>last three months</b>"}, user)
	req = testutil.WithChiURLParam(req, "caseID", c.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleRequest(rec, req)

	rec.AssertStatus(t, http.StatusCreated)

	var resp models.DocumentRequest
	rec.DecodeJSON(t, &resp)
	if resp.Message != "last three months" {
		t.Errorf("message = %q, want markup stripped", resp.Message)
	}

	listReq := testutil.NewAuthenticatedRequest("GET", "/api/cases/"+c.ID.Hex()+"/document-requests", user)
	listReq = testutil.WithChiURLParam(listReq, "caseID", c.ID.Hex())
	listRec := testutil.NewRecorder()
	h.ServeRequests(listRec, listReq)

	listRec.AssertStatus(t, http.StatusOK)
	listRec.AssertContains(t, "bank_statement")
}
