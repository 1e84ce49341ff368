package web_test

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Lllllllleong/leadflow/internal/mock"
	"github.com/Lllllllleong/leadflow/internal/models"
	"github.com/Lllllllleong/leadflow/internal/services"
	"github.com/Lllllllleong/leadflow/internal/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryBackend struct {
	uploads   []string
	documents []*models.Document
	leads     []models.Lead
	uploadErr error
}

func (b *memoryBackend) handler() http.Handler {
	objects := &mock.ObjectStore{
		UploadFn: func(ctx context.Context, objectName string, content []byte, contentType string) error {
			if b.uploadErr != nil {
				return b.uploadErr
			}
			b.uploads = append(b.uploads, objectName)
			return nil
		},
	}
	store := &mock.LeadStore{
		InsertDocumentFn: func(ctx context.Context, doc *models.Document) error {
			b.documents = append(b.documents, doc)
			return nil
		},
		InsertLeadsFn: func(ctx context.Context, leads []models.Lead) error {
			b.leads = append(b.leads, leads...)
			return nil
		},
		GetDocumentFn: func(ctx context.Context, id string) (*models.Document, error) {
			for _, doc := range b.documents {
				if doc.ID == id {
					return doc, nil
				}
			}
			return nil, models.ErrDocumentNotFound
		},
		ListLeadsFn: func(ctx context.Context, documentID string) ([]models.Lead, error) {
			var out []models.Lead
			for _, lead := range b.leads {
				if lead.DocumentID == documentID {
					out = append(out, lead)
				}
			}
			return out, nil
		},
	}
	return web.NewHandler(services.NewUploader(objects, store))
}

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHandler_Home(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	(&memoryBackend{}).handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Turn website leads into paid customers fast.")
	assert.Contains(t, rec.Body.String(), `accept=".csv"`)
	assert.NotContains(t, rec.Body.String(), `role="alert"`)
}

func TestHandler_Upload(t *testing.T) {
	t.Parallel()

	t.Run("redirects to the results view", func(t *testing.T) {
		t.Parallel()

		backend := &memoryBackend{}
		h := backend.handler()

		req := uploadRequest(t, "visitors.csv", "email\na@b.com\na@b.com\nx@y.io\n")
		req.Header.Set(web.UserIDHeader, "accounts.google.com:1234567890")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Len(t, backend.documents, 1)
		id := backend.documents[0].ID
		assert.Equal(t, "/view/"+id, rec.Header().Get("Location"))
		assert.Equal(t, []string{"public/" + id + ".csv"}, backend.uploads)
		require.NotNil(t, backend.documents[0].Owner)
		assert.Equal(t, "1234567890", *backend.documents[0].Owner)
		require.Len(t, backend.leads, 2)
		for _, lead := range backend.leads {
			assert.Equal(t, id, lead.DocumentID)
		}

		view := httptest.NewRecorder()
		h.ServeHTTP(view, httptest.NewRequest(http.MethodGet, "/view/"+id+"?blur=1", nil))
		assert.Equal(t, http.StatusOK, view.Code)
		assert.Contains(t, view.Body.String(), "2 leads found")
		assert.Contains(t, view.Body.String(), "x@y.io")
		assert.Contains(t, view.Body.String(), `class="blur"`)
	})

	t.Run("anonymous upload has no owner", func(t *testing.T) {
		t.Parallel()

		backend := &memoryBackend{}
		rec := httptest.NewRecorder()
		backend.handler().ServeHTTP(rec, uploadRequest(t, "visitors.csv", "a@b.com\n"))

		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Len(t, backend.documents, 1)
		assert.Nil(t, backend.documents[0].Owner)
	})

	t.Run("shows error when no emails found", func(t *testing.T) {
		t.Parallel()

		backend := &memoryBackend{}
		rec := httptest.NewRecorder()
		backend.handler().ServeHTTP(rec, uploadRequest(t, "visitors.csv", "name\nAnn\n"))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "No emails were found in the file.")
		assert.Empty(t, backend.uploads)
		assert.Empty(t, backend.documents)
	})

	t.Run("rejects non-csv filenames", func(t *testing.T) {
		t.Parallel()

		backend := &memoryBackend{}
		rec := httptest.NewRecorder()
		backend.handler().ServeHTTP(rec, uploadRequest(t, "visitors.txt", "a@b.com\n"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Only .csv files are accepted.")
		assert.Empty(t, backend.uploads)
	})

	t.Run("reports backend failures", func(t *testing.T) {
		t.Parallel()

		backend := &memoryBackend{uploadErr: errors.New("bucket unavailable")}
		rec := httptest.NewRecorder()
		backend.handler().ServeHTTP(rec, uploadRequest(t, "visitors.csv", "a@b.com\n"))

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, rec.Body.String(), "The upload could not be saved.")
		assert.Empty(t, backend.documents)
	})

	t.Run("requires a file field", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(""))
		rec := httptest.NewRecorder()
		(&memoryBackend{}).handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Choose a .csv file to upload.")
	})
}

func TestHandler_View(t *testing.T) {
	t.Parallel()

	t.Run("returns 404 for unknown documents", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		(&memoryBackend{}).handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/view/missing", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("shows leads unblurred by default", func(t *testing.T) {
		t.Parallel()

		backend := &memoryBackend{
			documents: []*models.Document{{ID: "doc-1", StoragePath: "public/doc-1.csv"}},
			leads:     []models.Lead{{Email: "a@b.com", DocumentID: "doc-1"}},
		}
		rec := httptest.NewRecorder()
		backend.handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/view/doc-1", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "1 leads found")
		assert.Contains(t, rec.Body.String(), "a@b.com")
		assert.NotContains(t, rec.Body.String(), `class="blur"`)
	})

	t.Run("blurs leads when requested", func(t *testing.T) {
		t.Parallel()

		backend := &memoryBackend{
			documents: []*models.Document{{ID: "doc-1", StoragePath: "public/doc-1.csv"}},
			leads:     []models.Lead{{Email: "a@b.com", DocumentID: "doc-1"}},
		}
		rec := httptest.NewRecorder()
		backend.handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/view/doc-1?blur=1", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "1 leads found")
		assert.Contains(t, rec.Body.String(), `class="blur"`)
	})
}
