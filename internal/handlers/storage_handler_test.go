package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jo-2640/firstmyapp/internal/storage"
	jwtutil "github.com/jo-2640/firstmyapp/pkg/jwt"
	"github.com/jo-2640/firstmyapp/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStorageFixture(t *testing.T) *StorageHandler {
	t.Helper()
	signer, err := storage.NewSigner("testaccount", "c2hhcmVkLWtleS1mb3ItdGVzdHM=", "profile-images")
	require.NoError(t, err)
	return NewStorageHandler(signer, nil, nil)
}

func authedRequest(method, target, body string) *http.Request {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	claims := &jwtutil.Claims{UserID: "u1"}
	return r.WithContext(context.WithValue(r.Context(), middleware.UserContextKey, claims))
}

func TestBlobSasTokenHandlerIssuesUploadToken(t *testing.T) {
	h := newStorageFixture(t)

	w := httptest.NewRecorder()
	h.BlobSasTokenHandler(w, authedRequest(http.MethodPost, "/api/getBlobSasToken",
		`{"fileName":"users/u1/photo.png","contentType":"image/png"}`))

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.NotEmpty(t, resp["sasToken"])
	assert.Equal(t, "https://testaccount.blob.core.windows.net/profile-images/users/u1/photo.png", resp["blobUrl"])
}

func TestBlobSasTokenHandlerRejectsEmptyFileName(t *testing.T) {
	h := newStorageFixture(t)

	w := httptest.NewRecorder()
	h.BlobSasTokenHandler(w, authedRequest(http.MethodPost, "/api/getBlobSasToken",
		`{"contentType":"image/png"}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBlobSasTokenHandlerRequiresAuth(t *testing.T) {
	h := newStorageFixture(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/getBlobSasToken",
		strings.NewReader(`{"fileName":"users/u1/photo.png"}`))
	h.BlobSasTokenHandler(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProfileSasTokenHandlerIssuesBothTokens(t *testing.T) {
	h := newStorageFixture(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/signup/get-profile-sas-token",
		strings.NewReader(`{"uid":"u1","fileName":"photo.png"}`))
	h.ProfileSasTokenHandler(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.NotEmpty(t, resp["writeSasToken"])
	assert.NotEmpty(t, resp["readSasToken"])
	assert.Equal(t, "https://testaccount.blob.core.windows.net/profile-images/users/u1/photo.png", resp["blobUrl"])
}
