package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qrseal/pkg/models"
	"qrseal/pkg/sealbox"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := OpenStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	box, err := sealbox.New("test-passphrase")
	require.NoError(t, err)

	srv := New(store, box, NewWriterLogger(io.Discard), "https://seals.test")
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func registerAndLogin(t *testing.T, ts *httptest.Server) string {
	t.Helper()

	resp := postJSON(t, ts.URL+"/register", credentialsRequest{Username: "alice", Password: "hunter2!"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/login", credentialsRequest{Username: "alice", Password: "hunter2!"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login map[string]string
	decodeJSON(t, resp, &login)
	require.NotEmpty(t, login["token"])
	return login["token"]
}

func createDocument(t *testing.T, ts *httptest.Server, token, scanLimit string) string {
	t.Helper()

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	if scanLimit != "" {
		require.NoError(t, mw.WriteField("scan_limit", scanLimit))
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/documents", &form)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created map[string]any
	decodeJSON(t, resp, &created)
	id, _ := created["document_id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/register", credentialsRequest{Username: "alice", Password: "pw"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/register", credentialsRequest{Username: "alice", Password: "pw2"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/register", credentialsRequest{Username: "alice", Password: "pw"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/login", credentialsRequest{Username: "alice", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/login", credentialsRequest{Username: "nobody", Password: "pw"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestCreateDocumentRequiresToken(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/documents", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDocumentLifecycle(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts)
	docID := createDocument(t, ts, token, "2")

	// The QR seal is public and must decode as PNG.
	resp, err := http.Get(ts.URL + "/qr/" + docID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	qrPNG, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.NotEmpty(t, qrPNG)

	// Scans one and two succeed, the third exceeds the limit.
	for i, wantStatus := range []int{http.StatusOK, http.StatusOK, http.StatusGone} {
		resp, err := http.Get(ts.URL + "/verify/" + docID)
		require.NoError(t, err)
		assert.Equal(t, wantStatus, resp.StatusCode, "scan %d", i+1)
		assert.NotEmpty(t, resp.Header.Get("X-Scan-Count"))
		resp.Body.Close()
	}

	// The stored seal round-trips through upload verification.
	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	part, err := mw.CreateFormFile("image", "scan.png")
	require.NoError(t, err)
	_, err = part.Write(qrPNG)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/verify-image/"+docID, &form)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report models.VerificationReport
	decodeJSON(t, resp, &report)
	assert.Equal(t, models.VerdictAuthentic, report.Verdict)
	assert.GreaterOrEqual(t, report.AuthenticityScore, 70.0)
}

func TestVerifyUnknownDocument(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/verify/no-such-id")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStampedRequiresPDFAttachment(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts)
	docID := createDocument(t, ts, token, "")

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/documents/"+docID+"/stamped", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestVerifyImageRejectsGarbage(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts)
	docID := createDocument(t, ts, token, "")

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	part, err := mw.CreateFormFile("image", "scan.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("not an image"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/verify-image/"+docID, &form)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
