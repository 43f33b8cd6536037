package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"housing-backend/internal/repository"
	"housing-backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-handlers-secret-key-long-enough"

// setupTestServer wires every service against temp storage
func setupTestServer(t *testing.T) (http.Handler, string) {
	t.Helper()
	dir := t.TempDir()

	userRepo := repository.NewUserRepository(filepath.Join(dir, "user_data.csv"))
	messageRepo := repository.NewSQLiteMessageRepository(filepath.Join(dir, "database", "chat.db"))
	require.NoError(t, messageRepo.EnsureSchema(context.Background()))
	photoRepo, err := repository.NewPhotoRepository(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	router := NewRouter(Services{
		Users:  services.NewUserService(userRepo, testJWTSecret, time.Hour),
		Chat:   services.NewChatService(messageRepo),
		Photos: services.NewPhotoService(photoRepo, nil, ""),
		Stats:  services.NewStatsService(userRepo, messageRepo),
	})
	return router, dir
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func uploadRequest(t *testing.T, distance string, names ...string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range names {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("image-" + name))
		require.NoError(t, err)
	}
	if distance != "" {
		require.NoError(t, mw.WriteField("distance", distance))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/photos", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestRegisterAndLoginFlow(t *testing.T) {
	router, _ := setupTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/users", map[string]string{
		"username": "ana", "password": "pw", "user_type": "Propietario",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "pw", "password must not be echoed")

	rec = doJSON(t, router, http.MethodPost, "/api/v1/users", map[string]string{
		"username": "ana", "password": "other", "user_type": "Estudiante",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/users", map[string]string{
		"username": "", "password": "p", "user_type": "Estudiante",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/sessions", map[string]string{
		"username": "ana", "password": "anything",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login services.LoginResponse
	decode(t, rec, &login)
	assert.Equal(t, "paid", login.Access)
	require.NotEmpty(t, login.Token)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/me", nil, "Authorization", "Bearer "+login.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"ana"`)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/sessions", map[string]string{
		"username": "ghost", "password": "pw",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetUser(t *testing.T) {
	router, _ := setupTestServer(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/users/ana", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	doJSON(t, router, http.MethodPost, "/api/v1/users", map[string]string{
		"username": "ana", "password": "pw", "user_type": "Estudiante",
	})
	rec = doJSON(t, router, http.MethodGet, "/api/v1/users/ana", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_type":"Estudiante"`)
}

func TestChatEndpoints(t *testing.T) {
	router, _ := setupTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/chats/group/messages", map[string]string{
		"user": "ana", "message": "hola grupo",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/api/v1/chats/shared/messages", map[string]string{
		"user": "ana", "message": "",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/chats/private/messages", map[string]string{
		"user": "ana", "message": "x",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/chats/group/messages", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Messages []struct {
			User    string `json:"user"`
			Message string `json:"message"`
		} `json:"messages"`
	}
	decode(t, rec, &body)
	require.Len(t, body.Messages, 1)
	assert.Equal(t, "hola grupo", body.Messages[0].Message)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/chats/shared/messages", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &body)
	assert.Empty(t, body.Messages)
}

func TestPhotoEndpoints(t *testing.T) {
	router, _ := setupTestServer(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "3.5", "a.jpg", "b.jpg"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "", "c.png"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "lejos", "d.jpg"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "", "e.gif"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/photos", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Photos []struct {
			Filename string `json:"filename"`
			Distance string `json:"distance"`
		} `json:"photos"`
		Total int `json:"total"`
	}
	decode(t, rec, &list)
	assert.Equal(t, 3, list.Total)
	distances := map[string]string{}
	for _, p := range list.Photos {
		distances[p.Filename] = p.Distance
	}
	assert.Equal(t, map[string]string{"a.jpg": "3.5", "b.jpg": "3.5", "c.png": "unspecified"}, distances)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/photos/filter?min=150&max=300", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var filtered struct {
		Photos []struct {
			Filename string `json:"filename"`
			Price    int    `json:"price"`
		} `json:"photos"`
	}
	decode(t, rec, &filtered)
	require.Len(t, filtered.Photos, 2)
	assert.Equal(t, 200, filtered.Photos[0].Price)
	assert.Equal(t, 300, filtered.Photos[1].Price)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/photos/filter?min=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/photos/prices", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/photos/a.jpg", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image-a.jpg", rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/api/v1/photos/missing.jpg", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPhotoNonFiniteDistance(t *testing.T) {
	router, dir := setupTestServer(t)

	for _, raw := range []string{"NaN", "+Inf", "-Inf"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, uploadRequest(t, raw, "n.jpg"))
		assert.Equal(t, http.StatusBadRequest, rec.Code, raw)
		assert.Contains(t, rec.Body.String(), "finite", raw)
	}

	// A sidecar edited by hand must not break the listings.
	uploads := filepath.Join(dir, "uploads")
	require.NoError(t, os.WriteFile(filepath.Join(uploads, "h.jpg"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(uploads, "h.jpg.txt"), []byte("NaN"), 0o644))

	for _, path := range []string{"/api/v1/photos", "/api/v1/photos/prices", "/api/v1/photos/filter"} {
		rec := doJSON(t, router, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)
		var body struct {
			Photos []struct {
				Filename string `json:"filename"`
				Distance string `json:"distance"`
			} `json:"photos"`
		}
		decode(t, rec, &body)
		require.Len(t, body.Photos, 1, path)
		assert.Equal(t, "h.jpg", body.Photos[0].Filename)
		assert.Equal(t, "unspecified", body.Photos[0].Distance)
	}
}

func TestFilterOutOfRangeBounds(t *testing.T) {
	router, _ := setupTestServer(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "", "a.jpg"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	cases := map[string]int{
		"/api/v1/photos/filter?min=-500&max=100":       1,
		"/api/v1/photos/filter?min=-500&max=-1":        0,
		"/api/v1/photos/filter?min=100000&max=9999999": 0,
		"/api/v1/photos/filter?min=0&max=1000":         1,
	}
	for path, want := range cases {
		rec := doJSON(t, router, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)
		var body struct {
			Photos []json.RawMessage `json:"photos"`
		}
		decode(t, rec, &body)
		assert.Len(t, body.Photos, want, path)
	}
}

func TestRespondJSONEncodeFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	respondJSON(rec, map[string]float64{"distance": math.NaN()}, http.StatusOK)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to encode response"}`, rec.Body.String())
}

func TestStatsEndpoint(t *testing.T) {
	router, _ := setupTestServer(t)

	doJSON(t, router, http.MethodPost, "/api/v1/users", map[string]string{
		"username": "ana", "password": "pw", "user_type": "Estudiante",
	})
	doJSON(t, router, http.MethodPost, "/api/v1/chats/shared/messages", map[string]string{
		"user": "ana", "message": "hola",
	})

	rec := doJSON(t, router, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var stats struct {
		Users    int `json:"users"`
		Messages int `json:"messages"`
	}
	decode(t, rec, &stats)
	assert.Equal(t, 1, stats.Users)
	assert.Equal(t, 1, stats.Messages)
}

func TestStorageFailureIsReportedNotFatal(t *testing.T) {
	router, dir := setupTestServer(t)

	// A directory where the CSV should be makes every user read fail.
	path := filepath.Join(dir, "user_data.csv")
	require.NoError(t, os.RemoveAll(path))
	require.NoError(t, os.Mkdir(path, 0o755))

	rec := doJSON(t, router, http.MethodPost, "/api/v1/users", map[string]string{
		"username": "ana", "password": "pw", "user_type": "Estudiante",
	})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to register user")
}
