package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/abgdnv/catalogsearch/internal/catalog"
	"github.com/abgdnv/catalogsearch/internal/controller"
	serrors "github.com/abgdnv/catalogsearch/internal/errors"
	"github.com/abgdnv/catalogsearch/internal/search"
	"github.com/abgdnv/catalogsearch/internal/session"
	applog "github.com/abgdnv/catalogsearch/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func testRecords(n int) []catalog.Record {
	records := make([]catalog.Record, n)
	for i := range records {
		records[i] = catalog.Record{
			ID:       fmt.Sprintf("%d", i+1),
			Name:     fmt.Sprintf("Lamp %02d", i+1),
			Quantity: "1 pcs",
			Price:    float64(i + 1),
		}
	}
	return records
}

func newSearchRouter(t *testing.T) (*chi.Mux, *session.Manager) {
	t.Helper()
	source := catalog.SourceFunc(func(context.Context) ([]catalog.Record, error) {
		return testRecords(25), nil
	})
	manager := session.NewManager(func() *controller.Controller {
		return controller.New(source, controller.Options{Debounce: 5 * time.Millisecond}, testLogger)
	}, time.Minute, testLogger)
	t.Cleanup(manager.Close)

	mux := chi.NewRouter()
	NewSearchHandler(manager, testLogger).RegisterRoutes(mux)
	return mux, manager
}

func do(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func decodeView(t *testing.T, rr *httptest.ResponseRecorder) controller.View {
	t.Helper()
	var v controller.View
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}

// createReady creates a session and waits for its initial fetch.
func createReady(t *testing.T, mux http.Handler) string {
	t.Helper()
	rr := do(mux, http.MethodPost, "/api/v1/searches", "")
	require.Equal(t, http.StatusCreated, rr.Code)
	var created CreateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	require.NotEqual(t, uuid.Nil, created.ID)

	path := "/api/v1/searches/" + created.ID.String()
	require.Eventually(t, func() bool {
		return decodeView(t, do(mux, http.MethodGet, path, "")).Status == controller.StatusReady
	}, time.Second, 2*time.Millisecond)
	return path
}

func Test_SearchHandler_Create(t *testing.T) {
	// given
	mux, manager := newSearchRouter(t)

	// when
	rr := do(mux, http.MethodPost, "/api/v1/searches", "")

	// then
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var created CreateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, 1, created.View.CurrentPage)
	assert.Equal(t, search.FieldName, created.View.SortField)
	assert.Equal(t, 1, manager.Len())
}

func Test_SearchHandler_Flow(t *testing.T) {
	// given
	mux, _ := newSearchRouter(t)
	path := createReady(t, mux)

	// when
	rr := do(mux, http.MethodGet, path, "")

	// then
	require.Equal(t, http.StatusOK, rr.Code)
	v := decodeView(t, rr)
	assert.Len(t, v.VisibleRecords, 10)
	assert.Equal(t, 3, v.TotalPages)
	assert.Equal(t, 25, v.TotalItems)

	// when
	rr = do(mux, http.MethodPut, path+"/page", `{"page":3}`)

	// then
	require.Equal(t, http.StatusOK, rr.Code)
	v = decodeView(t, rr)
	assert.Equal(t, 3, v.CurrentPage)
	assert.Len(t, v.VisibleRecords, 5)
	assert.False(t, v.HasNext)

	// when
	do(mux, http.MethodPut, path+"/sort", `{"field":"price"}`)
	rr = do(mux, http.MethodPut, path+"/sort", `{"field":"price"}`)

	// then
	require.Equal(t, http.StatusOK, rr.Code)
	v = decodeView(t, rr)
	assert.Equal(t, search.FieldPrice, v.SortField)
	assert.Equal(t, search.Descending, v.SortDirection)
	assert.Equal(t, 3, v.CurrentPage)
	assert.Equal(t, "5", v.VisibleRecords[0].ID)

	// when
	rr = do(mux, http.MethodPut, path+"/query", `{"query":"LAMP 1"}`)

	// then
	require.Equal(t, http.StatusAccepted, rr.Code)
	v = decodeView(t, rr)
	assert.Equal(t, "LAMP 1", v.Query)
	assert.Equal(t, 1, v.CurrentPage)

	require.Eventually(t, func() bool {
		v = decodeView(t, do(mux, http.MethodGet, path, ""))
		return v.Status == controller.StatusReady && v.TotalItems == 10
	}, time.Second, 2*time.Millisecond)

	// when
	rr = do(mux, http.MethodDelete, path, "")

	// then
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, http.StatusNotFound, do(mux, http.MethodGet, path, "").Code)
}

func Test_SearchHandler_Errors(t *testing.T) {
	mux, _ := newSearchRouter(t)
	path := createReady(t, mux)
	unknown := uuid.New().String()

	tests := []struct {
		name         string
		method       string
		path         string
		body         string
		expectedCode int
		expectedBody string
	}{
		{
			name:         "Invalid ID",
			method:       http.MethodGet,
			path:         "/api/v1/searches/abc",
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"error":"Invalid ID: abc"}`,
		},
		{
			name:         "Unknown session",
			method:       http.MethodGet,
			path:         "/api/v1/searches/" + unknown,
			expectedCode: http.StatusNotFound,
			expectedBody: `{"error":"Search session with ID ` + unknown + ` not found"}`,
		},
		{
			name:         "Delete unknown session",
			method:       http.MethodDelete,
			path:         "/api/v1/searches/" + unknown,
			expectedCode: http.StatusNotFound,
			expectedBody: `{"error":"Search session with ID ` + unknown + ` not found"}`,
		},
		{
			name:         "Malformed body",
			method:       http.MethodPut,
			path:         path + "/page",
			body:         `{"page":`,
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"error":"Invalid request body"}`,
		},
		{
			name:         "Missing page",
			method:       http.MethodPut,
			path:         path + "/page",
			body:         `{}`,
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"validation_errors":{"Page":"failed on rule: required"}}`,
		},
		{
			name:         "Negative page",
			method:       http.MethodPut,
			path:         path + "/page",
			body:         `{"page":-2}`,
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"validation_errors":{"Page":"failed on rule: min"}}`,
		},
		{
			name:         "Unknown sort field",
			method:       http.MethodPut,
			path:         path + "/sort",
			body:         `{"field":"colour"}`,
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"validation_errors":{"Field":"failed on rule: oneof"}}`,
		},
		{
			name:         "Missing query",
			method:       http.MethodPut,
			path:         path + "/query",
			body:         `{}`,
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"validation_errors":{"Query":"failed on rule: required"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// when
			rr := do(mux, tt.method, tt.path, tt.body)

			// then
			assert.Equal(t, tt.expectedCode, rr.Code)
			assert.JSONEq(t, tt.expectedBody, rr.Body.String())
		})
	}
}

func Test_SearchHandler_EmptyQueryIsAccepted(t *testing.T) {
	// given
	mux, _ := newSearchRouter(t)
	path := createReady(t, mux)

	// when
	rr := do(mux, http.MethodPut, path+"/query", `{"query":""}`)

	// then
	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.Empty(t, decodeView(t, rr).Query)
}

// mockSessions fails every call with err.
type mockSessions struct {
	err error
}

func (m mockSessions) Create() (uuid.UUID, *controller.Controller, error) {
	return uuid.UUID{}, nil, m.err
}

func (m mockSessions) Get(uuid.UUID) (*controller.Controller, error) {
	return nil, m.err
}

func (m mockSessions) Delete(uuid.UUID) error {
	return m.err
}

func Test_SearchHandler_SessionErrors(t *testing.T) {
	id := uuid.New().String()
	tests := []struct {
		name         string
		err          error
		method       string
		path         string
		expectedCode int
		expectedBody string
	}{
		{
			name:         "Create after shutdown",
			err:          serrors.ErrSessionClosed,
			method:       http.MethodPost,
			path:         "/api/v1/searches",
			expectedCode: http.StatusServiceUnavailable,
			expectedBody: `{"error":"Service is shutting down"}`,
		},
		{
			name:         "Create failure",
			err:          errors.New("boom"),
			method:       http.MethodPost,
			path:         "/api/v1/searches",
			expectedCode: http.StatusInternalServerError,
			expectedBody: `{"error":"Failed to create search session"}`,
		},
		{
			name:         "Get failure",
			err:          errors.New("boom"),
			method:       http.MethodGet,
			path:         "/api/v1/searches/" + id,
			expectedCode: http.StatusInternalServerError,
			expectedBody: `{"error":"Failed to resolve search session"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// given
			mux := chi.NewRouter()
			NewSearchHandler(mockSessions{err: tt.err}, testLogger).RegisterRoutes(mux)

			// when
			rr := do(mux, tt.method, tt.path, "")

			// then
			assert.Equal(t, tt.expectedCode, rr.Code)
			assert.JSONEq(t, tt.expectedBody, rr.Body.String())
		})
	}
}

func Test_SearchHandler_LogsSessionID(t *testing.T) {
	// given
	var buf bytes.Buffer
	logger := slog.New(applog.NewContextHandler(slog.NewJSONHandler(&buf, nil)))
	mux := chi.NewRouter()
	NewSearchHandler(mockSessions{err: serrors.ErrSessionNotFound}, logger).RegisterRoutes(mux)
	id := uuid.New()

	// when
	rr := do(mux, http.MethodGet, "/api/v1/searches/"+id.String(), "")

	// then
	require.Equal(t, http.StatusNotFound, rr.Code)
	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "Search session not found", record["msg"])
	assert.Equal(t, id.String(), record["session_id"])
}

func Test_HealthCheck(t *testing.T) {
	// given
	mux, _ := newSearchRouter(t)

	// when
	rr := do(mux, http.MethodGet, "/healthz", "")

	// then
	assert.Equal(t, http.StatusOK, rr.Code)
}
