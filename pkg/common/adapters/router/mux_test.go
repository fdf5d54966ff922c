package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/bitechdev/BreadSpec/pkg/common"
)

func TestMuxAdapterRouteNameAndParams(t *testing.T) {
	r := mux.NewRouter()
	adapter := NewMuxAdapter(r)

	var gotName, gotID, gotQuery string
	adapter.HandleFunc("/posts/{id}", func(w common.ResponseWriter, req common.Request) {
		gotName = req.RouteName()
		gotID = req.PathParam("id")
		gotQuery = req.QueryParam("locale")
		_ = w.WriteJSON(map[string]string{"ok": "yes"})
	}).Methods(http.MethodGet).Name("voyager.posts.read")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/posts/42?locale=de", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "voyager.posts.read", gotName)
	assert.Equal(t, "42", gotID)
	assert.Equal(t, "de", gotQuery)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestMuxAdapterMethodMismatch(t *testing.T) {
	r := mux.NewRouter()
	NewMuxAdapter(r).HandleFunc("/posts", func(w common.ResponseWriter, req common.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodPost)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/posts", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMuxAdapterBodyIsReadOnce(t *testing.T) {
	r := mux.NewRouter()
	var first, second []byte
	NewMuxAdapter(r).HandleFunc("/posts", func(w common.ResponseWriter, req common.Request) {
		first, _ = req.Body()
		second, _ = req.Body()
		assert.Empty(t, req.PathParam("id"))
		assert.Empty(t, req.RouteName())
		w.WriteHeader(http.StatusAccepted)
	}).Methods(http.MethodPost)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader(`{"title":"x"}`)))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, `{"title":"x"}`, string(first))
	assert.Equal(t, first, second)
}
