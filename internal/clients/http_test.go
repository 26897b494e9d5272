package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stavlog/stavlog-backend/internal/remote"
)

type fakeWriter struct {
	insertErr error
	lastTable string
	lastRec   remote.Record
}

func (w *fakeWriter) Insert(_ context.Context, table string, rec remote.Record) (remote.Record, error) {
	if w.insertErr != nil {
		return nil, w.insertErr
	}
	out := remote.Record{"id": "cli-new"}
	for k, v := range rec {
		out[k] = v
	}
	w.lastTable, w.lastRec = table, out
	return out, nil
}

func (w *fakeWriter) Update(_ context.Context, table, id string, patch remote.Record) (remote.Record, error) {
	out := remote.Record{"id": id}
	for k, v := range patch {
		out[k] = v
	}
	w.lastTable, w.lastRec = table, out
	return out, nil
}

func (w *fakeWriter) Delete(_ context.Context, table, id string) error {
	w.lastTable = table
	return nil
}

type fakeStore struct {
	clients []Client
	batches [][]remote.ChangeEvent
}

func (s *fakeStore) ApplyBatch(_ context.Context, batch []remote.ChangeEvent) {
	s.batches = append(s.batches, batch)
}
func (s *fakeStore) Clients() []Client { return s.clients }
func (s *fakeStore) ClientByID(id string) (Client, bool) {
	for _, c := range s.clients {
		if c.ID == id {
			return c, true
		}
	}
	return Client{}, false
}
func (s *fakeStore) ActiveContractorID() string { return "con-1" }

func setupRouter(store *fakeStore, writer *fakeWriter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	Register(r.Group("/clients"), NewRepo(writer, store))
	return r
}

func TestListAndGet(t *testing.T) {
	store := &fakeStore{clients: []Client{{ID: "cli-1", Name: "Novák"}}}
	router := setupRouter(store, &fakeWriter{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/clients", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		OK      bool     `json:"ok"`
		Clients []Client `json:"clients"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	require.Len(t, resp.Clients, 1)

	t.Run("get unknown id is 404", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/clients/cli-404", nil))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestCreateClient(t *testing.T) {
	store := &fakeStore{}
	writer := &fakeWriter{}
	router := setupRouter(store, writer)

	body := strings.NewReader(`{"name":"  Kováč  ","email":"kovac@example.sk"}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/clients", body))

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, Table, writer.lastTable)
	assert.Equal(t, "Kováč", writer.lastRec.String("name"), "name is trimmed")
	assert.Equal(t, "con-1", writer.lastRec.String("contractor_id"), "contractor defaults to the active one")

	require.Len(t, store.batches, 1, "write applied to the snapshot optimistically")
	assert.Equal(t, remote.EventInsert, store.batches[0][0].Type)

	t.Run("blank name is rejected", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/clients", strings.NewReader(`{"name":"  "}`)))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestUpdateStripsID(t *testing.T) {
	store := &fakeStore{}
	writer := &fakeWriter{}
	router := setupRouter(store, writer)

	body := strings.NewReader(`{"id":"cli-spoofed","phone":"+421900111222"}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPatch, "/clients/cli-1", body))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "cli-1", writer.lastRec.ID(), "patch cannot change the row id")
	assert.Equal(t, "+421900111222", writer.lastRec.String("phone"))
}

func TestDeleteClient(t *testing.T) {
	store := &fakeStore{}
	router := setupRouter(store, &fakeWriter{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/clients/cli-1", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, store.batches, 1)
	assert.Equal(t, remote.EventDelete, store.batches[0][0].Type)
	assert.Equal(t, "cli-1", store.batches[0][0].ID())
}
