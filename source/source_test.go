package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "Nome,Tipo de Denúncia,Bairro\n" +
	"Ana,Buraco,Centro\n" +
	"\n" +
	"Bia,\"Lixo, entulho\",Aldeota,extra\n"

func TestReadCSV(t *testing.T) {
	table, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"Nome", "Tipo de Denúncia", "Bairro"}, table.Header)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"Ana", "Buraco", "Centro"}, table.Rows[0])
	assert.Equal(t, []string{"Bia", "Lixo, entulho", "Aldeota", "extra"}, table.Rows[1])
}

func TestReadCSVEmptyDocument(t *testing.T) {
	table, err := ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, table.Header)
	assert.Empty(t, table.Rows)
}

func TestHTTPSourceFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, srv.Client())
	table, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, table.Rows, 2)
	assert.Equal(t, srv.URL, src.Name())
}

func TestHTTPSourceBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewHTTPSource(srv.URL, srv.Client()).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestHTTPSourceRejectsOversizedDocument(t *testing.T) {
	var body strings.Builder
	body.WriteString("Nome,Latitude\n")
	for i := 0; i < 20; i++ {
		body.WriteString("Ana,-23.5550001\n")
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body.String()))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, srv.Client())
	src.maxBytes = int64(body.Len()) - 5

	table, err := src.Fetch(context.Background())
	require.Error(t, err)
	assert.Nil(t, table)
	assert.Contains(t, err.Error(), "document exceeds")

	src.maxBytes = int64(body.Len())
	table, err = src.Fetch(context.Background())
	require.NoError(t, err, "a document exactly at the cap is accepted")
	require.Len(t, table.Rows, 20)
	assert.Equal(t, []string{"Ana", "-23.5550001"}, table.Rows[19])
}

func TestHTTPSourceHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewHTTPSource(srv.URL, srv.Client()).Fetch(ctx)
	require.Error(t, err)
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "denuncias.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	table, err := NewFileSource(path).Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, table.Rows, 2)

	_, err = NewFileSource(filepath.Join(t.TempDir(), "missing.csv")).Fetch(context.Background())
	assert.Error(t, err)
}

func TestPostgresSourceFetch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"Nome", "Bairro", "Latitude"}).
		AddRow("Ana", "Centro", -23.5).
		AddRow(nil, "Aldeota", nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "public"."denuncias"`)).WillReturnRows(rows)

	src := NewPostgresSourceFromDB(db, "public.denuncias")
	table, err := src.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Nome", "Bairro", "Latitude"}, table.Header)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"Ana", "Centro", "-23.5"}, table.Rows[0])
	assert.Equal(t, []string{"", "Aldeota", ""}, table.Rows[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSourceQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnError(assert.AnError)

	_, err = NewPostgresSourceFromDB(db, "denuncias").Fetch(context.Background())
	require.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}
