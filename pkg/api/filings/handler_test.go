package filings

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"edgar_extract/pkg/core/pipeline"
	"edgar_extract/pkg/core/profile"
	"edgar_extract/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const filing = `<SEC-HEADER>
CONFORMED SUBMISSION TYPE:	8-K
COMPANY CONFORMED NAME:			Apple Inc.
</SEC-HEADER>
<DOCUMENT>
<TYPE>8-K
<TEXT>
Item 2.02 Results of Operations and Financial Condition
Revenue rose.
</TEXT>
</DOCUMENT>
<DOCUMENT>
<TYPE>EX-99.1
<TEXT>
Press release text.
</TEXT>
</DOCUMENT>
`

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := pipeline.DefaultPolicy()
	p.Logger = discard
	asm, err := pipeline.NewAssembler(profile.MustNewRegistry(profile.Defaults()), p)
	require.NoError(t, err)
	h, err := NewHandler(asm, discard)
	require.NoError(t, err)
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return srv
}

func parse(t *testing.T, srv *httptest.Server, query, body string) (*http.Response, *models.FilingResult) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/filings/parse"+query, "text/plain", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	if resp.Header.Get("Content-Type") != "application/json" {
		return resp, nil
	}
	var res models.FilingResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	return resp, &res
}

func TestHandleParse(t *testing.T) {
	srv := newServer(t)

	resp, res := parse(t, srv, "?ticker=AAPL&source=aapl-8k.txt", filing)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, res)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, models.FilingOK, res.Status)
	assert.Equal(t, "8-K", res.FormType)
	assert.Equal(t, "AAPL", res.Filing.Ticker)
	assert.Equal(t, "aapl-8k.txt", res.Filing.Source)
	assert.Equal(t, 1, res.Summary.DocumentsProcessed)
	assert.Equal(t, 1, res.Summary.DocumentsSkipped)
}

func TestHandleParse_ProcessAll(t *testing.T) {
	srv := newServer(t)

	_, res := parse(t, srv, "?process_all=true", filing)
	require.NotNil(t, res)
	assert.Equal(t, 2, res.Summary.DocumentsProcessed)
	assert.Equal(t, "upload", res.Filing.Source)

	resp, _ := parse(t, srv, "?process_all=maybe", filing)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleParse_Malformed(t *testing.T) {
	srv := newServer(t)

	resp, res := parse(t, srv, "", "just some text\n")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.NotNil(t, res)
	assert.Equal(t, models.FilingFailed, res.Status)
	assert.NotEmpty(t, res.Error)

	resp, _ = parse(t, srv, "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleParse_TooLarge(t *testing.T) {
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	asm, err := pipeline.NewAssembler(profile.MustNewRegistry(profile.Defaults()), pipeline.DefaultPolicy())
	require.NoError(t, err)
	h, err := NewHandler(asm, discard)
	require.NoError(t, err)
	h.SetMaxBodyBytes(16)

	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/filings/parse", strings.NewReader(filing)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestHandleProfilesAndHealth(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Get(srv.URL + "/api/profiles")
	require.NoError(t, err)
	defer resp.Body.Close()
	var profiles []models.FilingTypeProfile
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&profiles))
	assert.Len(t, profiles, len(profile.Defaults()))
	assert.Equal(t, "10-K", profiles[0].Name)

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPreflight(t *testing.T) {
	srv := newServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/filings/parse", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "GET, POST, OPTIONS", resp.Header.Get("Access-Control-Allow-Methods"))
}
