package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglanz/genba/internal/board"
	"github.com/reglanz/genba/internal/photo"
	"github.com/reglanz/genba/internal/ratelimit"
	"github.com/reglanz/genba/internal/resource"
	"github.com/reglanz/genba/internal/site"
	"github.com/reglanz/genba/internal/storage"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{site.Invalid("name", "required"), http.StatusBadRequest},
		{fmt.Errorf("wrap: %w", site.ErrNotFound), http.StatusNotFound},
		{resource.ErrNotFound, http.StatusNotFound},
		{photo.ErrNotFound, http.StatusNotFound},
		{board.ErrConflict, http.StatusConflict},
		{fmt.Errorf("board: %w", ratelimit.ErrLimited), http.StatusTooManyRequests},
		{storage.ErrNotConfigured, http.StatusServiceUnavailable},
		{errors.New("dial tcp: refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		got, _ := Status(tc.err)
		assert.Equal(t, tc.want, got, tc.err.Error())
	}
}

func TestErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, httptest.NewRequest(http.MethodGet, "/x", nil), errors.New("password=hunter2"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "hunter2")
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal error", body["error"])
}

type postBody struct {
	SiteID  string `json:"siteId"  validate:"required"`
	Content string `json:"content" validate:"required,max=5"`
}

func TestDecode(t *testing.T) {
	decode := func(s string) error {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(s))
		var p postBody
		return Decode(r, &p)
	}

	assert.NoError(t, decode(`{"siteId":"a","content":"hi"}`))

	err := decode(`{"siteId":"a"`)
	require.True(t, site.IsValidation(err))

	err = decode(`{"content":"hi"}`)
	var ve *site.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "siteId", ve.Field)
	assert.Equal(t, "required", ve.Msg)

	err = decode(`{"siteId":"a","content":"toolong"}`)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "content", ve.Field)

	assert.True(t, site.IsValidation(decode(`{"siteId":"a","content":"x"} {}`)))
}

func TestData(t *testing.T) {
	rec := httptest.NewRecorder()
	Data(rec, http.StatusCreated, []int{1})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"data":[1]}`, rec.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
}
