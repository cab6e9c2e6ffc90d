package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-login-boilerplate/internal/models"
)

func TestParseUserFilter(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		query     string
		activated *bool
		signupBy  *models.SignupBy
		wantErr   bool
	}{
		{name: "empty", query: ""},
		{name: "activated true", query: "activated=true", activated: ptr(true)},
		{name: "activated zero", query: "activated=0", activated: ptr(false)},
		{name: "signup_by lower case", query: "signup_by=google", signupBy: ptr(models.SignupByGoogle)},
		{name: "both", query: "activated=FALSE&signup_by=EMAIL", activated: ptr(false), signupBy: ptr(models.SignupByEmail)},
		{name: "bad activated", query: "activated=maybe", wantErr: true},
		{name: "bad signup_by", query: "signup_by=twitter", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/dashboard?"+tc.query, nil)

			f, err := parseUserFilter(r)
			if tc.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.activated, f.Activated)
			require.Equal(t, tc.signupBy, f.SignupBy)
		})
	}
}

func TestJSONRenderer(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	JSONRenderer{}.Render(rec, httptest.NewRequest(http.MethodGet, "/login", nil), http.StatusBadRequest,
		Page{Name: "login", Message: "Incorrect email or password"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "login", got["page"])
	require.Equal(t, "Incorrect email or password", got["message"])
	require.NotContains(t, got, "data")
}

func TestTokenFromPair_BearerType(t *testing.T) {
	t.Parallel()

	out := tokenFromPair(&models.TokenPair{AccessToken: "a", RefreshToken: "r"})
	require.Equal(t, "bearer", out.TokenType)
	require.Equal(t, "a", out.AccessToken)
	require.Equal(t, "r", out.RefreshToken)
}

func ptr[T any](v T) *T { return &v }
