package handlers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConnID() uuid.UUID { return uuid.New() }

func TestSignupLoginVerify(t *testing.T) {
	ts := newTestServer(t)
	h := ts.Routes()

	w := do(t, h, "POST", "/api/auth/signup", `{"username":"alice","password":"secret"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "alice", decode(t, w)["username"])

	w = do(t, h, "POST", "/api/auth/signup", `{"username":"alice","password":"other"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, "POST", "/api/auth/login", `{"username":"alice","password":"secret"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "ok", body["user"])
	assert.Equal(t, "alice", body["username"])
	token, _ := body["access_token"].(string)
	require.NotEmpty(t, token)

	w = do(t, h, "POST", "/api/auth/verify", `{"token":"`+token+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["verified"])

	w = do(t, h, "POST", "/api/auth/verify", `{"token":"garbage"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["verified"])
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ts := newTestServer(t)
	h := ts.Routes()
	require.Equal(t, http.StatusCreated, do(t, h, "POST", "/api/auth/signup", `{"username":"alice","password":"secret"}`).Code)

	assert.Equal(t, http.StatusNotFound, do(t, h, "POST", "/api/auth/login", `{"username":"alice","password":"nope"}`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, "POST", "/api/auth/login", `{"username":"ghost","password":"secret"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "POST", "/api/auth/login", `{`).Code)
}

func TestSignupRequiresFields(t *testing.T) {
	ts := newTestServer(t)
	w := do(t, ts.Routes(), "POST", "/api/auth/signup", `{"username":"alice"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
