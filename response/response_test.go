package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"restaurant-api/apperr"
)

func TestErrorEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"validation", apperr.Validation("name is required"), http.StatusBadRequest, "name is required"},
		{"not found", apperr.NotFound("restaurant not found"), http.StatusNotFound, "restaurant not found"},
		{"conflict", apperr.Conflict("email is already in use"), http.StatusConflict, "email is already in use"},
		{"infra hides cause", apperr.Infra(errors.New("dial tcp: refused"), "failed to retrieve restaurant"), http.StatusInternalServerError, "failed to retrieve restaurant"},
		{"untyped", errors.New("boom"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			Error(c, tc.err)

			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["error"] != tc.msg {
				t.Fatalf("error = %q, want %q", body["error"], tc.msg)
			}
		})
	}
}
