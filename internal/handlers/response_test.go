package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/lumora/eduhub-backend/internal/apperr"
)

func TestRespondServiceErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", apperr.Validation("title", "required"), http.StatusBadRequest, "validation_failed"},
		{"not found", apperr.NotFound("chapter"), http.StatusNotFound, "not_found"},
		{"permission", apperr.Permission("nope"), http.StatusForbidden, "forbidden"},
		{"cycle", apperr.Cycle("loop"), http.StatusConflict, "cycle_rejected"},
		{"storage", apperr.Storage("write", errors.New("disk")), http.StatusInternalServerError, "storage_failed"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)

			RespondServiceError(c, tc.err)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status: want=%d got=%d", tc.wantStatus, rec.Code)
			}
			var env ErrorEnvelope
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if env.Error.Code != tc.wantCode {
				t.Fatalf("code: want=%q got=%q", tc.wantCode, env.Error.Code)
			}
		})
	}
}

func TestRespondErrorCarriesField(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	RespondServiceError(c, apperr.Validation("video", "unsafe filename"))

	var env ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if env.Error.Field != "video" {
		t.Fatalf("field: want=%q got=%q", "video", env.Error.Field)
	}
}
