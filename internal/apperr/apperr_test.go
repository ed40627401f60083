package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("faculty_name is required"), http.StatusBadRequest},
		{Conflict("duplicate"), http.StatusConflict},
		{NotFound("complaint %d not found", 3), http.StatusNotFound},
		{Unauthorized("invalid credentials"), http.StatusUnauthorized},
		{Storage("failed to create log", errors.New("pq: boom")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Status(tc.err), tc.err.Error())
	}
}

func TestWrappedKindSurvives(t *testing.T) {
	err := fmt.Errorf("submit reason: %w", NotFound("complaint not found"))
	assert.True(t, Is(err, KindNotFound))
	assert.Equal(t, "complaint not found", PublicMessage(err))
}

func TestStorageHidesDriverDetail(t *testing.T) {
	err := Storage("failed to create log", errors.New("relation log_entries does not exist"))
	assert.Equal(t, "failed to create log", PublicMessage(err))
	assert.Contains(t, err.Error(), "relation log_entries")
	assert.Equal(t, "internal error", PublicMessage(errors.New("x")))
}
