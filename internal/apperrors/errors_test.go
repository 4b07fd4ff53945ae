package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type transitionErr struct{}

func (transitionErr) Error() string { return "cannot complete_work from open" }
func (transitionErr) Unwrap() []error {
	return []error{ErrIllegalTransition, ErrInvalidState}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"not found", NotFound("project", "p1"), KindNotFound},
		{"wrapped forbidden", fmt.Errorf("accept bid: %w", Forbidden("accept_bid", "not the owner")), KindForbidden},
		{"duplicate", New(ErrDuplicateBid, "already bid"), KindDuplicateBid},
		{"illegal transition wins over invalid state", transitionErr{}, KindIllegalTransition},
		{"invalid state", New(ErrInvalidState, "project is not open"), KindInvalidState},
		{"unavailable", Unavailable(errors.New("database is locked")), KindUnavailable},
		{"plain error", errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestUnavailableKeepsCause(t *testing.T) {
	cause := errors.New("disk I/O error")
	err := Unavailable(cause)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Same(t, err, Unavailable(err))
	assert.NoError(t, Unavailable(nil))
}

func TestDetailsOf(t *testing.T) {
	err := fmt.Errorf("load: %w", NotFound("bid", "b1"))
	assert.Equal(t, map[string]any{"entity": "bid", "id": "b1"}, DetailsOf(err))
	assert.Nil(t, DetailsOf(errors.New("plain")))
}
