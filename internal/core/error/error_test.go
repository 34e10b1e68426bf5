package errx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"not found", fmt.Errorf("load: %w", ErrConversationNotFound), http.StatusNotFound},
		{"closed", ErrConversationClosed, http.StatusConflict},
		{"app error", New(errors.New("bad"), http.StatusBadRequest, "bad input"), http.StatusBadRequest},
		{"wrapped app error", fmt.Errorf("outer: %w", New(nil, http.StatusTeapot, "teapot")), http.StatusTeapot},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StatusOf(tc.err))
		})
	}
}

func TestAppErrorMessage(t *testing.T) {
	assert.Equal(t, "safe", New(nil, http.StatusBadRequest, "safe").Error())
	assert.Equal(t, "safe: cause", New(errors.New("cause"), http.StatusBadRequest, "safe").Error())
}

func TestResponderFailure(t *testing.T) {
	assert.NoError(t, ResponderFailure("coordinator", nil))

	cause := errors.New("model down")
	err := ResponderFailure("coordinator", cause)
	require.Error(t, err)
	assert.True(t, IsResponderFailure(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusBadGateway, StatusOf(err))

	var ae *AppError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "responder coordinator failed", ae.Message)

	assert.False(t, IsResponderFailure(cause))
}

func TestWrapRedis(t *testing.T) {
	assert.NoError(t, WrapRedis(nil))

	err := WrapRedis(redis.Nil)
	assert.ErrorIs(t, err, ErrConversationNotFound)
	assert.Equal(t, http.StatusNotFound, StatusOf(err))

	err = WrapRedis(errors.New("connection refused"))
	assert.NotErrorIs(t, err, ErrConversationNotFound)
	assert.Equal(t, http.StatusBadGateway, StatusOf(err))
}

func TestWrapStore(t *testing.T) {
	assert.NoError(t, WrapStore(nil))

	err := WrapStore(gorm.ErrRecordNotFound)
	assert.ErrorIs(t, err, ErrConversationNotFound)
	assert.Equal(t, http.StatusNotFound, StatusOf(err))

	err = WrapStore(errors.New("disk full"))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(err))
}
