package warmup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hydratorFunc func(c context.Context) error

func (f hydratorFunc) WaitUntilLoaded(c context.Context) error {
	return f(c)
}

func TestWarmup(t *testing.T) {

	t.Run("Hydrated", func(t *testing.T) {
		// given
		router := setup(t, hydratorFunc(func(c context.Context) error {
			return nil
		}))

		// when
		response := warmup(t, router)

		// then
		assert.Equal(t, 200, response.Code)
		assert.Contains(t, response.Body.String(), "Successfully processed warmup request")
	})

	t.Run("Still hydrating", func(t *testing.T) {
		// given
		router := setup(t, hydratorFunc(func(c context.Context) error {
			<-c.Done()
			return c.Err()
		}))

		// when
		response := warmup(t, router)

		// then
		assert.Equal(t, 503, response.Code)
	})
}

func warmup(t *testing.T, router *mux.Router) *httptest.ResponseRecorder {
	request, err := http.NewRequest(http.MethodGet, "/_ah/warmup", nil)
	require.NoError(t, err)
	response := httptest.NewRecorder()
	router.ServeHTTP(response, request)
	return response
}

func setup(t *testing.T, hydrator Hydrator) *mux.Router {
	router := mux.NewRouter()
	err := NewService(hydrator, 20*time.Millisecond).RegisterEndpoints(context.TODO(), router)
	require.NoError(t, err)
	return router
}
