package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MarcGrol/cartbackend/lib/myhttpclient"
)

func TestCatalogWebService(t *testing.T) {

	t.Run("List products", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		router, sender := setupWeb(t, ctrl)

		// given
		sender.EXPECT().Send(gomock.Any(), http.MethodGet, "https://catalog.test/products", nil).Return(200, []byte("["+productJSON+"]"), nil)

		// when
		request, err := http.NewRequest(http.MethodGet, "/api/products", nil)
		require.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		assert.JSONEq(t, "["+productJSON+"]", response.Body.String())
	})

	t.Run("List categories", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		router, sender := setupWeb(t, ctrl)

		// given
		sender.EXPECT().Send(gomock.Any(), http.MethodGet, "https://catalog.test/products/categories", nil).Return(200, []byte(`["electronics"]`), nil)

		// when
		request, err := http.NewRequest(http.MethodGet, "/api/products/categories", nil)
		require.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		assert.JSONEq(t, `["electronics"]`, response.Body.String())
	})

	t.Run("List products in category", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		router, sender := setupWeb(t, ctrl)

		// given
		sender.EXPECT().Send(gomock.Any(), http.MethodGet, "https://catalog.test/products/category/electronics", nil).Return(200, []byte(`[]`), nil)

		// when
		request, err := http.NewRequest(http.MethodGet, "/api/products/category/electronics", nil)
		require.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		assert.JSONEq(t, `[]`, response.Body.String())
	})

	t.Run("Catalog down", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		router, sender := setupWeb(t, ctrl)

		// given
		sender.EXPECT().Send(gomock.Any(), http.MethodGet, gomock.Any(), nil).Return(502, nil, nil)

		// when
		request, err := http.NewRequest(http.MethodGet, "/api/products", nil)
		require.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 503, response.Code)
	})
}

func setupWeb(t *testing.T, ctrl *gomock.Controller) (*mux.Router, *myhttpclient.MockHTTPSender) {
	sender := myhttpclient.NewMockHTTPSender(ctrl)

	router := mux.NewRouter()
	sut := NewWebService(NewClient("https://catalog.test", sender))
	err := sut.RegisterEndpoints(context.TODO(), router)
	require.NoError(t, err)

	return router, sender
}
