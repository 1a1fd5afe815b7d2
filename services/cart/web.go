package cart

import (
	"context"
	"fmt"
	"net/http"

	formcodec "github.com/go-playground/form/v4"
	"github.com/gorilla/mux"

	"github.com/MarcGrol/cartbackend/lib/mycontext"
	"github.com/MarcGrol/cartbackend/lib/myerrors"
	"github.com/MarcGrol/cartbackend/lib/myhttp"
	"github.com/MarcGrol/cartbackend/lib/mylog"
)

type webService struct {
	logger   mylog.Logger
	store    *Store
	products ProductFinder
	currency string
}

type addItemRequest struct {
	ProductID string `form:"productId"`
}

type viewResponse struct {
	View
	TotalPriceFormatted string `json:"totalPriceFormatted"`
}

// Use dependency injection to isolate the infrastructure and ease testing
func NewWebService(store *Store, products ProductFinder, currency string) *webService {
	return &webService{
		logger:   mylog.New("cart"),
		store:    store,
		products: products,
		currency: currency,
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	router.HandleFunc("/api/cart", s.getCart()).Methods("GET")
	router.HandleFunc("/api/cart", s.clearCart()).Methods("DELETE")
	router.HandleFunc("/api/cart/item", s.addItem()).Methods("POST")
	router.HandleFunc("/api/cart/item/{productId}", s.removeItem()).Methods("DELETE")
	router.HandleFunc("/api/cart/item/{productId}/{direction}", s.updateQuantity()).Methods("PUT")

	return nil
}

func (s *webService) getCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)

		s.writeView(c, w)
	}
}

func (s *webService) clearCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)

		s.store.Clear(c)

		s.writeView(c, w)
	}
}

func (s *webService) addItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		err := r.ParseForm()
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(err))
			return
		}

		req := addItemRequest{}
		err = formcodec.NewDecoder().Decode(&req, r.Form)
		if err != nil {
			errorWriter.WriteError(c, w, 2, myerrors.NewInvalidInputError(fmt.Errorf("error decoding form: %s", err)))
			return
		}
		if req.ProductID == "" {
			errorWriter.WriteError(c, w, 3, myerrors.NewInvalidInputErrorf("missing productId"))
			return
		}

		product, found, err := s.products.FindProduct(c, req.ProductID)
		if err != nil {
			errorWriter.WriteError(c, w, 4, err)
			return
		}
		if !found {
			errorWriter.WriteError(c, w, 5, myerrors.NewNotFoundError(fmt.Errorf("product with id %s not found", req.ProductID)))
			return
		}

		s.logger.Log(c, product.ProductID, mylog.SeverityInfo, "Add product %s to cart", product.ProductID)
		s.store.AddItem(c, product)

		s.writeView(c, w)
	}
}

func (s *webService) removeItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)

		productID := mux.Vars(r)["productId"]

		s.logger.Log(c, productID, mylog.SeverityInfo, "Remove product %s from cart", productID)
		s.store.RemoveItem(c, productID)

		s.writeView(c, w)
	}
}

func (s *webService) updateQuantity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		productID := mux.Vars(r)["productId"]
		direction, err := ParseDirection(mux.Vars(r)["direction"])
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(err))
			return
		}

		s.logger.Log(c, productID, mylog.SeverityInfo, "Update quantity of product %s (%s)", productID, direction)
		s.store.UpdateQuantity(c, productID, direction)

		s.writeView(c, w)
	}
}

func (s *webService) writeView(c context.Context, w http.ResponseWriter) {
	view := s.store.View()
	myhttp.NewWriter(s.logger).Write(c, w, http.StatusOK, viewResponse{
		View:                view,
		TotalPriceFormatted: view.TotalPrice.Format(s.currency),
	})
}
