package warmup

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/cartbackend/lib/mycontext"
	"github.com/MarcGrol/cartbackend/lib/myerrors"
	"github.com/MarcGrol/cartbackend/lib/myhttp"
	"github.com/MarcGrol/cartbackend/lib/mylog"
)

type Hydrator interface {
	WaitUntilLoaded(c context.Context) error
}

type webService struct {
	logger   mylog.Logger
	hydrator Hydrator
	timeout  time.Duration
}

// Use dependency injection to isolate the infrastructure and ease testing
func NewService(hydrator Hydrator, timeout time.Duration) *webService {
	return &webService{
		logger:   mylog.New("warmup"),
		hydrator: hydrator,
		timeout:  timeout,
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	router.HandleFunc("/_ah/warmup", s.warmupPage()).Methods("GET")

	return nil
}

// warmupPage answers once the cart has been hydrated from storage
func (s *webService) warmupPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		waitCtx, cancel := context.WithTimeout(c, s.timeout)
		defer cancel()

		err := s.hydrator.WaitUntilLoaded(waitCtx)
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewUnavailableError(fmt.Errorf("cart not hydrated yet: %w", err)))
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{
			Message: "Successfully processed warmup request",
		})
	}
}
