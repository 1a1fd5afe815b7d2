package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/cartbackend/lib/myconfig"
	"github.com/MarcGrol/cartbackend/lib/myhttpclient"
	"github.com/MarcGrol/cartbackend/lib/mylog"
	"github.com/MarcGrol/cartbackend/lib/mystore"
	"github.com/MarcGrol/cartbackend/lib/mytime"
	"github.com/MarcGrol/cartbackend/services/cart"
	"github.com/MarcGrol/cartbackend/services/cart/cartstorage"
	"github.com/MarcGrol/cartbackend/services/catalog"
	"github.com/MarcGrol/cartbackend/services/warmup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	err := run()
	if err != nil {
		log.Fatalf("%s", err)
	}
}

func run() error {
	c, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := myconfig.Load(".env")
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := mylog.New("main")
	router := mux.NewRouter()

	backend := cfg.Backend()
	linesStore, cleanup, err := mystore.New[cartstorage.CartLines](c, backend, mystore.Options{
		ProjectID:  cfg.GoogleCloudProject,
		RedisAddr:  cfg.RedisAddr,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		return fmt.Errorf("error creating %s cart store: %w", backend, err)
	}
	defer cleanup()
	versionsStore, err := mystore.Derive[cartstorage.CartVersion](linesStore)
	if err != nil {
		return fmt.Errorf("error creating %s version store: %w", backend, err)
	}
	logger.Log(c, "", mylog.SeverityInfo, "Persisting cart %q in %s store", cfg.CartKey, backend)

	gateway := cartstorage.New(linesStore, versionsStore, cfg.CartKey, mytime.RealNower{}, cfg.WriteTimeout)
	defer gateway.Close()

	// hydration and the hydrated save must survive the shutdown signal
	store := cart.NewStore(context.WithoutCancel(c), gateway, mylog.New("cart"))

	catalogClient := catalog.NewClient(cfg.CatalogURL, myhttpclient.New(cfg.CatalogTimeout))

	err = cart.NewWebService(store, catalogClient, cfg.Currency).RegisterEndpoints(c, router)
	if err != nil {
		return fmt.Errorf("error registering cart endpoints: %w", err)
	}

	err = catalog.NewWebService(catalogClient).RegisterEndpoints(c, router)
	if err != nil {
		return fmt.Errorf("error registering catalog endpoints: %w", err)
	}

	err = warmup.NewService(store, cfg.WriteTimeout).RegisterEndpoints(c, router)
	if err != nil {
		return fmt.Errorf("error registering warmup endpoints: %w", err)
	}

	return startWebServerBlocking(c, cfg.Port, router)
}

func startWebServerBlocking(c context.Context, port string, router *mux.Router) error {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: router,
	}

	go func() {
		<-c.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			log.Printf("Error shutting down webserver: %s", err)
		}
	}()

	log.Printf("Starting webserver on port %s (try http://localhost:%s)", port, port)
	err := server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("error starting webserver on port %s: %w", port, err)
	}

	return nil
}
