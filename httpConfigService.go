package main

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/net/context"
)

type httpConfigService struct {
	srv     *http.Server
	handler *apiHandler
	done    chan struct{}
}

func newRouter(handler *apiHandler) *mux.Router {
	r := mux.NewRouter()

	// auth middleware
	r.Use(handler.BasicAuth)
	// api server
	r.HandleFunc("/api/status", handler.apiStatus).Methods("GET")
	r.HandleFunc("/api/press", handler.apiPress).Methods("POST")

	// root handler
	r.HandleFunc("/", handler.rootHandler)
	return r
}

func (h *httpConfigService) launch(handler *apiHandler, addr string) {
	h.handler = handler
	h.srv = &http.Server{
		Addr:         addr,
		Handler:      newRouter(handler),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	h.done = make(chan struct{})

	// launch the server
	go func() {
		defer close(h.done)
		handler.rt.logger.Printf("starting config service http server on %s", addr)
		err := h.srv.ListenAndServe()
		if err != http.ErrServerClosed {
			handler.rt.logger.Printf("config service: %v", err)
		}
		handler.rt.logger.Println("Exiting config service")
	}()
}

func (h *httpConfigService) stop() {
	if h.srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	h.srv.Shutdown(ctx)
	<-h.done
}
