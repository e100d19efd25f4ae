// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package httpserver implements an HTTP server.
package httpserver

import (
	"context"
	"net"
	"net/http"
	"sync"
)

// Server is an HTTP server implementation, which uses
// the HTTP handler provided.
type Server struct {
	name       string
	address    string
	addressSet chan struct{}
	running    chan struct{}
	handler    http.Handler
	logger     Logger
	optional   optionalSettings
	mutex      sync.RWMutex
}

// New creates a new HTTP server with a name, listening on
// the address given and using the HTTP handler provided.
func New(name, address string, handler http.Handler,
	logger Logger, options ...Option) *Server {
	return &Server{
		name:       name,
		address:    address,
		addressSet: make(chan struct{}),
		running:    make(chan struct{}),
		handler:    handler,
		logger:     logger,
		optional:   newOptionalSettings(options),
	}
}

// GetAddress obtains the address the HTTP server is listening on.
// It blocks until the address is set or the server errors early.
func (s *Server) GetAddress() (address string) {
	select {
	case <-s.addressSet:
	case <-s.running:
	}
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.address
}

// Run runs the HTTP server, and notifies the ready channel
// when it is ready. It closes the done channel with an eventual
// error when the context is canceled or when it crashed.
func (s *Server) Run(ctx context.Context, ready chan<- struct{}, done chan<- error) {
	defer close(s.running)

	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		done <- err
		return
	}

	s.mutex.Lock()
	s.address = listener.Addr().String()
	s.mutex.Unlock()
	close(s.addressSet)

	server := http.Server{
		Addr:              s.address,
		Handler:           s.handler,
		ReadTimeout:       s.optional.readTimeout,
		ReadHeaderTimeout: s.optional.readHeaderTimeout,
	}

	shutdownErrCh := make(chan error)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(), s.optional.shutdownTimeout)
		defer cancel()
		shutdownErrCh <- server.Shutdown(shutdownCtx)
	}()

	s.logger.Info(s.name + " HTTP server listening on " + s.address)
	close(ready)

	err = server.Serve(listener)
	if ctx.Err() == nil {
		// server crashed without the context being canceled
		done <- err
		return
	}

	if err != nil && err != http.ErrServerClosed {
		done <- err
		return
	}

	err = <-shutdownErrCh
	done <- err
}
