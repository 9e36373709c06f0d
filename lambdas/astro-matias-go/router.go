package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrNoRouteMatched is passed to the ExceptionHandler when no route accepts a request.
var ErrNoRouteMatched = errors.New("no handler can process the request")

// HandlerFunc processes a request that its route matched.
type HandlerFunc func(ctx context.Context, req RequestDescriptor) (SpokenResponse, error)

// Route pairs a predicate with the handler that serves matching requests.
type Route struct {
	Name   string
	Match  func(req RequestDescriptor) bool
	Handle HandlerFunc
}

// PanicError wraps a value recovered from a panicking handler.
type PanicError struct {
	Route string
	Value any
	// Stack is the goroutine stack at the point of the panic.
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Route, e.Value)
}

// IntentRouter dispatches each request to the first route whose predicate matches.
type IntentRouter struct {
	logger     *Logger
	routes     []Route
	exceptions *ExceptionHandler
}

// NewIntentRouter creates a router. Routes are evaluated in the order given.
func NewIntentRouter(logger *Logger, exceptions *ExceptionHandler, routes ...Route) *IntentRouter {
	return &IntentRouter{
		logger:     logger,
		routes:     routes,
		exceptions: exceptions,
	}
}

// Dispatch runs exactly one route for req and always returns a response.
// Handler errors and panics are answered by the ExceptionHandler.
func (r *IntentRouter) Dispatch(ctx context.Context, req RequestDescriptor) SpokenResponse {
	for _, route := range r.routes {
		if !route.Match(req) {
			continue
		}
		r.logger.Debugf("Request %s (%s %s) routed to %s", req.RequestID, req.Kind, req.IntentName, route.Name)
		resp, err := r.invoke(ctx, route, req)
		if err != nil {
			r.logger.Warnf("Handler %s failed for request %s", route.Name, req.RequestID)
			return r.exceptions.Handle(ctx, req, err)
		}
		return resp
	}
	return r.exceptions.Handle(ctx, req, fmt.Errorf("%w: %s %s", ErrNoRouteMatched, req.Kind, req.IntentName))
}

func (r *IntentRouter) invoke(ctx context.Context, route Route, req RequestDescriptor) (resp SpokenResponse, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &PanicError{Route: route.Name, Value: v, Stack: zap.Stack("stack").String}
		}
	}()
	return route.Handle(ctx, req)
}

// Speech used by the ExceptionHandler.
const (
	speechUnexpectedError = "Lo siento, hubo un error inesperado. Detalle: %s"
	speechStaticApology   = "Lo siento, hubo un error inesperado."
	speechAnotherQuestion = "¿Deseas intentar otra pregunta?"
)

// ExceptionHandler is the last-resort recovery point for every request.
type ExceptionHandler struct {
	logger *Logger
}

// NewExceptionHandler creates an ExceptionHandler.
func NewExceptionHandler(logger *Logger) *ExceptionHandler {
	return &ExceptionHandler{logger: logger}
}

// Handle logs err and apologises, keeping the session open.
// It never panics; if building the apology fails it returns a static one.
func (h *ExceptionHandler) Handle(ctx context.Context, req RequestDescriptor, err error) (resp SpokenResponse) {
	defer func() {
		if v := recover(); v != nil {
			resp = SpokenResponse{Text: speechStaticApology, Reprompt: speechAnotherQuestion}
		}
	}()

	if err == nil {
		err = errors.New("unknown error")
	}

	var panicErr *PanicError
	if errors.As(err, &panicErr) {
		h.logger.Errorf("Unhandled panic processing request %s: %v\n%s", req.RequestID, err, panicErr.Stack)
	} else {
		h.logger.Errorf("Unhandled error processing request %s: %v", req.RequestID, err)
	}

	return SpokenResponse{
		Text:     fmt.Sprintf(speechUnexpectedError, SanitizeDetail(err.Error())),
		Reprompt: speechAnotherQuestion,
	}
}
