package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type WebhookClientTestSuite struct {
	suite.Suite
	logger *Logger
}

func TestWebhookClientTestSuite(t *testing.T) {
	suite.Run(t, new(WebhookClientTestSuite))
}

func (s *WebhookClientTestSuite) SetupTest() {
	s.logger = NewLogger()
}

func (s *WebhookClientTestSuite) newClient(url string, timeout time.Duration) *WebhookClient {
	cfg := &Config{
		WebhookURL:      url,
		WebhookTimeout:  timeout,
		DeadlineReserve: 0,
	}
	return NewWebhookClient(s.logger, cfg, NewHTTPClient(WithLogger(s.logger), WithTimeout(timeout)))
}

func (s *WebhookClientTestSuite) TestAsk_ResponseClassification() {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantKind   OutcomeKind
		wantAnswer string
		wantSpoken string
	}{
		{
			name:       "200 with respuesta field",
			statusCode: http.StatusOK,
			body:       `{"respuesta": "Los ratones viajaron a la Estación Espacial Internacional."}`,
			wantKind:   OutcomeSuccess,
			wantAnswer: "Los ratones viajaron a la Estación Espacial Internacional.",
			wantSpoken: "Thank you for waiting. Los ratones viajaron a la Estación Espacial Internacional.",
		},
		{
			name:       "200 with extra fields",
			statusCode: http.StatusOK,
			body:       `{"respuesta": "Sí.", "fuente": "NASA GeneLab"}`,
			wantKind:   OutcomeSuccess,
			wantAnswer: "Sí.",
			wantSpoken: "Thank you for waiting. Sí.",
		},
		{
			name:       "200 without respuesta field",
			statusCode: http.StatusOK,
			body:       `{"otro": "valor"}`,
			wantKind:   OutcomeSuccess,
			wantAnswer: defaultWebhookAnswer,
			wantSpoken: "Thank you for waiting. No encontré información en los registros de la NASA.",
		},
		{
			name:       "200 with null respuesta",
			statusCode: http.StatusOK,
			body:       `{"respuesta": null}`,
			wantKind:   OutcomeSuccess,
			wantAnswer: defaultWebhookAnswer,
			wantSpoken: "Thank you for waiting. No encontré información en los registros de la NASA.",
		},
		{
			name:       "200 with numeric respuesta",
			statusCode: http.StatusOK,
			body:       `{"respuesta": 42}`,
			wantKind:   OutcomeSuccess,
			wantAnswer: "42",
			wantSpoken: "Thank you for waiting. 42",
		},
		{
			name:       "200 with plain text body",
			statusCode: http.StatusOK,
			body:       "Workflow was started",
			wantKind:   OutcomeMalformedResponse,
			wantSpoken: speechMalformed,
		},
		{
			name:       "200 with JSON array",
			statusCode: http.StatusOK,
			body:       `[{"respuesta": "x"}]`,
			wantKind:   OutcomeMalformedResponse,
			wantSpoken: speechMalformed,
		},
		{
			name:       "200 with empty body",
			statusCode: http.StatusOK,
			body:       "",
			wantKind:   OutcomeMalformedResponse,
			wantSpoken: speechMalformed,
		},
		{
			name:       "500 error",
			statusCode: http.StatusInternalServerError,
			body:       `{"message": "Error in workflow"}`,
			wantKind:   OutcomeHTTPError,
			wantSpoken: "El servidor respondió con un error 500.",
		},
		{
			name:       "404 error",
			statusCode: http.StatusNotFound,
			body:       `{"code": 404, "message": "The requested webhook is not registered."}`,
			wantKind:   OutcomeHTTPError,
			wantSpoken: "El servidor respondió con un error 404.",
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			// Given: a webhook that answers with the configured status and body
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()
			client := s.newClient(server.URL, 5*time.Second)

			// When: asking a question
			outcome := client.Ask(context.Background(), WebhookRequest{Question: "ratones en el espacio"})

			// Then: the outcome and its speech match the response
			s.Equal(tt.wantKind, outcome.Kind)
			s.Equal(tt.wantAnswer, outcome.Answer)
			s.Equal(tt.statusCode, outcome.StatusCode)
			s.Equal(tt.wantSpoken, outcome.SpokenText())
		})
	}
}

func (s *WebhookClientTestSuite) TestAsk_SendsJSONPayload() {
	// Given: a webhook that records the request
	var (
		method      string
		contentType string
		userAgent   string
		auth        string
		payload     map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		contentType = r.Header.Get("Content-Type")
		userAgent = r.Header.Get("User-Agent")
		auth = r.Header.Get("Authorization")
		s.NoError(json.NewDecoder(r.Body).Decode(&payload))
		w.Write([]byte(`{"respuesta": "ok"}`))
	}))
	defer server.Close()
	client := s.newClient(server.URL, 5*time.Second)

	// When: asking a question
	outcome := client.Ask(context.Background(), WebhookRequest{Question: "¿Qué es un agujero negro?"})

	// Then: the question is posted as {"mensaje": ...} with a JSON content type and no auth header
	s.Equal(OutcomeSuccess, outcome.Kind)
	s.Equal(http.MethodPost, method)
	s.Equal("application/json", contentType)
	s.True(strings.HasPrefix(userAgent, "astro-matias-skill/"))
	s.Empty(auth)
	s.Equal(map[string]any{"mensaje": "¿Qué es un agujero negro?"}, payload)
}

func (s *WebhookClientTestSuite) TestAsk_SendsBearerTokenWhenConfigured() {
	// Given: a client configured with a webhook token
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Write([]byte(`{"respuesta": "ok"}`))
	}))
	defer server.Close()
	cfg := &Config{WebhookURL: server.URL, WebhookTimeout: 5 * time.Second, WebhookToken: "secret-token"}
	client := NewWebhookClient(s.logger, cfg, NewHTTPClient())

	// When: asking a question
	client.Ask(context.Background(), WebhookRequest{Question: "Marte"})

	// Then: the token is sent as a bearer token
	s.Equal("Bearer secret-token", auth)
}

func (s *WebhookClientTestSuite) TestAsk_DoesNotRetry() {
	// Given: a webhook that always fails
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()
	client := s.newClient(server.URL, 5*time.Second)

	// When: asking a question
	outcome := client.Ask(context.Background(), WebhookRequest{Question: "Júpiter"})

	// Then: the failure is reported after a single attempt
	s.Equal(OutcomeHTTPError, outcome.Kind)
	s.Equal(http.StatusServiceUnavailable, outcome.StatusCode)
	s.Equal(int32(1), atomic.LoadInt32(&attempts))
}

func (s *WebhookClientTestSuite) TestAsk_Timeout() {
	// Given: a webhook slower than the client timeout
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()
	client := s.newClient(server.URL, 50*time.Millisecond)

	// When: asking a question
	outcome := client.Ask(context.Background(), WebhookRequest{Question: "Saturno"})

	// Then: the call is classified as a timeout, not a connection error
	s.Equal(OutcomeTimeout, outcome.Kind)
	s.Equal(speechTimeout, outcome.SpokenText())
}

func (s *WebhookClientTestSuite) TestAsk_TLSError() {
	// Given: an HTTPS webhook whose certificate is not trusted by the client
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"respuesta": "ok"}`))
	}))
	defer server.Close()
	client := s.newClient(server.URL, 5*time.Second)

	// When: asking a question
	outcome := client.Ask(context.Background(), WebhookRequest{Question: "Venus"})

	// Then: the call is classified as a TLS error, not a connection error
	s.Equal(OutcomeTLSError, outcome.Kind)
	s.Equal(speechTLSError, outcome.SpokenText())
}

func (s *WebhookClientTestSuite) TestAsk_ConnectionRefused() {
	// Given: a webhook address nobody listens on
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()
	client := s.newClient(url, 5*time.Second)

	// When: asking a question
	outcome := client.Ask(context.Background(), WebhookRequest{Question: "Mercurio"})

	// Then: the call is a connection error whose detail is sanitized into the speech
	s.Equal(OutcomeConnectionError, outcome.Kind)
	spoken := outcome.SpokenText()
	s.True(strings.HasPrefix(spoken, "No se pudo conectar con el servidor. Error: "))
	detail := strings.TrimPrefix(spoken, "No se pudo conectar con el servidor. Error: ")
	s.LessOrEqual(len([]rune(detail)), maxDetailLength)
	s.NotContains(detail, "\n")
	s.NotContains(detail, "'")
}

func (s *WebhookClientTestSuite) TestAsk_ConnectionDropped() {
	// Given: a webhook that closes the connection without answering
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		if ok {
			conn, _, _ := hj.Hijack()
			conn.Close()
		}
	}))
	defer server.Close()
	client := s.newClient(server.URL, 5*time.Second)

	// When: asking a question
	outcome := client.Ask(context.Background(), WebhookRequest{Question: "Neptuno"})

	// Then: the call is a connection error
	s.Equal(OutcomeConnectionError, outcome.Kind)
}

func (s *WebhookClientTestSuite) TestAsk_InvalidURLIsUnknownError() {
	// Given: a client with an unparseable URL
	client := s.newClient("://missing-scheme", 5*time.Second)

	// When: asking a question
	outcome := client.Ask(context.Background(), WebhookRequest{Question: "Plutón"})

	// Then: the failure falls through to the unknown error branch
	s.Equal(OutcomeUnknownError, outcome.Kind)
	s.True(strings.HasPrefix(outcome.SpokenText(), "Hubo un error al procesar la solicitud. Detalle: "))
}

func (s *WebhookClientTestSuite) TestAsk_RespectsInvocationDeadline() {
	// Given: an invocation with less time left than the deadline reserve
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.Write([]byte(`{"respuesta": "ok"}`))
	}))
	defer server.Close()
	cfg := &Config{WebhookURL: server.URL, WebhookTimeout: 10 * time.Second, DeadlineReserve: time.Second}
	client := NewWebhookClient(s.logger, cfg, NewHTTPClient())
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	// When: asking a question
	outcome := client.Ask(ctx, WebhookRequest{Question: "Luna"})

	// Then: the webhook is not called and the user hears the timeout message
	s.Equal(OutcomeTimeout, outcome.Kind)
	s.Equal(int32(0), atomic.LoadInt32(&attempts))
}

func (s *WebhookClientTestSuite) TestEffectiveTimeout() {
	client := &WebhookClient{timeout: 10 * time.Second, deadlineReserve: time.Second}

	s.Run("no deadline keeps configured timeout", func() {
		s.Equal(10*time.Second, client.effectiveTimeout(context.Background()))
	})

	s.Run("distant deadline keeps configured timeout", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		s.Equal(10*time.Second, client.effectiveTimeout(ctx))
	})

	s.Run("close deadline shortens timeout", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		got := client.effectiveTimeout(ctx)
		s.Greater(got, 3*time.Second)
		s.LessOrEqual(got, 4*time.Second)
	})
}

func (s *WebhookClientTestSuite) TestParseWebhookAnswer() {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{name: "string answer", body: `{"respuesta": "hola"}`, want: "hola"},
		{name: "empty string answer is kept", body: `{"respuesta": ""}`, want: ""},
		{name: "missing answer", body: `{}`, want: defaultWebhookAnswer},
		{name: "boolean answer", body: `{"respuesta": true}`, want: "true"},
		{name: "object answer", body: `{"respuesta": {"a": 1}}`, want: `{"a":1}`},
		{name: "null body", body: `null`, wantErr: true},
		{name: "string body", body: `"hola"`, wantErr: true},
		{name: "trailing data", body: `{"respuesta": "a"} {"respuesta": "b"}`, wantErr: true},
		{name: "truncated JSON", body: `{"respuesta": "a`, wantErr: true},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			got, err := ParseWebhookAnswer([]byte(tt.body))
			if tt.wantErr {
				s.ErrorIs(err, ErrMalformedResponse)
				return
			}
			s.NoError(err)
			s.Equal(tt.want, got.Answer)
		})
	}
}
