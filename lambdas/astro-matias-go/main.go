package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"
)

// HandlerService contains dependencies for the Lambda handler.
type HandlerService struct {
	logger     *Logger
	router     *IntentRouter
	exceptions *ExceptionHandler
}

// NewHandlerService creates a HandlerService from the environment.
// When WEBHOOK_SECRET_ARN is set the webhook settings are read from Secrets Manager.
func NewHandlerService(ctx context.Context) (*HandlerService, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	logger := NewLoggerWithLevel(cfg.LogLevel)

	if cfg.WebhookSecretARN != "" {
		client, err := NewSecretsManagerClient(ctx, logger, cfg.WebhookSecretARN)
		if err != nil {
			return nil, err
		}
		secret, err := GetWebhookSecret(ctx, logger, client, cfg.WebhookSecretARN)
		if err != nil {
			return nil, err
		}
		if err := ApplyWebhookSecret(cfg, secret); err != nil {
			return nil, fmt.Errorf("invalid webhook secret: %w", err)
		}
	}

	httpClient := NewHTTPClient(
		WithLogger(logger),
		WithTimeout(cfg.WebhookTimeout),
		WithTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12}),
	)
	webhook := NewWebhookClient(logger, cfg, httpClient)

	logger.Infof("Skill %s ready, webhook: %s, timeout: %v", Version, cfg.WebhookURL, cfg.WebhookTimeout)
	return newHandlerService(logger, webhook), nil
}

func newHandlerService(logger *Logger, asker Asker) *HandlerService {
	exceptions := NewExceptionHandler(logger)
	return &HandlerService{
		logger:     logger,
		router:     NewIntentRouter(logger, exceptions, NewHandlers(logger, asker).Routes()...),
		exceptions: exceptions,
	}
}

// Handle processes one Alexa request envelope. It always returns a response.
func (s *HandlerService) Handle(ctx context.Context, env RequestEnvelope) (ResponseEnvelope, error) {
	logger := s.logger.With("requestId", env.Request.RequestID)
	logger.Debugf("Received request of type %s in session %s", env.Request.Type, env.Session.SessionID)

	var spoken SpokenResponse
	req, err := NewRequestDescriptor(env)
	if err != nil {
		spoken = s.exceptions.Handle(ctx, RequestDescriptor{Kind: KindUnknown, RequestID: env.Request.RequestID}, err)
	} else {
		spoken = s.router.Dispatch(ctx, req)
	}

	builder := NewResponseBuilder().FromSpoken(spoken)
	if !spoken.ShouldEndSession {
		builder.WithSessionAttributes(env.Session.Attributes)
	}
	return builder.Build(), nil
}

// buildService constructs the service on a cold start.
var buildService = NewHandlerService

var (
	serviceMu sync.Mutex
	service   *HandlerService
)

// loadService returns the cached service. Failed builds are not cached, so the
// next invocation tries again.
func loadService(ctx context.Context) (*HandlerService, error) {
	serviceMu.Lock()
	defer serviceMu.Unlock()

	if service != nil {
		return service, nil
	}
	svc, err := buildService(ctx)
	if err != nil {
		return nil, err
	}
	service = svc
	return service, nil
}

// syncLogs flushes the service logger if one was built.
func syncLogs() {
	serviceMu.Lock()
	defer serviceMu.Unlock()

	if service != nil {
		service.logger.Sync()
	}
}

func handler(ctx context.Context, env RequestEnvelope) (ResponseEnvelope, error) {
	svc, err := loadService(ctx)
	if err != nil {
		// Still answer the user; the apology carries the configuration error.
		logger := NewLogger()
		defer logger.Sync()
		spoken := NewExceptionHandler(logger).Handle(ctx, RequestDescriptor{Kind: KindUnknown, RequestID: env.Request.RequestID}, err)
		return NewResponseBuilder().FromSpoken(spoken).Build(), nil
	}
	return svc.Handle(ctx, env)
}

// runTestMode decodes one envelope from in, handles it and writes the response to out.
func runTestMode(ctx context.Context, in io.Reader, out io.Writer, handle func(context.Context, RequestEnvelope) (ResponseEnvelope, error)) error {
	var env RequestEnvelope
	if err := json.NewDecoder(in).Decode(&env); err != nil {
		return fmt.Errorf("error decoding event: %w", err)
	}

	result, err := handle(ctx, env)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("error encoding response: %w", err)
	}
	return nil
}

func main() {
	// Support test mode: with --test, read an event from stdin (or --event) and write the response to stdout
	testMode := cli.Bool("test", false, "Handle one request envelope locally instead of starting the Lambda runtime")
	eventFile := cli.StringP("event", "e", "", "Request envelope file used in test mode (default: stdin)")
	envFile := cli.String("env", ".env", "Env file loaded in test mode")
	cli.Parse()

	if !*testMode {
		lambda.Start(handler)
		return
	}

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", *envFile, err)
		os.Exit(1)
	}

	in := io.Reader(os.Stdin)
	if *eventFile != "" {
		f, err := os.Open(*eventFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening event file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	err := runTestMode(context.Background(), in, os.Stdout, handler)
	syncLogs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
