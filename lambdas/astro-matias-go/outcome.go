package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"syscall"
)

// OutcomeKind classifies one webhook call attempt.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeHTTPError
	OutcomeTimeout
	OutcomeTLSError
	OutcomeConnectionError
	OutcomeMalformedResponse
	OutcomeUnknownError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeHTTPError:
		return "http_error"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeTLSError:
		return "tls_error"
	case OutcomeConnectionError:
		return "connection_error"
	case OutcomeMalformedResponse:
		return "malformed_response"
	case OutcomeUnknownError:
		return "unknown_error"
	default:
		return "unknown"
	}
}

// Speech used for each outcome.
const (
	speechSuccessPrefix   = "Thank you for waiting. "
	speechTimeout         = "El servidor tardó demasiado en responder. Intenta más tarde."
	speechTLSError        = "Hubo un error de seguridad con el servidor. Verifica el certificado SSL."
	speechConnectionError = "No se pudo conectar con el servidor. Error: %s"
	speechMalformed       = "El servidor respondió, pero el formato no era válido. Intenta más tarde."
	speechHTTPError       = "El servidor respondió con un error %d."
	speechUnknownError    = "Hubo un error al procesar la solicitud. Detalle: %s"
	defaultWebhookAnswer  = "No encontré información en los registros de la NASA."
)

// Outcome is the result of one webhook call.
type Outcome struct {
	Kind OutcomeKind
	// Answer is set for OutcomeSuccess.
	Answer string
	// StatusCode is set whenever a response was received.
	StatusCode int
	// Detail holds the underlying error text for failures.
	Detail string
}

// Failed reports whether the call did not produce an answer.
func (o Outcome) Failed() bool {
	return o.Kind != OutcomeSuccess
}

// SpokenText renders the outcome as the text Alexa speaks.
func (o Outcome) SpokenText() string {
	switch o.Kind {
	case OutcomeSuccess:
		return speechSuccessPrefix + o.Answer
	case OutcomeHTTPError:
		return fmt.Sprintf(speechHTTPError, o.StatusCode)
	case OutcomeTimeout:
		return speechTimeout
	case OutcomeTLSError:
		return speechTLSError
	case OutcomeConnectionError:
		return fmt.Sprintf(speechConnectionError, SanitizeDetail(o.Detail))
	case OutcomeMalformedResponse:
		return speechMalformed
	default:
		return fmt.Sprintf(speechUnknownError, SanitizeDetail(o.Detail))
	}
}

func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeSuccess, OutcomeHTTPError:
		return fmt.Sprintf("%s(%d)", o.Kind, o.StatusCode)
	default:
		return fmt.Sprintf("%s(%s)", o.Kind, Truncate(o.Detail, maxDetailLength))
	}
}

// classifyError maps a transport error to an outcome.
// Timeouts are checked first, then TLS failures, then connection failures.
func classifyError(err error) Outcome {
	detail := err.Error()
	switch {
	case IsTimeoutError(err):
		return Outcome{Kind: OutcomeTimeout, Detail: detail}
	case IsTLSError(err):
		return Outcome{Kind: OutcomeTLSError, Detail: detail}
	case IsConnectionError(err):
		return Outcome{Kind: OutcomeConnectionError, Detail: detail}
	default:
		return Outcome{Kind: OutcomeUnknownError, Detail: detail}
	}
}

// IsTimeoutError reports whether err comes from a connect or read timeout.
func IsTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// IsTLSError reports whether err comes from the TLS handshake or certificate validation.
func IsTLSError(err error) bool {
	var verifyErr *tls.CertificateVerificationError
	var unknownAuthority x509.UnknownAuthorityError
	var hostnameErr x509.HostnameError
	var invalidCert x509.CertificateInvalidError
	var recordErr tls.RecordHeaderError
	switch {
	case errors.As(err, &verifyErr),
		errors.As(err, &unknownAuthority),
		errors.As(err, &hostnameErr),
		errors.As(err, &invalidCert),
		errors.As(err, &recordErr):
		return true
	}
	// Remote handshake alerts are only exposed as text.
	msg := err.Error()
	return strings.Contains(msg, "tls: ") || strings.Contains(msg, "x509: ")
}

// IsConnectionError reports whether err means the server could not be reached
// or dropped the connection.
func IsConnectionError(err error) bool {
	var dnsErr *net.DNSError
	var opErr *net.OpError
	switch {
	case errors.As(err, &dnsErr),
		errors.As(err, &opErr),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF):
		return true
	}
	return false
}
