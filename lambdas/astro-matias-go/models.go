package main

import (
	"errors"
	"fmt"
	"strings"
)

// Alexa request types.
const (
	RequestTypeLaunch       = "LaunchRequest"
	RequestTypeIntent       = "IntentRequest"
	RequestTypeSessionEnded = "SessionEndedRequest"
)

// Intent names handled by the skill.
const (
	IntentQuestion = "CustomEspacialIntent"
	IntentHelp     = "AMAZON.HelpIntent"
	IntentCancel   = "AMAZON.CancelIntent"
	IntentStop     = "AMAZON.StopIntent"
	IntentFallback = "AMAZON.FallbackIntent"

	// SlotQuestion carries the user's free-text question.
	SlotQuestion = "pregunta"
)

// ErrUnsupportedRequestType is returned for envelopes whose request type the skill does not model.
var ErrUnsupportedRequestType = errors.New("unsupported request type")

// RequestEnvelope is the JSON document Alexa sends to the skill.
// Only the fields the skill reads are modelled.
type RequestEnvelope struct {
	Version string  `json:"version"`
	Session Session `json:"session"`
	Request Request `json:"request"`
}

// Session describes the Alexa session the request belongs to.
type Session struct {
	New         bool           `json:"new"`
	SessionID   string         `json:"sessionId"`
	Application Application    `json:"application"`
	Attributes  map[string]any `json:"attributes,omitempty"`
	User        User           `json:"user"`
}

type Application struct {
	ApplicationID string `json:"applicationId"`
}

type User struct {
	UserID string `json:"userId"`
}

// Request is the typed part of the envelope.
type Request struct {
	Type      string        `json:"type"`
	RequestID string        `json:"requestId"`
	Timestamp string        `json:"timestamp"`
	Locale    string        `json:"locale"`
	Intent    *Intent       `json:"intent,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	Error     *RequestError `json:"error,omitempty"`
}

type Intent struct {
	Name               string          `json:"name"`
	ConfirmationStatus string          `json:"confirmationStatus,omitempty"`
	Slots              map[string]Slot `json:"slots,omitempty"`
}

type Slot struct {
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
}

// RequestError is reported by Alexa on a SessionEndedRequest with reason ERROR.
type RequestError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// RequestKind discriminates RequestDescriptor.
type RequestKind int

const (
	// KindUnknown is set on descriptors for envelopes that could not be classified.
	KindUnknown RequestKind = iota
	KindLaunch
	KindIntent
	KindSessionEnded
)

func (k RequestKind) String() string {
	switch k {
	case KindLaunch:
		return RequestTypeLaunch
	case KindIntent:
		return RequestTypeIntent
	case KindSessionEnded:
		return RequestTypeSessionEnded
	case KindUnknown:
		return "unknown"
	default:
		return "unknown"
	}
}

// RequestDescriptor is the read-only view of an incoming request that routes and handlers consume.
type RequestDescriptor struct {
	Kind       RequestKind
	RequestID  string
	IntentName string
	// Slots maps slot name to value. Empty values are dropped.
	Slots map[string]string
	// EndReason and EndError are only set for SessionEndedRequest.
	EndReason string
	EndError  *RequestError
}

// NewRequestDescriptor converts an envelope into a RequestDescriptor.
func NewRequestDescriptor(env RequestEnvelope) (RequestDescriptor, error) {
	desc := RequestDescriptor{RequestID: env.Request.RequestID}
	switch env.Request.Type {
	case RequestTypeLaunch:
		desc.Kind = KindLaunch
	case RequestTypeIntent:
		if env.Request.Intent == nil || env.Request.Intent.Name == "" {
			return RequestDescriptor{}, fmt.Errorf("intent request %s has no intent name", env.Request.RequestID)
		}
		desc.Kind = KindIntent
		desc.IntentName = env.Request.Intent.Name
		desc.Slots = make(map[string]string, len(env.Request.Intent.Slots))
		for name, slot := range env.Request.Intent.Slots {
			if strings.TrimSpace(slot.Value) != "" {
				desc.Slots[name] = slot.Value
			}
		}
	case RequestTypeSessionEnded:
		desc.Kind = KindSessionEnded
		desc.EndReason = env.Request.Reason
		desc.EndError = env.Request.Error
	default:
		return RequestDescriptor{}, fmt.Errorf("%w: %q", ErrUnsupportedRequestType, env.Request.Type)
	}
	return desc, nil
}

// SlotValue returns the trimmed value of a slot and whether it was provided.
// Absent, empty and whitespace-only slots are all reported as not provided.
func (d RequestDescriptor) SlotValue(name string) (string, bool) {
	value := strings.TrimSpace(d.Slots[name])
	return value, value != ""
}

// IsIntent reports whether the request is an IntentRequest for one of the given names.
func (d RequestDescriptor) IsIntent(names ...string) bool {
	if d.Kind != KindIntent {
		return false
	}
	for _, name := range names {
		if d.IntentName == name {
			return true
		}
	}
	return false
}

// SpokenResponse is what a handler wants Alexa to say.
type SpokenResponse struct {
	Text             string
	ShouldEndSession bool
	// Reprompt is spoken if the user stays silent; empty means none.
	Reprompt string
}

// WebhookRequest is the payload sent to the question-answering webhook.
type WebhookRequest struct {
	Question string `json:"mensaje"`
}

// WebhookAnswer is the webhook's success payload.
type WebhookAnswer struct {
	Answer string `json:"respuesta"`
}
