package main

import (
	"context"
)

// Speech used by the handlers.
const (
	speechLaunch          = "Hello! I’m Astro MatIAS, your space friend. I can tell you real curiosities from NASA’s research."
	speechLaunchReprompt  = "What space topic would you like to learn about today?"
	speechMissingQuestion = "No entendí bien tu pregunta. ¿Podrías repetir sobre qué tema espacial quieres saber?"
	speechMissingReprompt = "¿Qué tema espacial te interesa?"
	speechAskAgain        = "¿Quieres preguntarme otra cosa del espacio?"
	speechHelp            = "Puedes decirme: Quiero saber de los ratones en el espacio. ¿Qué deseas saber?"
	speechGoodbye         = "Adiós, hasta la próxima misión."
	speechFallback        = "No estoy seguro de eso. Puedes preguntar sobre investigaciones de la NASA."
)

// Handlers contains the skill's request handlers.
type Handlers struct {
	logger *Logger
	asker  Asker
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(logger *Logger, asker Asker) *Handlers {
	return &Handlers{
		logger: logger,
		asker:  asker,
	}
}

// Routes returns the handlers in precedence order.
func (h *Handlers) Routes() []Route {
	return []Route{
		{
			Name:   "Launch",
			Match:  func(req RequestDescriptor) bool { return req.Kind == KindLaunch },
			Handle: h.Launch,
		},
		{
			Name:   "QuestionIntent",
			Match:  func(req RequestDescriptor) bool { return req.IsIntent(IntentQuestion) },
			Handle: h.QuestionIntent,
		},
		{
			Name:   "HelpIntent",
			Match:  func(req RequestDescriptor) bool { return req.IsIntent(IntentHelp) },
			Handle: h.Help,
		},
		{
			Name:   "CancelOrStopIntent",
			Match:  func(req RequestDescriptor) bool { return req.IsIntent(IntentCancel, IntentStop) },
			Handle: h.CancelOrStop,
		},
		{
			Name:   "FallbackIntent",
			Match:  func(req RequestDescriptor) bool { return req.IsIntent(IntentFallback) },
			Handle: h.Fallback,
		},
		{
			Name:   "SessionEnded",
			Match:  func(req RequestDescriptor) bool { return req.Kind == KindSessionEnded },
			Handle: h.SessionEnded,
		},
	}
}

// Launch greets the user.
func (h *Handlers) Launch(ctx context.Context, req RequestDescriptor) (SpokenResponse, error) {
	return SpokenResponse{Text: speechLaunch, Reprompt: speechLaunchReprompt}, nil
}

// QuestionIntent forwards the user's question to the webhook and speaks the answer.
// Webhook failures are turned into speech here; the session always stays open.
func (h *Handlers) QuestionIntent(ctx context.Context, req RequestDescriptor) (SpokenResponse, error) {
	question, ok := req.SlotValue(SlotQuestion)
	if !ok {
		h.logger.Infof("Request %s has no %q slot, asking the user to repeat", req.RequestID, SlotQuestion)
		return SpokenResponse{Text: speechMissingQuestion, Reprompt: speechMissingReprompt}, nil
	}

	outcome := h.asker.Ask(ctx, WebhookRequest{Question: question})
	if outcome.Failed() {
		h.logger.Warnf("Question for request %s not answered: %s", req.RequestID, outcome)
	} else {
		h.logger.Infof("Question for request %s answered", req.RequestID)
	}

	return SpokenResponse{Text: outcome.SpokenText(), Reprompt: speechAskAgain}, nil
}

// Help explains what the user can ask.
func (h *Handlers) Help(ctx context.Context, req RequestDescriptor) (SpokenResponse, error) {
	return SpokenResponse{Text: speechHelp, Reprompt: speechHelp}, nil
}

// CancelOrStop says goodbye and ends the session.
func (h *Handlers) CancelOrStop(ctx context.Context, req RequestDescriptor) (SpokenResponse, error) {
	return SpokenResponse{Text: speechGoodbye, ShouldEndSession: true}, nil
}

// Fallback steers the user back to NASA topics.
func (h *Handlers) Fallback(ctx context.Context, req RequestDescriptor) (SpokenResponse, error) {
	return SpokenResponse{Text: speechFallback, Reprompt: speechFallback}, nil
}

// SessionEnded has nothing to say; Alexa ignores speech for this request type.
func (h *Handlers) SessionEnded(ctx context.Context, req RequestDescriptor) (SpokenResponse, error) {
	if req.EndError != nil {
		h.logger.Errorf("Session ended with error (reason %s): %s: %s", req.EndReason, req.EndError.Type, req.EndError.Message)
	} else {
		h.logger.Infof("Session ended (reason %s)", req.EndReason)
	}
	return SpokenResponse{ShouldEndSession: true}, nil
}
