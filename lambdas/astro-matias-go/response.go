package main

// ResponseEnvelope is the JSON document returned to Alexa.
type ResponseEnvelope struct {
	Version           string         `json:"version"`
	SessionAttributes map[string]any `json:"sessionAttributes,omitempty"`
	Response          ResponseBody   `json:"response"`
}

type ResponseBody struct {
	OutputSpeech     *OutputSpeech `json:"outputSpeech,omitempty"`
	Reprompt         *Reprompt     `json:"reprompt,omitempty"`
	ShouldEndSession *bool         `json:"shouldEndSession,omitempty"`
}

type OutputSpeech struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type Reprompt struct {
	OutputSpeech OutputSpeech `json:"outputSpeech"`
}

const (
	responseVersion = "1.0"
	speechTypePlain = "PlainText"
)

// ResponseBuilder accumulates speech, reprompt and session state for one response.
type ResponseBuilder struct {
	speech     string
	reprompt   string
	endSession *bool
	attributes map[string]any
}

// NewResponseBuilder creates an empty builder.
func NewResponseBuilder() *ResponseBuilder {
	return &ResponseBuilder{}
}

// Speak sets the output speech.
func (b *ResponseBuilder) Speak(text string) *ResponseBuilder {
	b.speech = text
	return b
}

// Ask sets the reprompt and keeps the session open.
func (b *ResponseBuilder) Ask(text string) *ResponseBuilder {
	b.reprompt = text
	return b.WithShouldEndSession(false)
}

// WithShouldEndSession sets the end-session flag explicitly.
func (b *ResponseBuilder) WithShouldEndSession(end bool) *ResponseBuilder {
	b.endSession = &end
	return b
}

// WithSessionAttributes carries session attributes into the next turn.
func (b *ResponseBuilder) WithSessionAttributes(attrs map[string]any) *ResponseBuilder {
	b.attributes = attrs
	return b
}

// FromSpoken loads a SpokenResponse into the builder.
func (b *ResponseBuilder) FromSpoken(resp SpokenResponse) *ResponseBuilder {
	b.Speak(resp.Text)
	if resp.Reprompt != "" {
		b.Ask(resp.Reprompt)
	}
	return b.WithShouldEndSession(resp.ShouldEndSession)
}

// Build renders the envelope. Empty speech and reprompt are omitted.
func (b *ResponseBuilder) Build() ResponseEnvelope {
	env := ResponseEnvelope{
		Version:           responseVersion,
		SessionAttributes: b.attributes,
	}
	if b.speech != "" {
		env.Response.OutputSpeech = &OutputSpeech{Type: speechTypePlain, Text: b.speech}
	}
	if b.reprompt != "" {
		env.Response.Reprompt = &Reprompt{OutputSpeech: OutputSpeech{Type: speechTypePlain, Text: b.reprompt}}
	}
	if b.endSession != nil {
		end := *b.endSession
		env.Response.ShouldEndSession = &end
	}
	return env
}
