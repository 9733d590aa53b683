// Package speech defines the voice capability seams for the chat surface.
// The server itself does not transcribe or synthesize audio; clients that can
// (browsers with the Web Speech API, native apps) plug in behind these
// interfaces, and everything degrades cleanly to text when they cannot.
package speech

import "context"

// Input captures spoken user input and returns its transcription.
type Input interface {
	// Listen blocks until an utterance is transcribed, the listener is
	// stopped, or ctx is done. The language hint is a BCP 47-ish code such
	// as "en" or "hi".
	Listen(ctx context.Context, language string) (string, error)

	// Stop aborts an in-flight Listen. A transcription already produced is
	// still delivered; stopping before anything was captured yields an
	// empty string from Listen.
	Stop()

	// Available reports whether the capability is usable here.
	Available() bool
}

// Output speaks bot replies aloud.
type Output interface {
	// Speak voices the text in the given language. Starting a new Speak
	// cancels one still in progress.
	Speak(ctx context.Context, text, language string) error

	// Cancel silences any in-progress speech.
	Cancel()

	// Available reports whether the capability is usable here.
	Available() bool
}

// NoopInput is the server-side default: voice capture is a client concern.
type NoopInput struct{}

func (NoopInput) Listen(ctx context.Context, language string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (NoopInput) Stop() {}

func (NoopInput) Available() bool { return false }

// NoopOutput is the server-side default: synthesis is a client concern.
type NoopOutput struct{}

func (NoopOutput) Speak(ctx context.Context, text, language string) error { return nil }

func (NoopOutput) Cancel() {}

func (NoopOutput) Available() bool { return false }

var (
	_ Input  = NoopInput{}
	_ Output = NoopOutput{}
)
