// Package dialogue implements the scripted conversation flow: a small state
// machine that walks a visitor from greeting through name, location, and
// category capture to a completed requirement, selecting multilingual
// templates at every step.
package dialogue

import (
	"strings"
	"time"

	"github.com/buildmart/buildmart-server/internal/domain"
	"github.com/buildmart/buildmart-server/internal/extract"
	"github.com/buildmart/buildmart-server/internal/replies"
)

// Reply is one bot message produced by a transition. Delay tells the transport
// shell how long to pace the message after the previous one; zero means
// immediately.
type Reply struct {
	Body  string
	Delay time.Duration
}

// Keywords that count as an engaged opening message.
var greetingCues = []string{
	"hello", "hi", "hey", "namaste", "namaskar", "help", "material",
	"steel", "cement", "brick", "price", "quote", "supplier", "need",
}

// Keywords that mean "I want help with something else" at completion.
var moreCues = []string{
	"more", "another", "also", "yes", "other", "next", "aur", "haan", "और", "हाँ"}

// Conversation is the scripted dialogue for one chat session. It owns the
// visitor profile; the transcript is owned by the surrounding session.
type Conversation struct {
	Stage   domain.Stage   `json:"stage"`
	Profile domain.Profile `json:"profile"`

	bank            *replies.Bank
	completionDelay time.Duration
}

// New starts a conversation at the greeting stage.
func New(bank *replies.Bank, completionDelay time.Duration) *Conversation {
	return &Conversation{
		Stage:           domain.StageGreeting,
		Profile:         domain.NewProfile(),
		bank:            bank,
		completionDelay: completionDelay,
	}
}

// Attach re-binds the template bank after a conversation has been restored
// from a store snapshot.
func (c *Conversation) Attach(bank *replies.Bank, completionDelay time.Duration) {
	c.bank = bank
	c.completionDelay = completionDelay
}

// Greet produces the spontaneous opening message emitted when the chat
// surface opens, before any user input. The stage does not advance.
func (c *Conversation) Greet() (Reply, error) {
	body, err := c.bank.Select(replies.Greeting, c.Profile.Language, c.templateData())
	if err != nil {
		return Reply{}, err
	}
	return Reply{Body: body}, nil
}

// HandleMessage advances the conversation by one turn and returns the bot
// replies for it. Extraction never fails, so the only errors are template
// bank configuration problems.
func (c *Conversation) HandleMessage(body string) ([]Reply, error) {
	// A language switch applies immediately, at any stage, without resetting
	// the conversation.
	if lang, ok := extract.LanguageCue(body); ok {
		c.Profile.Language = lang
	}

	switch c.Stage {
	case domain.StageGreeting:
		return c.handleGreeting(body)
	case domain.StageAskName:
		return c.handleAskName(body)
	case domain.StageAskLocation:
		return c.handleAskLocation(body)
	case domain.StageAskCategory:
		return c.handleAskCategory(body)
	case domain.StageMaterialDetails:
		return c.handleMaterialDetails(body)
	case domain.StageCompletion:
		return c.handleCompletion(body)
	}
	// Unknown stage from a corrupt snapshot; restart rather than fail.
	c.Stage = domain.StageGreeting
	return c.handleGreeting(body)
}

func (c *Conversation) handleGreeting(body string) ([]Reply, error) {
	c.Stage = domain.StageAskName
	if containsAny(body, greetingCues) {
		return c.single(replies.AskName)
	}
	// Off-script opener: nudge, then ask for the name anyway.
	nudge, err := c.bank.Select(replies.GreetingNudge, c.Profile.Language, c.templateData())
	if err != nil {
		return nil, err
	}
	ask, err := c.bank.Select(replies.AskName, c.Profile.Language, c.templateData())
	if err != nil {
		return nil, err
	}
	return []Reply{{Body: nudge}, {Body: ask}}, nil
}

func (c *Conversation) handleAskName(body string) ([]Reply, error) {
	c.Profile.Name = extract.Name(body)
	c.Stage = domain.StageAskLocation
	return c.single(replies.AskLocation)
}

func (c *Conversation) handleAskLocation(body string) ([]Reply, error) {
	c.Profile.Location = extract.Location(body)
	c.Stage = domain.StageAskCategory
	return c.single(replies.AskCategory)
}

func (c *Conversation) handleAskCategory(body string) ([]Reply, error) {
	c.Profile.Category = extract.Category(body)
	c.Stage = domain.StageMaterialDetails
	details, err := c.bank.SelectMaterialDetails(c.Profile.Category, c.Profile.Language, c.templateData())
	if err != nil {
		return nil, err
	}
	return []Reply{{Body: details}}, nil
}

func (c *Conversation) handleMaterialDetails(body string) ([]Reply, error) {
	c.Profile.Requirements = append(c.Profile.Requirements, strings.TrimSpace(body))
	c.Stage = domain.StageCompletion

	insight, err := c.bank.Select(replies.MarketInsight, c.Profile.Language, c.templateData())
	if err != nil {
		return nil, err
	}
	done, err := c.bank.Select(replies.Completion, c.Profile.Language, c.templateData())
	if err != nil {
		return nil, err
	}
	return []Reply{{Body: insight}, {Body: done, Delay: c.completionDelay}}, nil
}

func (c *Conversation) handleCompletion(body string) ([]Reply, error) {
	if containsAny(body, moreCues) {
		c.Stage = domain.StageAskCategory
		return c.single(replies.AskCategory)
	}
	return c.single(replies.Closing)
}

func (c *Conversation) single(cat replies.Category) ([]Reply, error) {
	body, err := c.bank.Select(cat, c.Profile.Language, c.templateData())
	if err != nil {
		return nil, err
	}
	return []Reply{{Body: body}}, nil
}

func (c *Conversation) templateData() map[string]string {
	return map[string]string{
		"Name":     c.Profile.DisplayName(),
		"Location": c.Profile.DisplayLocation(),
		"Category": c.Profile.Category.DisplayName(),
	}
}

func containsAny(text string, cues []string) bool {
	lower := strings.ToLower(text)
	for _, cue := range cues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	return false
}
