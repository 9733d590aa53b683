// Package rfq builds the handoff links that turn a captured requirement into
// a request for quotation: a WhatsApp deep link and a mailto fallback.
package rfq

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/buildmart/buildmart-server/internal/config"
	"github.com/buildmart/buildmart-server/internal/domain"
)

// Builder renders RFQ handoff links for a captured profile.
type Builder struct {
	whatsAppNumber string
	email          string
}

// NewBuilder creates a builder for the configured supplier contact points.
func NewBuilder(cfg *config.RFQConfig) *Builder {
	return &Builder{
		whatsAppNumber: strings.TrimPrefix(cfg.WhatsAppNumber, "+"),
		email:          cfg.Email,
	}
}

// Links holds both handoff channels for one requirement.
type Links struct {
	WhatsApp string `json:"whatsapp"`
	Mailto   string `json:"mailto"`
}

// Build renders the WhatsApp and mailto links for the profile. Missing profile
// fields fall back to their display defaults so the message is always
// coherent.
func (b *Builder) Build(p domain.Profile) Links {
	body := requirementText(p)
	return Links{
		WhatsApp: b.whatsAppLink(body),
		Mailto:   b.mailtoLink(p, body),
	}
}

func (b *Builder) whatsAppLink(body string) string {
	return fmt.Sprintf("https://wa.me/%s?text=%s", b.whatsAppNumber, url.QueryEscape(body))
}

func (b *Builder) mailtoLink(p domain.Profile, body string) string {
	subject := fmt.Sprintf("RFQ: %s from %s", p.Category.DisplayName(), p.DisplayLocation())
	// mailto uses query escaping for both fields; spaces become %20 not "+".
	return "mailto:" + b.email +
		"?subject=" + escapeMailto(subject) +
		"&body=" + escapeMailto(body)
}

func requirementText(p domain.Profile) string {
	var sb strings.Builder
	sb.WriteString("Hello BuildMart, I would like a quotation.\n")
	sb.WriteString("Name: " + p.DisplayName() + "\n")
	sb.WriteString("Location: " + p.DisplayLocation() + "\n")
	sb.WriteString("Material: " + p.Category.DisplayName() + "\n")
	if len(p.Requirements) > 0 {
		sb.WriteString("Requirements:\n")
		for _, r := range p.Requirements {
			sb.WriteString("- " + r + "\n")
		}
	}
	sb.WriteString("Please share availability and pricing.")
	return sb.String()
}

func escapeMailto(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
