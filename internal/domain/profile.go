package domain

// Default fallback values used when extraction finds nothing usable.
const (
	DefaultName     = "Friend"
	DefaultLocation = "India"
	DefaultLanguage = "en"
)

// Profile holds what the dialogue has learned about the visitor so far. It is
// mutated incrementally as stages advance and reset only when a new session
// starts.
type Profile struct {
	Name         string     `json:"name,omitempty"`
	Location     string     `json:"location,omitempty"`
	Category     CategoryID `json:"category,omitempty"`
	Requirements []string   `json:"requirements,omitempty"`
	Language     string     `json:"language"`
}

// NewProfile returns a profile with the base language preference set.
func NewProfile() Profile {
	return Profile{Language: DefaultLanguage}
}

// DisplayName returns the captured name or the generic fallback.
func (p *Profile) DisplayName() string {
	if p.Name == "" {
		return DefaultName
	}
	return p.Name
}

// DisplayLocation returns the captured location or the generic fallback.
func (p *Profile) DisplayLocation() string {
	if p.Location == "" {
		return DefaultLocation
	}
	return p.Location
}
