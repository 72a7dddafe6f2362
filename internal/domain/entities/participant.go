package entities

import "strings"

// Participant is a canonical meeting participant
type Participant struct {
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	ExternalID string `json:"external_id,omitempty"`
	Role       string `json:"role,omitempty"`
}

// NormalizeEmail lower-cases and trims an address, returning "" when it has no "@".
func NormalizeEmail(raw string) string {
	email := strings.ToLower(strings.TrimSpace(raw))
	if !strings.Contains(email, "@") {
		return ""
	}
	return email
}

// Key returns the dedup key with priority email > external id > name.
func (p Participant) Key() string {
	if p.Email != "" {
		return "email:" + p.Email
	}
	if p.ExternalID != "" {
		return "id:" + p.ExternalID
	}
	if p.Name != "" {
		return "name:" + strings.ToLower(p.Name)
	}
	return ""
}

// Merge fills empty fields from other without overwriting populated ones.
func (p *Participant) Merge(other Participant) {
	if p.Name == "" {
		p.Name = other.Name
	}
	if p.Email == "" {
		p.Email = other.Email
	}
	if p.ExternalID == "" {
		p.ExternalID = other.ExternalID
	}
	if p.Role == "" {
		p.Role = other.Role
	}
}
