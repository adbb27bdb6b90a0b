package domain

import "strings"

// Profile carries the display fields shown for a party in an introduction.
type Profile struct {
	Name        string `json:"name"`
	Title       string `json:"title,omitempty"`
	Company     string `json:"company,omitempty"`
	PictureURL  string `json:"picture_url,omitempty"`
	LinkedInURL string `json:"linkedin_url,omitempty"`
}

// Identity pairs a stable user id with its display profile.
type Identity struct {
	UserID  string  `json:"user_id,omitempty"`
	Profile Profile `json:"profile"`
}

// NormalizeIdentity trims identity fields.
func NormalizeIdentity(identity Identity) Identity {
	identity.UserID = strings.TrimSpace(identity.UserID)
	identity.Profile.Name = strings.TrimSpace(identity.Profile.Name)
	identity.Profile.Title = strings.TrimSpace(identity.Profile.Title)
	identity.Profile.Company = strings.TrimSpace(identity.Profile.Company)
	identity.Profile.PictureURL = strings.TrimSpace(identity.Profile.PictureURL)
	identity.Profile.LinkedInURL = strings.TrimSpace(identity.Profile.LinkedInURL)
	return identity
}

// IsZero reports whether the identity names nobody.
func (i Identity) IsZero() bool {
	return strings.TrimSpace(i.UserID) == "" && strings.TrimSpace(i.Profile.Name) == ""
}
