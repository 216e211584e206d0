package domain

import "time"

type Candidate struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	ImageURL  string `json:"image_url,omitempty"`
	Manifesto string `json:"manifesto,omitempty"`
}

// Position is an electable office with its own candidate list. Candidate
// order is the display order supplied by the backend and is stable for the
// duration of a session.
type Position struct {
	ID         int         `json:"id"`
	Name       string      `json:"name"`
	Candidates []Candidate `json:"candidates"`
}

func (p Position) HasCandidate(candidateID int) bool {
	for _, c := range p.Candidates {
		if c.ID == candidateID {
			return true
		}
	}
	return false
}

// VoteRecord is what the backend discloses for a verified receipt. It
// confirms the ballot was recorded without revealing any choices.
type VoteRecord struct {
	VerificationCode string    `json:"verification_code"`
	CastAt           time.Time `json:"cast_at"`
	Positions        []string  `json:"positions"`
}
