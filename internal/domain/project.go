package domain

import (
	"encoding/json"
	"time"
)

// Project is a submission to a hackathon track
type Project struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Team          []TeamMember      `json:"team"`
	HackathonID   string            `json:"hackathonId"`
	TrackID       string            `json:"trackId"`
	TeamID        string            `json:"teamId,omitempty"`
	RepositoryURL string            `json:"repositoryUrl,omitempty"`
	DemoURL       string            `json:"demoUrl,omitempty"`
	VideoURL      string            `json:"videoUrl,omitempty"`
	Technologies  []string          `json:"technologies"`
	Challenges    string            `json:"challenges"`
	Achievements  string            `json:"achievements"`
	FutureWork    string            `json:"futureWork"`
	Files         []json.RawMessage `json:"files"`
	SubmittedBy   string            `json:"submittedBy"`
	TeamInfo      *TeamInfo         `json:"teamInfo"`
	IPFSHash      string            `json:"ipfsHash"`
	SubmittedAt   time.Time         `json:"submittedAt"`
}

// TeamInfo is the team snapshot attached to a submission
type TeamInfo struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Members []TeamMember `json:"members"`
}

// ProjectMetadata is the supplementary part of a create response
type ProjectMetadata struct {
	Technologies []string          `json:"technologies"`
	Challenges   string            `json:"challenges"`
	Achievements string            `json:"achievements"`
	FutureWork   string            `json:"futureWork"`
	Files        []json.RawMessage `json:"files"`
	TeamInfo     *TeamInfo         `json:"teamInfo"`
}

// Metadata extracts the supplementary fields of p
func (p *Project) Metadata() ProjectMetadata {
	return ProjectMetadata{
		Technologies: p.Technologies,
		Challenges:   p.Challenges,
		Achievements: p.Achievements,
		FutureWork:   p.FutureWork,
		Files:        p.Files,
		TeamInfo:     p.TeamInfo,
	}
}

// CreateProjectRequest is the body of a project submission
type CreateProjectRequest struct {
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	HackathonID   string            `json:"hackathonId"`
	TrackID       string            `json:"trackId"`
	TeamID        string            `json:"teamId"`
	RepositoryURL string            `json:"repositoryUrl" validate:"omitempty,url"`
	DemoURL       string            `json:"demoUrl" validate:"omitempty,url"`
	VideoURL      string            `json:"videoUrl" validate:"omitempty,url"`
	Technologies  []string          `json:"technologies"`
	Challenges    string            `json:"challenges"`
	Achievements  string            `json:"achievements"`
	FutureWork    string            `json:"futureWork"`
	Files         []json.RawMessage `json:"files"`
	SubmittedBy   string            `json:"submittedBy"`
	Team          *TeamInfo         `json:"team"`
}

// ProjectFilter narrows the project listing
type ProjectFilter struct {
	HackathonID string
	TeamID      string
	UserID      string
	Limit       int
}

// Matches reports whether p passes the filter. UserID matches the submitter or any team member.
func (f ProjectFilter) Matches(p *Project) bool {
	if f.HackathonID != "" && p.HackathonID != f.HackathonID {
		return false
	}
	if f.TeamID != "" && p.TeamID != f.TeamID && (p.TeamInfo == nil || p.TeamInfo.ID != f.TeamID) {
		return false
	}
	if f.UserID != "" && p.SubmittedBy != f.UserID {
		for _, m := range p.Team {
			if m.UserID == f.UserID {
				return true
			}
		}
		return false
	}
	return true
}
