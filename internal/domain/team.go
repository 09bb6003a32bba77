package domain

import "time"

// DefaultTeamSize applies when a team is created without maxMembers
const DefaultTeamSize = 4

// Team is a group of participants working on one submission
type Team struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	HackathonID string       `json:"hackathonId"`
	LeaderID    string       `json:"leaderId"`
	Members     []TeamMember `json:"members"`
	InviteCode  string       `json:"inviteCode"`
	MaxMembers  int          `json:"maxMembers"`
	IsPublic    bool         `json:"isPublic"`
	Skills      []string     `json:"skills"`
	LookingFor  []string     `json:"lookingFor"`
	IPFSHash    string       `json:"ipfsHash"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// TeamMember appears both in teams and in project submissions
type TeamMember struct {
	ID       string     `json:"id"`
	UserID   string     `json:"userId"`
	Name     string     `json:"name"`
	Email    string     `json:"email,omitempty"`
	Role     string     `json:"role"`
	Avatar   string     `json:"avatar,omitempty"`
	JoinedAt *time.Time `json:"joinedAt,omitempty"`
	Skills   []string   `json:"skills,omitempty"`
}

// CreateTeamRequest is the body of a team creation
type CreateTeamRequest struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description"`
	HackathonID string   `json:"hackathonId" validate:"required"`
	LeaderID    string   `json:"leaderId" validate:"required"`
	LeaderName  string   `json:"leaderName"`
	MaxMembers  int      `json:"maxMembers" validate:"gte=0,lte=20"`
	IsPublic    *bool    `json:"isPublic"`
	Skills      []string `json:"skills"`
	LookingFor  []string `json:"lookingFor"`
}

// TeamFilter narrows the team listing
type TeamFilter struct {
	HackathonID string
	Limit       int
}
