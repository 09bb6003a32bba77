package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func openHackathon() *Hackathon {
	return &Hackathon{
		ID:                   "hackathon-1",
		Title:                "Athena",
		StartDate:            "2025-03-15T09:00:00Z",
		EndDate:              "2025-03-17T18:00:00Z",
		RegistrationDeadline: "2025-03-14T23:59:59Z",
	}
}

func TestParticipantList_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		json string
		want int
	}{
		{name: "array", json: `{"participants":[{"userId":"u1"},{"userId":"u2"}]}`, want: 2},
		{name: "legacy count", json: `{"participants":0}`, want: 0},
		{name: "null", json: `{"participants":null}`, want: 0},
		{name: "missing", json: `{}`, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var h Hackathon
			require.NoError(t, json.Unmarshal([]byte(tt.json), &h))
			h.Normalize()
			assert.Len(t, h.Participants, tt.want)
			assert.Equal(t, tt.want, h.ParticipantCount)
			assert.NotNil(t, h.Participants)
		})
	}
}

func TestHackathon_StatusAt(t *testing.T) {
	h := openHackathon()

	assert.Equal(t, StatusUpcoming, h.StatusAt(now))
	assert.Equal(t, StatusActive, h.StatusAt(time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)))
	assert.Equal(t, StatusActive, h.StatusAt(time.Date(2025, 3, 17, 18, 0, 0, 0, time.UTC)))
	assert.Equal(t, StatusEnded, h.StatusAt(time.Date(2025, 3, 17, 18, 0, 1, 0, time.UTC)))

	h.StartDate = "not a date"
	h.Status = StatusActive
	assert.Equal(t, StatusActive, h.StatusAt(now))
}

func TestHackathon_CanRegister(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(h *Hackathon)
		userID string
		want   error
	}{
		{name: "open", mutate: func(h *Hackathon) {}, userID: "u1"},
		{
			name:   "already registered by userId",
			mutate: func(h *Hackathon) { h.Participants = ParticipantList{{UserID: "u1"}} },
			userID: "u1",
			want:   ErrAlreadyRegistered,
		},
		{
			name:   "already registered by participant id",
			mutate: func(h *Hackathon) { h.Participants = ParticipantList{{ID: "u1", UserID: "wallet"}} },
			userID: "u1",
			want:   ErrAlreadyRegistered,
		},
		{
			name:   "ended",
			mutate: func(h *Hackathon) { h.EndDate = "2025-03-01T00:00:00Z" },
			userID: "u1",
			want:   ErrRegistrationClosed,
		},
		{
			name:   "deadline passed",
			mutate: func(h *Hackathon) { h.RegistrationDeadline = "2025-03-09" },
			userID: "u1",
			want:   ErrDeadlinePassed,
		},
		{
			name: "deadline beats capacity",
			mutate: func(h *Hackathon) {
				h.RegistrationDeadline = "2025-03-09"
				h.MaxParticipants = 1
				h.Participants = ParticipantList{{UserID: "u2"}}
			},
			userID: "u1",
			want:   ErrDeadlinePassed,
		},
		{
			name: "full",
			mutate: func(h *Hackathon) {
				h.MaxParticipants = 2
				h.Participants = ParticipantList{{UserID: "u2"}, {UserID: "u3"}}
			},
			userID: "u1",
			want:   ErrHackathonFull,
		},
		{
			name: "duplicate beats full",
			mutate: func(h *Hackathon) {
				h.MaxParticipants = 1
				h.Participants = ParticipantList{{UserID: "u1"}}
			},
			userID: "u1",
			want:   ErrAlreadyRegistered,
		},
		{
			name:   "no deadline",
			mutate: func(h *Hackathon) { h.RegistrationDeadline = "" },
			userID: "u1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := openHackathon()
			tt.mutate(h)
			err := h.CanRegister(now, tt.userID)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestHackathonFilter_Matches(t *testing.T) {
	h := openHackathon()
	h.Description = "Build on the decentralized web"

	assert.True(t, HackathonFilter{}.Matches(h, now))
	assert.True(t, HackathonFilter{Status: StatusUpcoming}.Matches(h, now))
	assert.False(t, HackathonFilter{Status: StatusEnded}.Matches(h, now))
	assert.True(t, HackathonFilter{Query: "DECENTRAL"}.Matches(h, now))
	assert.False(t, HackathonFilter{Query: "robotics"}.Matches(h, now))
}

func TestParseTimestamp(t *testing.T) {
	for _, s := range []string{"2025-03-01T10:00:00Z", "2025-03-01T10:00:00.123+07:00", "2025-03-01T10:00", "2025-03-01"} {
		_, err := ParseTimestamp(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseTimestamp("March 1st")
	assert.Error(t, err)
}

func TestProjectFilter_Matches(t *testing.T) {
	p := &Project{
		HackathonID: "h1",
		TeamID:      "t1",
		SubmittedBy: "u1",
		Team:        []TeamMember{{UserID: "u2"}},
	}

	assert.True(t, ProjectFilter{HackathonID: "h1"}.Matches(p))
	assert.False(t, ProjectFilter{HackathonID: "h2"}.Matches(p))
	assert.True(t, ProjectFilter{TeamID: "t1"}.Matches(p))
	assert.True(t, ProjectFilter{UserID: "u1"}.Matches(p))
	assert.True(t, ProjectFilter{UserID: "u2"}.Matches(p))
	assert.False(t, ProjectFilter{UserID: "u3"}.Matches(p))
}
