package validator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Title     string   `json:"title" validate:"required,max=10"`
	Email     string   `json:"userEmail" validate:"omitempty,email"`
	StartDate string   `json:"startDate" validate:"required,timestamp"`
	Prizes    []string `json:"prizes" validate:"min=1"`
	Score     int      `json:"score" validate:"gte=0,lte=10"`
}

func valid() sample {
	return sample{Title: "Hack", StartDate: "2025-03-01T00:00:00Z", Prizes: []string{"p"}, Score: 5}
}

func TestValidator_Struct(t *testing.T) {
	v := New()
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(s *sample)
		want   string
	}{
		{name: "valid", mutate: func(s *sample) {}},
		{name: "date only accepted", mutate: func(s *sample) { s.StartDate = "2025-03-01" }},
		{name: "datetime-local accepted", mutate: func(s *sample) { s.StartDate = "2025-03-01T09:30" }},
		{name: "missing title", mutate: func(s *sample) { s.Title = "" }, want: "title is required"},
		{name: "title too long", mutate: func(s *sample) { s.Title = "a very long title" }, want: "title must be at most 10 characters"},
		{name: "bad email", mutate: func(s *sample) { s.Email = "nope" }, want: "userEmail must be a valid email address"},
		{name: "bad date", mutate: func(s *sample) { s.StartDate = "tomorrow" }, want: "startDate must be a valid date"},
		{name: "no prizes", mutate: func(s *sample) { s.Prizes = nil }, want: "prizes must contain at least 1 item(s)"},
		{name: "score above range", mutate: func(s *sample) { s.Score = 11 }, want: "score must be less than or equal to 10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(&s)
			err := v.Struct(ctx, s)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.want)
		})
	}
}

func TestValidator_FieldError(t *testing.T) {
	s := valid()
	s.Title = ""

	err := New().Struct(context.Background(), s)

	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "title", fe.Field)
	assert.Equal(t, "required", fe.Tag)
}
