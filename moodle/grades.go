package moodle

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ggoodman/moodlews-go/jsonval"
	"github.com/ggoodman/moodlews-go/record"
)

// ReadGrade is one grade as reported by mod_assign_get_grades. The server
// sends the grade as a decimal string.
type ReadGrade struct {
	UserID        int
	AttemptNumber int
	Grade         string
}

// GradeValue parses Grade.
func (g ReadGrade) GradeValue() (float64, error) {
	v, err := strconv.ParseFloat(g.Grade, 64)
	if err != nil {
		return 0, fmt.Errorf("moodle: grade of user %d: %w", g.UserID, err)
	}
	return v, nil
}

// GradeSchema describes the members of a grade object the decoder reads.
var GradeSchema = record.NewSchema().
	Int("userid").
	Int("attemptnumber").
	String("grade")

var gradeDecoder = record.NewDecoder(GradeSchema, func(r record.Record) ReadGrade {
	return ReadGrade{
		UserID:        int(r.Int(0)),
		AttemptNumber: int(r.Int(1)),
		Grade:         r.String(2),
	}
})

var assignmentIDDecoder = record.NewDecoder(record.NewSchema().Int("assignmentid"), func(r record.Record) int {
	return int(r.Int(0))
})

// ReadGrades returns every grade of one assignment, all attempts included.
func (s *Site) ReadGrades(ctx context.Context, assignmentID int) ([]ReadGrade, error) {
	env, err := s.AssignGrades(ctx, []int{assignmentID}, nil)
	if err != nil {
		return nil, err
	}
	if env.Len() == 0 {
		// Assignments without any grade are left out of the answer.
		return nil, nil
	}
	assignment, ok := env.Only()
	if !ok {
		return nil, fmt.Errorf("moodle: assignment %d: expected one assignment, got %d", assignmentID, env.Len())
	}
	id, err := assignmentIDDecoder.Decode(assignment)
	if err != nil {
		return nil, fmt.Errorf("moodle: assignment %d: %w", assignmentID, err)
	}
	if id != assignmentID {
		return nil, fmt.Errorf("moodle: asked for assignment %d, got %d", assignmentID, id)
	}
	grades, ok := assignment.Get("grades")
	if !ok || grades.Kind() != jsonval.Array {
		return nil, fmt.Errorf("moodle: assignment %d: %w", assignmentID, &record.MissingFieldError{Field: "grades"})
	}
	out, err := gradeDecoder.DecodeAll(grades.Elements())
	if err != nil {
		return nil, fmt.Errorf("moodle: assignment %d: %w", assignmentID, err)
	}
	return out, nil
}

// Grades returns the grade of the latest attempt of each graded user of one
// assignment, keyed by user id.
func (s *Site) Grades(ctx context.Context, assignmentID int) (map[int]float64, error) {
	all, err := s.ReadGrades(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	latest := make(map[int]ReadGrade, len(all))
	for _, g := range all {
		if prev, seen := latest[g.UserID]; !seen || g.AttemptNumber > prev.AttemptNumber {
			latest[g.UserID] = g
		}
	}
	out := make(map[int]float64, len(latest))
	for user, g := range latest {
		v, err := g.GradeValue()
		if err != nil {
			return nil, err
		}
		out[user] = v
	}
	return out, nil
}

// GradesByAttempt returns every grade of one assignment keyed by user id,
// then by attempt number.
func (s *Site) GradesByAttempt(ctx context.Context, assignmentID int) (map[int]map[int]float64, error) {
	all, err := s.ReadGrades(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	out := make(map[int]map[int]float64)
	for _, g := range all {
		v, err := g.GradeValue()
		if err != nil {
			return nil, err
		}
		attempts, ok := out[g.UserID]
		if !ok {
			attempts = make(map[int]float64)
			out[g.UserID] = attempts
		}
		if _, dup := attempts[g.AttemptNumber]; dup {
			return nil, fmt.Errorf("moodle: assignment %d: user %d has two grades for attempt %d", assignmentID, g.UserID, g.AttemptNumber)
		}
		attempts[g.AttemptNumber] = v
	}
	return out, nil
}
