package moodle

import (
	"context"
	"fmt"

	"github.com/ggoodman/moodlews-go/jsonval"
	"github.com/ggoodman/moodlews-go/record"
)

// UserGradeFeedback is the grade and feedback of one user on one assignment,
// as shown in the user grade report.
type UserGradeFeedback struct {
	UserID         int
	UserFullName   string
	AssignmentID   int
	AssignmentName string
	Grade          float64
	Feedback       Feedback
}

type reportUser struct {
	id       int
	fullName string
}

var reportUserDecoder = record.NewDecoder(
	record.NewSchema().Int("userid").String("userfullname"),
	func(r record.Record) reportUser { return reportUser{id: int(r.Int(0)), fullName: r.String(1)} },
)

var itemTypeDecoder = record.NewDecoder(record.NewSchema().String("itemtype"), func(r record.Record) string {
	return r.String(0)
})

type assignItem struct {
	instance       int
	name           string
	grade          float64
	feedback       string
	feedbackFormat int
}

var assignItemDecoder = record.NewDecoder(
	record.NewSchema().
		Int("iteminstance").
		String("itemname").
		Float("graderaw").
		String("feedback").
		Int("feedbackformat"),
	func(r record.Record) assignItem {
		return assignItem{
			instance:       int(r.Int(0)),
			name:           r.String(1),
			grade:          r.Float(2),
			feedback:       r.String(3),
			feedbackFormat: int(r.Int(4)),
		}
	},
)

// GradesByAssignment reads the grade report of a course and returns the
// graded assignment items keyed by user id, then by assignment id. Items of
// other modules and items without a grade are left out.
func (s *Site) GradesByAssignment(ctx context.Context, courseID int) (map[int]map[int]UserGradeFeedback, error) {
	env, err := s.GradeItems(ctx, courseID, nil, nil)
	if err != nil {
		return nil, err
	}
	out := make(map[int]map[int]UserGradeFeedback)
	for _, ug := range env.Elements {
		user, err := reportUserDecoder.Decode(ug)
		if err != nil {
			return nil, fmt.Errorf("moodle: course %d: %w", courseID, err)
		}
		items, ok := ug.Get("gradeitems")
		if !ok || items.Kind() != jsonval.Array {
			return nil, fmt.Errorf("moodle: course %d: user %d: %w", courseID, user.id, &record.MissingFieldError{Field: "gradeitems"})
		}
		for i, item := range items.Elements() {
			g, ok, err := assignGrade(item)
			if err != nil {
				return nil, fmt.Errorf("moodle: course %d: user %d: item %d: %w", courseID, user.id, i, err)
			}
			if !ok {
				continue
			}
			byAssignment, seen := out[user.id]
			if !seen {
				byAssignment = make(map[int]UserGradeFeedback)
				out[user.id] = byAssignment
			}
			g.UserID = user.id
			g.UserFullName = user.fullName
			byAssignment[g.AssignmentID] = g
		}
	}
	return out, nil
}

// assignGrade decodes a grade item. ok is false for items that are not a
// graded assignment.
func assignGrade(item jsonval.Value) (UserGradeFeedback, bool, error) {
	typ, err := itemTypeDecoder.Decode(item)
	if err != nil {
		return UserGradeFeedback{}, false, err
	}
	if typ != "mod" {
		return UserGradeFeedback{}, false, nil
	}
	module, _ := item.Get("itemmodule")
	if name, _ := module.AsString(); name != "assign" {
		return UserGradeFeedback{}, false, nil
	}
	if raw, ok := item.Get("graderaw"); !ok || raw.IsNull() {
		return UserGradeFeedback{}, false, nil
	}
	a, err := assignItemDecoder.Decode(item)
	if err != nil {
		return UserGradeFeedback{}, false, err
	}
	format, err := ParseFormat(a.feedbackFormat)
	if err != nil {
		return UserGradeFeedback{}, false, err
	}
	return UserGradeFeedback{
		AssignmentID:   a.instance,
		AssignmentName: a.name,
		Grade:          a.grade,
		Feedback:       Feedback{Text: a.feedback, Format: format},
	}, true, nil
}
