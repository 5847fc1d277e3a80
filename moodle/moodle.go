// Package moodle wraps a handful of Moodle web-service functions: course and
// assignment lookup, grade reading and grade saving. Each wrapper names its
// parameters, delegates the call to a Caller and, for the higher-level
// helpers, decodes the answer elements into typed records.
package moodle

import (
	"context"
	"fmt"
	"time"

	"github.com/ggoodman/moodlews-go/client"
	"github.com/ggoodman/moodlews-go/envelope"
	"github.com/ggoodman/moodlews-go/jsonval"
	"github.com/ggoodman/moodlews-go/params"
	"github.com/ggoodman/moodlews-go/record"
)

// Web-service function names.
const (
	FuncPluginsSupportingMobile = "tool_mobile_get_plugins_supporting_mobile"
	FuncCourseModule            = "core_course_get_course_module"
	FuncCoursesByField          = "core_course_get_courses_by_field"
	FuncCourses                 = "core_course_get_courses"
	FuncAssignments             = "mod_assign_get_assignments"
	FuncGradableUsers           = "core_grades_get_gradable_users"
	FuncSubmissions             = "mod_assign_get_submissions"
	FuncGradeItems              = "gradereport_user_get_grade_items"
	FuncGrades                  = "mod_assign_get_grades"
	FuncSaveGrade               = "mod_assign_save_grade"
	FuncSaveGrades              = "mod_assign_save_grades"
)

// gradeReaders are the functions whose cached answers a grade save makes
// stale.
var gradeReaders = []string{FuncGrades, FuncSubmissions, FuncGradeItems}

// Caller performs web-service calls. *client.Client implements it.
type Caller interface {
	Call(ctx context.Context, function string, p params.Map, opts ...client.CallOption) (*envelope.Envelope, error)
	CallVoid(ctx context.Context, function string, p params.Map, opts ...client.CallOption) error
	CallRaw(ctx context.Context, function string, p params.Map) ([]byte, error)
}

// Site exposes the wrapped functions of one Moodle site.
type Site struct {
	c Caller
}

// New returns a Site calling through c.
func New(c Caller) *Site {
	return &Site{c: c}
}

// PluginsSupportingMobile lists the plugins offering mobile support.
func (s *Site) PluginsSupportingMobile(ctx context.Context) (*envelope.Envelope, error) {
	return s.c.Call(ctx, FuncPluginsSupportingMobile, nil)
}

// CourseModule returns the course module object identified by cmid.
//
// The function answers {"cm": {...}, "warnings": [...]}, whose data member is
// an object rather than an array, so the envelope is checked here.
func (s *Site) CourseModule(ctx context.Context, cmid int) (jsonval.Value, error) {
	body, err := s.c.CallRaw(ctx, FuncCourseModule, params.Map{}.Add("cmid", params.Int(cmid)))
	if err != nil {
		return jsonval.Value{}, err
	}
	root, err := jsonval.Parse(body)
	if err != nil {
		return jsonval.Value{}, fmt.Errorf("moodle: %s: %w", FuncCourseModule, err)
	}
	if w, ok := root.Get(envelope.WarningsKey); ok && w.Len() > 0 {
		return jsonval.Value{}, &envelope.WarningsError{Warnings: w}
	}
	cm, ok := root.Get("cm")
	if !ok || cm.Kind() != jsonval.Object {
		return jsonval.Value{}, &envelope.MalformedError{Reason: "missing cm object", Body: root}
	}
	return cm, nil
}

// CoursesByField returns the courses whose field (id, ids, shortname,
// idnumber, category) equals value.
func (s *Site) CoursesByField(ctx context.Context, field, value string) (*envelope.Envelope, error) {
	p := params.Map{}.
		Add("field", params.String(field)).
		Add("value", params.String(value))
	return s.c.Call(ctx, FuncCoursesByField, p)
}

// idDecoder reads the "id" member shared by courses and assignments.
var idDecoder = record.NewDecoder(record.NewSchema().Int("id"), func(r record.Record) int {
	return int(r.Int(0))
})

// CourseID resolves a course short name to its id. Exactly one course must
// match.
func (s *Site) CourseID(ctx context.Context, shortname string) (int, error) {
	env, err := s.CoursesByField(ctx, "shortname", shortname)
	if err != nil {
		return 0, err
	}
	course, ok := env.Only()
	if !ok {
		return 0, fmt.Errorf("moodle: course %q: expected one match, got %d", shortname, env.Len())
	}
	return idDecoder.Decode(course)
}

// Courses returns the courses with the given ids, or every course except the
// front page when ids is empty.
func (s *Site) Courses(ctx context.Context, ids ...int) (*envelope.Envelope, error) {
	return s.c.Call(ctx, FuncCourses, params.Map{}.Add("ids", params.Ints(ids...)))
}

// Assignments returns the courses, each with its assignments. A nil
// includeNotEnrolled leaves the server default.
func (s *Site) Assignments(ctx context.Context, courseIDs []int, capabilities []string, includeNotEnrolled *bool) (*envelope.Envelope, error) {
	p := params.Map{}.
		Add("courseids", params.Ints(courseIDs...)).
		Add("capabilities", params.Strings(capabilities...)).
		Add("includenotenrolledcourses", params.OptionalBool(includeNotEnrolled))
	return s.c.Call(ctx, FuncAssignments, p)
}

// AssignmentIDs returns the ids of the assignments of one course.
func (s *Site) AssignmentIDs(ctx context.Context, courseID int) ([]int, error) {
	env, err := s.Assignments(ctx, []int{courseID}, nil, nil)
	if err != nil {
		return nil, err
	}
	course, ok := env.Only()
	if !ok {
		return nil, fmt.Errorf("moodle: course %d: expected one course, got %d", courseID, env.Len())
	}
	id, err := idDecoder.Decode(course)
	if err != nil {
		return nil, fmt.Errorf("moodle: course %d: %w", courseID, err)
	}
	if id != courseID {
		return nil, fmt.Errorf("moodle: asked for course %d, got %d", courseID, id)
	}
	assignments, ok := course.Get("assignments")
	if !ok || assignments.Kind() != jsonval.Array {
		return nil, fmt.Errorf("moodle: course %d: %w", courseID, &record.MissingFieldError{Field: "assignments"})
	}
	return idDecoder.DecodeAll(assignments.Elements())
}

// GradableUsers lists the users that can be graded in a course.
func (s *Site) GradableUsers(ctx context.Context, courseID int, groupID *int, onlyActive *bool) (*envelope.Envelope, error) {
	p := params.Map{}.
		Add("courseid", params.Int(courseID)).
		Add("groupid", params.OptionalInt(groupID)).
		Add("onlyactive", params.OptionalBool(onlyActive))
	return s.c.Call(ctx, FuncGradableUsers, p)
}

// Submissions returns the submissions of the given assignments. An empty
// status matches every status.
func (s *Site) Submissions(ctx context.Context, assignmentIDs []int, status string, since, before *time.Time) (*envelope.Envelope, error) {
	p := params.Map{}.
		Add("assignmentids", params.Ints(assignmentIDs...)).
		Add("status", params.String(status)).
		Add("since", params.OptionalTime(since)).
		Add("before", params.OptionalTime(before))
	return s.c.Call(ctx, FuncSubmissions, p)
}

// GradeItems returns the grade items of a course, optionally narrowed to one
// user or group.
func (s *Site) GradeItems(ctx context.Context, courseID int, userID, groupID *int) (*envelope.Envelope, error) {
	p := params.Map{}.
		Add("courseid", params.Int(courseID)).
		Add("userid", params.OptionalInt(userID)).
		Add("groupid", params.OptionalInt(groupID))
	return s.c.Call(ctx, FuncGradeItems, p)
}

// AssignGrades returns the raw grades of the given assignments.
func (s *Site) AssignGrades(ctx context.Context, assignmentIDs []int, since *time.Time) (*envelope.Envelope, error) {
	p := params.Map{}.
		Add("assignmentids", params.Ints(assignmentIDs...)).
		Add("since", params.OptionalTime(since))
	return s.c.Call(ctx, FuncGrades, p)
}

// SaveGrade saves the grade of one user.
func (s *Site) SaveGrade(ctx context.Context, assignmentID int, g SaveGrade, applyToAll bool) error {
	p := params.Map{}.
		Add("assignmentid", params.Int(assignmentID)).
		Add("userid", params.Int(g.UserID)).
		Add("grade", params.Float(g.Grade)).
		Add("attemptnumber", params.Int(g.AttemptNumber)).
		Add("addattempt", params.Bool(g.AddAttempt)).
		Add("workflowstate", params.String(g.WorkflowState)).
		Add("applytoall", params.Bool(applyToAll))
	if g.PluginData != nil {
		p = p.Add("plugindata", params.Record(*g.PluginData))
	}
	if g.Advanced != nil {
		p = p.Add("advancedgradingdata", params.Record(*g.Advanced))
	}
	return s.c.CallVoid(ctx, FuncSaveGrade, p, client.Invalidates(gradeReaders...))
}

// SaveGrades saves several grades of one assignment in a single call.
func (s *Site) SaveGrades(ctx context.Context, assignmentID int, applyToAll bool, grades ...SaveGrade) error {
	p := params.Map{}.
		Add("assignmentid", params.Int(assignmentID)).
		Add("applytoall", params.Bool(applyToAll)).
		Add("grades", params.Records(grades...))
	return s.c.CallVoid(ctx, FuncSaveGrades, p, client.Invalidates(gradeReaders...))
}
