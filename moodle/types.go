package moodle

import (
	"fmt"

	"github.com/ggoodman/moodlews-go/params"
)

// Format is a Moodle text format code.
type Format int

const (
	FormatMoodle   Format = 0
	FormatHTML     Format = 1
	FormatPlain    Format = 2
	FormatMarkdown Format = 4
)

// Code implements params.Coder.
func (f Format) Code() int { return int(f) }

func (f Format) String() string {
	switch f {
	case FormatMoodle:
		return "moodle"
	case FormatHTML:
		return "html"
	case FormatPlain:
		return "plain"
	case FormatMarkdown:
		return "markdown"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// ParseFormat maps a numeric code received from the server to a Format.
func ParseFormat(code int) (Format, error) {
	switch f := Format(code); f {
	case FormatMoodle, FormatHTML, FormatPlain, FormatMarkdown:
		return f, nil
	default:
		return 0, fmt.Errorf("moodle: unknown text format %d", code)
	}
}

// Feedback is a feedback comment attached to a grade.
type Feedback struct {
	Text   string
	Format Format
}

func HTMLFeedback(text string) Feedback     { return Feedback{Text: text, Format: FormatHTML} }
func MoodleFeedback(text string) Feedback   { return Feedback{Text: text, Format: FormatMoodle} }
func PlainFeedback(text string) Feedback    { return Feedback{Text: text, Format: FormatPlain} }
func MarkdownFeedback(text string) Feedback { return Feedback{Text: text, Format: FormatMarkdown} }

func (f Feedback) Fields() []params.Field {
	return []params.Field{
		{Name: "text", Value: params.String(f.Text)},
		{Name: "format", Value: params.Enum(f.Format)},
	}
}

// GradePluginData carries the grading plugin inputs of a saved grade. It is
// not the same structure as submission plugin data.
type GradePluginData struct {
	Comments *Feedback // assignfeedbackcomments_editor
	FileArea *int      // files_filemanager draft area id
}

func (d GradePluginData) Fields() []params.Field {
	comments := params.None()
	if d.Comments != nil {
		comments = params.Some(params.Record(*d.Comments))
	}
	return []params.Field{
		{Name: "assignfeedbackcomments_editor", Value: comments},
		{Name: "files_filemanager", Value: params.OptionalInt(d.FileArea)},
	}
}

// RubricFilling selects a level of one rubric criterion.
type RubricFilling struct {
	CriterionID  int
	LevelID      *int
	Remark       string
	RemarkFormat *Format
}

func (r RubricFilling) Fields() []params.Field {
	remark := params.None()
	if r.Remark != "" {
		remark = params.Some(params.String(r.Remark))
	}
	remarkFormat := params.None()
	if r.RemarkFormat != nil {
		remarkFormat = params.Some(params.Enum(*r.RemarkFormat))
	}
	return []params.Field{
		{Name: "criterionid", Value: params.Int(r.CriterionID)},
		{Name: "levelid", Value: params.OptionalInt(r.LevelID)},
		{Name: "remark", Value: remark},
		{Name: "remarkformat", Value: remarkFormat},
	}
}

// RubricCriterion groups the fillings of one criterion.
type RubricCriterion struct {
	CriterionID int
	Fillings    []RubricFilling
}

func (c RubricCriterion) Fields() []params.Field {
	return []params.Field{
		{Name: "criterionid", Value: params.Int(c.CriterionID)},
		{Name: "fillings", Value: params.Records(c.Fillings...)},
	}
}

// AdvancedGradingData is the advanced grading form input of a saved grade.
// Only rubrics are supported.
type AdvancedGradingData struct {
	Rubric []RubricCriterion
}

func (a AdvancedGradingData) Fields() []params.Field {
	return []params.Field{
		{Name: "rubric", Value: params.Struct{
			{Name: "criteria", Value: params.Records(a.Rubric...)},
		}},
	}
}

// WorkflowGraded is the marking workflow state of a released grade.
const WorkflowGraded = "graded"

// LatestAttempt designates the latest attempt of a user.
const LatestAttempt = -1

// SaveGrade is one entry of a save grades request.
type SaveGrade struct {
	UserID        int
	Grade         float64
	AttemptNumber int
	AddAttempt    bool
	WorkflowState string
	PluginData    *GradePluginData
	Advanced      *AdvancedGradingData
}

// OverwriteOrAdd grades attemptNumber, creating the attempt when it does not
// exist. Attempts are 0-based; the web interface shows attempt n as n+1.
func OverwriteOrAdd(userID int, grade float64, attemptNumber int) SaveGrade {
	return SaveGrade{
		UserID:        userID,
		Grade:         grade,
		AttemptNumber: attemptNumber,
		AddAttempt:    true,
		WorkflowState: WorkflowGraded,
	}
}

// OverwriteLatestOrSet sets the grade when the user has none and overwrites
// the latest one otherwise.
func OverwriteLatestOrSet(userID int, grade float64) SaveGrade {
	return OverwriteOrAdd(userID, grade, LatestAttempt)
}

// WithFeedback returns a copy of g carrying feedback as its only plugin data.
// Advanced grading data is dropped.
func (g SaveGrade) WithFeedback(feedback Feedback) SaveGrade {
	g.PluginData = &GradePluginData{Comments: &feedback}
	g.Advanced = nil
	return g
}

func (g SaveGrade) Fields() []params.Field {
	plugin := params.None()
	if g.PluginData != nil {
		plugin = params.Some(params.Record(*g.PluginData))
	}
	advanced := params.None()
	if g.Advanced != nil {
		advanced = params.Some(params.Record(*g.Advanced))
	}
	return []params.Field{
		{Name: "userid", Value: params.Int(g.UserID)},
		{Name: "grade", Value: params.Float(g.Grade)},
		{Name: "attemptnumber", Value: params.Int(g.AttemptNumber)},
		{Name: "addattempt", Value: params.Bool(g.AddAttempt)},
		{Name: "workflowstate", Value: params.String(g.WorkflowState)},
		{Name: "plugindata", Value: plugin},
		{Name: "advancedgradingdata", Value: advanced},
	}
}
