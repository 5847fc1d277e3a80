package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ggoodman/moodlews-go/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with fresh flag values and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	flagURL, flagToken, flagDumpDir, flagCache = "", "", "", ""
	flagVerbose, flagIgnoreWarnings = false, false
	flagOutput, flagParams = "json", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestParseParams(t *testing.T) {
	m, err := parseParams([]string{
		"field=shortname",
		"ids:=[1,2]",
		`grades:=[{"userid":3,"grade":1.5,"addattempt":true,"since":null}]`,
		"expr=a:=b",
	})
	require.NoError(t, err)

	flat, err := params.Encode(m)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"field", "ids[0]", "ids[1]",
		"grades[0][userid]", "grades[0][grade]", "grades[0][addattempt]",
		"expr",
	}, flat.Keys())

	v, _ := flat.Get("grades[0][addattempt]")
	assert.Equal(t, "1", v)
	v, _ = flat.Get("expr")
	assert.Equal(t, "a:=b", v)
}

func TestParseParams_Errors(t *testing.T) {
	for _, arg := range []string{"novalue", "=x", "bad:={"} {
		_, err := parseParams([]string{arg})
		assert.Error(t, err, arg)
	}
}

func TestEncodeCommand(t *testing.T) {
	out, err := execute(t, "encode", "assignmentid:=40", `grades:=[{"userid":73,"grade":15.5}]`)
	require.NoError(t, err)
	assert.Equal(t, "assignmentid=40\ngrades[0][userid]=73\ngrades[0][grade]=15.5\n", out)
}

func TestSchemaCommand(t *testing.T) {
	out, err := execute(t, "schema")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "object", doc["type"])
	assert.ElementsMatch(t, []any{"userid", "attemptnumber", "grade"}, doc["required"])
}

func newServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCallCommand(t *testing.T) {
	srv := newServer(t, `{"courses":[{"id":1,"shortname":"a"},{"id":2,"shortname":"b"}],"warnings":[]}`)
	out, err := execute(t, "call", "--url", srv.URL, "--token", "tok", "core_course_get_courses")
	require.NoError(t, err)
	assert.Equal(t, "{\"id\":1,\"shortname\":\"a\"}\n{\"id\":2,\"shortname\":\"b\"}\n", out)
}

func TestCallCommand_Warnings(t *testing.T) {
	srv := newServer(t, `{"courses":[],"warnings":[{"message":"w"}]}`)
	_, err := execute(t, "call", "--url", srv.URL, "--token", "tok", "core_course_get_courses")
	require.Error(t, err)

	_, err = execute(t, "call", "--url", srv.URL, "--token", "tok", "--ignore-warnings", "core_course_get_courses")
	require.NoError(t, err)
}

func TestGradesCommand(t *testing.T) {
	srv := newServer(t, `{"assignments":[{"assignmentid":40,"grades":[
		{"userid":80,"attemptnumber":0,"grade":"12.50000"},
		{"userid":73,"attemptnumber":0,"grade":"3.00000"}
	]}],"warnings":[]}`)
	out, err := execute(t, "grades", "--url", srv.URL, "--token", "tok", "40")
	require.NoError(t, err)
	assert.Equal(t, "73\t3\n80\t12.5\n", out)
}

func TestGradesCommand_BadID(t *testing.T) {
	_, err := execute(t, "grades", "--url", "http://x", "--token", "tok", "forty")
	assert.Error(t, err)
}

func TestUnknownCache(t *testing.T) {
	_, err := execute(t, "call", "--url", "http://x", "--token", "tok", "--cache", "memcached", "f")
	assert.ErrorContains(t, err, "unknown cache")
}

func TestCallCommand_YAML(t *testing.T) {
	srv := newServer(t, `{"courses":[{"shortname":"a","id":1,"visible":true,"fmt":{"x":1.5}}],"warnings":[]}`)
	out, err := execute(t, "call", "-o", "yaml", "--url", srv.URL, "--token", "tok", "core_course_get_courses")
	require.NoError(t, err)
	assert.Equal(t, "- shortname: a\n  id: 1\n  visible: true\n  fmt:\n    x: 1.5\n", out)
}

func TestInvalidOutputFormat(t *testing.T) {
	_, err := execute(t, "encode", "-o", "xml", "a=b")
	assert.ErrorContains(t, err, "invalid output format")
}

func TestEncodeCommand_ParamsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grades.jsonc")
	content := `{
		// saved by hand
		"assignmentid": 40,
		"applytoall": false,
		"grades": [
			{"userid": 73, "grade": 15.5, "plugindata": {"assignfeedbackcomments_editor": {"text": "ok", "format": 1}}},
		],
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	out, err := execute(t, "encode", "--params-file", path, "extra=1")
	require.NoError(t, err)
	assert.Equal(t, "assignmentid=40\n"+
		"applytoall=0\n"+
		"grades[0][userid]=73\n"+
		"grades[0][grade]=15.5\n"+
		"grades[0][plugindata][assignfeedbackcomments_editor][text]=ok\n"+
		"grades[0][plugindata][assignfeedbackcomments_editor][format]=1\n"+
		"extra=1\n", out)
}

func TestEncodeCommand_ParamsFileNotObject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.json")
	require.NoError(t, os.WriteFile(path, []byte(`[1,2]`), 0o644))
	_, err := execute(t, "encode", "--params-file", path)
	assert.ErrorContains(t, err, "must be an object")
}
