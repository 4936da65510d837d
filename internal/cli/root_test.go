package cli

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tidwall/gjson"
)

func censusServer(t *testing.T) *httptest.Server {
	t.Helper()
	var b strings.Builder
	b.WriteString("age, education, marital-status, hours-per-week, income\n")
	educations := []string{"Bachelors", "HS-grad", "Masters", "10th"}
	for i := 0; i < 400; i++ {
		edu := educations[i%len(educations)]
		hours := 20 + (i*13)%45
		income := "<=50K"
		if (edu == "Bachelors" || edu == "Masters") && hours >= 40 {
			income = ">50K"
		}
		status := "Never-married"
		if i%3 == 0 {
			status = "Married-civ-spouse"
		}
		fmt.Fprintf(&b, "%d, %s, %s, %d, %s\n", 25+i%40, edu, status, hours, income)
	}
	body := b.String()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestTrainThenScore(t *testing.T) {
	srv := censusServer(t)
	dir := t.TempDir()
	common := []string{
		"--env-file", filepath.Join(dir, "missing.env"),
		"--log-level", "warn",
	}
	outputs := filepath.Join(dir, "outputs")

	args := append([]string{"0.5",
		"--data", filepath.Join(dir, "AdultCensusIncome.csv"),
		"--data-url", srv.URL,
		"--outputs", outputs,
	}, common...)
	out, logs, err := execute(t, "", args...)
	if err != nil {
		t.Fatalf("train: %v\nlogs: %s", err, logs)
	}
	if !strings.Contains(out, "Regularization Rate is 0.5.") {
		t.Errorf("missing regularization line:\n%s", out)
	}
	for _, name := range []string{"roc.png", "service_schema.json", filepath.Join("AdultCensus.mml", "metadata.json")} {
		if _, err := os.Stat(filepath.Join(outputs, name)); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}

	scoreArgs := append([]string{"score", "--model", filepath.Join(outputs, "AdultCensus.mml")}, common...)
	out, logs, err = execute(t, `[{"education": "10th", "marital-status": "Married-civ-spouse", "hours-per-week": 35.0}]`, scoreArgs...)
	if err != nil {
		t.Fatalf("score: %v\nlogs: %s", err, logs)
	}
	res := gjson.Parse(strings.TrimSpace(out))
	if n := len(res.Array()); n != 1 {
		t.Fatalf("got %d results: %s", n, out)
	}
	if p := res.Get("0.probability").Float(); p <= 0 || p >= 1 {
		t.Errorf("probability = %v", p)
	}
}

func TestRootArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"non numeric", []string{"abc"}},
		{"negative", []string{"-0.5"}},
		{"too many", []string{"0.1", "0.2"}},
		{"bad log level", []string{"--log-level", "loud"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--env-file", filepath.Join(t.TempDir(), "none"), "--data", filepath.Join(t.TempDir(), "absent.csv"), "--data-url", "http://127.0.0.1:1/x"}, tt.args...)
			if _, _, err := execute(t, "", args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestScoreMissingModel(t *testing.T) {
	_, _, err := execute(t, `[]`, "score", "--model", filepath.Join(t.TempDir(), "none"), "--env-file", filepath.Join(t.TempDir(), "none"))
	if err == nil {
		t.Fatal("expected error")
	}
}
