package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pmezard/go-difflib/difflib"
)

const GoldenUpdateEnv = `TESTUTIL_UPDATE_GOLDEN`

// TB is a interface that is a subset of the testing.TB interface and therefore
// every *testing.T struct can be used.
type TB interface {
	Error(args ...any)
	Errorf(format string, args ...any)
	Log(args ...any)
}

func assertGolden(t TB, filename string, data []byte) {
	if os.Getenv(GoldenUpdateEnv) != "" {
		err := os.MkdirAll(filepath.Dir(filename), os.FileMode(0755))
		if err != nil {
			t.Error(err)
			return
		}

		err = os.WriteFile(filename, data, os.FileMode(0644))
		if err != nil {
			t.Error(err)
			return
		}
	}

	golden, err := os.ReadFile(filename)
	if os.IsNotExist(err) {
		golden = []byte{}
	} else if err != nil {
		t.Error(err)
		return
	}

	udiff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(golden)),
		B:        difflib.SplitLines(string(data)),
		FromFile: filename,
		ToFile:   "Current",
		Context:  3,
		Eol:      "\n",
	})

	if err != nil {
		t.Error(err)
		return
	}

	if udiff != "" {
		t.Errorf("Generated file '%s' doesn't match golden file. Update it by setting the environment variable %s.", filename, GoldenUpdateEnv)
		t.Log(udiff)
	}
}

// AssertGolden tests, if the content of filename matches given data. On
// missmatch the test fails. When setting the TESTUTIL_UPDATE_GOLDEN
// environment variable, it will update the file which can be compared via a
// VCS diff.
func AssertGolden(t TB, filename string, data []byte) {
	assertGolden(t, filename, data)
}

// AssertGoldenJSON works like AssertGolden, but converts the data to JSON file.
func AssertGoldenJSON(t TB, filename string, data any) {
	generated, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		t.Error(err)
		return
	}

	generated = append(generated, '\n')

	AssertGolden(t, filename, generated)
}
