package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/analysis/analysistest"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"honnef.co/go/tools/quickfix"
	"honnef.co/go/tools/simple"
	"honnef.co/go/tools/staticcheck"
	"honnef.co/go/tools/stylecheck"
)

func TestOsExitCheckAnalyzer(t *testing.T) {
	// функция analysistest.Run применяет тестируемый анализатор
	// к пакетам из папки testdata/src и проверяет ожидания
	analysistest.Run(t, analysistest.TestData(), OsExitCheckAnalyzer, "osexit")
}

func TestRawReplaceAnalyzer(t *testing.T) {
	analysistest.Run(t, analysistest.TestData(), RawReplaceAnalyzer, "rawreplace", "example.com/internal/relocate")
}

func TestReplaceAllowed(t *testing.T) {
	assert.True(t, replaceAllowed("relocate/internal/relocate"))
	assert.True(t, replaceAllowed("relocate/internal/phpserial"))
	assert.False(t, replaceAllowed("relocate/internal/handlers"))
	assert.False(t, replaceAllowed("relocate/internal/relocatex"))
}

func TestCopylock(t *testing.T) {
	analysistest.Run(t, analysistest.TestData(), copylock.Analyzer, "copylock")
}

func TestAppendChecks(t *testing.T) {
	checks := map[string]bool{
		"ST1005": true,
		"S1008":  true,
	}
	mychecks = nil
	appendChecks(stylecheck.Analyzers, checks)
	appendChecks(simple.Analyzers, checks)
	appendChecks(quickfix.Analyzers, checks)
	assert.Len(t, mychecks, 2)

	mychecks = nil
	appendChecks(staticcheck.Analyzers, nil)
	assert.NotEmpty(t, mychecks)
}

func TestAppendAll(t *testing.T) {
	appendPassesChecks()
	appendStaticcheckIoChecks(map[string]bool{"ST1005": true})
	appendOtherPublicChecks()
	appendCustomChecks()

	names := make(map[string]bool, len(mychecks))
	for _, a := range mychecks {
		names[a.Name] = true
	}
	for _, name := range []string{"copylock", "SA4006", "ST1005", "bodyclose", "errcheck", "osexitcheck", "rawreplace"} {
		assert.True(t, names[name], name)
	}
	for _, name := range []string{"buildssa", "findcall", "inspect"} {
		assert.False(t, names[name], name)
	}
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("Missing file", func(t *testing.T) {
		checks, err := readConfig(filepath.Join(dir, "absent.json"))
		require.NoError(t, err)
		assert.Empty(t, checks)
	})

	t.Run("Selected checks", func(t *testing.T) {
		path := filepath.Join(dir, "ok.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"Staticcheck": ["ST1005", "S1008"]}`), 0o600))
		checks, err := readConfig(path)
		require.NoError(t, err)
		assert.Equal(t, map[string]bool{"ST1005": true, "S1008": true}, checks)
	})

	t.Run("Broken file", func(t *testing.T) {
		path := filepath.Join(dir, "broken.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"Staticcheck": [`), 0o600))
		_, err := readConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broken.json")
	})

	t.Run("Shipped config parses", func(t *testing.T) {
		checks, err := readConfig(Config)
		require.NoError(t, err)
		assert.True(t, checks["ST1005"])
	})
}
