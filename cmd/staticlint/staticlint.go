// Package staticlint is the multichecker run over this repository.
//
// It combines:
//
//	the diagnostic passes of golang.org/x/tools/go/analysis/passes;
//	every SA analyzer of staticcheck.io, plus the ST, S and QF checks listed in config.json;
//	bodyclose and errcheck;
//	osexitcheck and rawreplace, written for this repository.
//
// Build and run:
//
//	go build -o cmd/staticlint/staticlint ./cmd/staticlint
//	cmd/staticlint/staticlint ./...
//
// config.json is read from the directory of the binary:
//
//	{"Staticcheck": ["ST1005", "S1008"]}
//
// Without it only the SA class runs. A file that cannot be parsed stops the
// tool with a non-zero status.
//
// osexitcheck reports os.Exit called directly in main.main, where it skips
// deferred cleanup. rawreplace reports strings.Replace, strings.ReplaceAll,
// strings.NewReplacer and their bytes counterparts outside the packages allowed
// to rewrite stored values: a plain substitution on a PHP-serialized value
// leaves stale length prefixes.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/kisielk/errcheck/errcheck"
	"github.com/timakin/bodyclose/passes/bodyclose"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/appends"
	"golang.org/x/tools/go/analysis/passes/assign"
	"golang.org/x/tools/go/analysis/passes/atomic"
	"golang.org/x/tools/go/analysis/passes/atomicalign"
	"golang.org/x/tools/go/analysis/passes/bools"
	"golang.org/x/tools/go/analysis/passes/buildtag"
	"golang.org/x/tools/go/analysis/passes/cgocall"
	"golang.org/x/tools/go/analysis/passes/composite"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/deepequalerrors"
	"golang.org/x/tools/go/analysis/passes/defers"
	"golang.org/x/tools/go/analysis/passes/directive"
	"golang.org/x/tools/go/analysis/passes/errorsas"
	"golang.org/x/tools/go/analysis/passes/fieldalignment"
	"golang.org/x/tools/go/analysis/passes/httpresponse"
	"golang.org/x/tools/go/analysis/passes/ifaceassert"
	"golang.org/x/tools/go/analysis/passes/loopclosure"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/nilfunc"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/reflectvaluecompare"
	"golang.org/x/tools/go/analysis/passes/shadow"
	"golang.org/x/tools/go/analysis/passes/shift"
	"golang.org/x/tools/go/analysis/passes/sigchanyzer"
	"golang.org/x/tools/go/analysis/passes/slog"
	"golang.org/x/tools/go/analysis/passes/sortslice"
	"golang.org/x/tools/go/analysis/passes/stdmethods"
	"golang.org/x/tools/go/analysis/passes/stringintconv"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/testinggoroutine"
	"golang.org/x/tools/go/analysis/passes/tests"
	"golang.org/x/tools/go/analysis/passes/timeformat"
	"golang.org/x/tools/go/analysis/passes/unmarshal"
	"golang.org/x/tools/go/analysis/passes/unreachable"
	"golang.org/x/tools/go/analysis/passes/unsafeptr"
	"golang.org/x/tools/go/analysis/passes/unusedresult"
	"golang.org/x/tools/go/analysis/passes/waitgroup"
	"honnef.co/go/tools/analysis/lint"
	"honnef.co/go/tools/quickfix"
	"honnef.co/go/tools/simple"
	"honnef.co/go/tools/staticcheck"
	"honnef.co/go/tools/stylecheck"
)

// Config is the name of the configuration file that specifies which analyzers to enable.
const Config = `config.json`

// ConfigData lists the staticcheck.io checks enabled besides the SA class.
type ConfigData struct {
	Staticcheck []string
}

// mychecks is a slice of all analyzers that will be executed by multichecker.
var mychecks []*analysis.Analyzer

// appendChecks appends the SA analyzers and those named in checks.
func appendChecks(analyzers []*lint.Analyzer, checks map[string]bool) {
	for _, v := range analyzers {
		if strings.HasPrefix(v.Analyzer.Name, "SA") || checks[v.Analyzer.Name] {
			mychecks = append(mychecks, v.Analyzer)
		}
	}
}

// appendPassesChecks resets mychecks to the x/tools passes that report diagnostics.
func appendPassesChecks() {
	mychecks = []*analysis.Analyzer{
		appends.Analyzer,
		assign.Analyzer,
		atomic.Analyzer,
		atomicalign.Analyzer,
		bools.Analyzer,
		buildtag.Analyzer,
		cgocall.Analyzer,
		composite.Analyzer,
		copylock.Analyzer,
		deepequalerrors.Analyzer,
		defers.Analyzer,
		directive.Analyzer,
		errorsas.Analyzer,
		fieldalignment.Analyzer,
		httpresponse.Analyzer,
		ifaceassert.Analyzer,
		loopclosure.Analyzer,
		lostcancel.Analyzer,
		nilfunc.Analyzer,
		printf.Analyzer,
		reflectvaluecompare.Analyzer,
		shadow.Analyzer,
		shift.Analyzer,
		sigchanyzer.Analyzer,
		slog.Analyzer,
		sortslice.Analyzer,
		stdmethods.Analyzer,
		stringintconv.Analyzer,
		structtag.Analyzer,
		testinggoroutine.Analyzer,
		tests.Analyzer,
		timeformat.Analyzer,
		unmarshal.Analyzer,
		unreachable.Analyzer,
		unsafeptr.Analyzer,
		unusedresult.Analyzer,
		waitgroup.Analyzer,
	}
}

// appendStaticcheckIoChecks adds analyzers from staticcheck.io (which in config.json) to the list.
func appendStaticcheckIoChecks(checks map[string]bool) {
	appendChecks(staticcheck.Analyzers, checks)
	appendChecks(stylecheck.Analyzers, checks)
	appendChecks(simple.Analyzers, checks)
	appendChecks(quickfix.Analyzers, checks)
}

// appendOtherPublicChecks adds additional public analyzers.
func appendOtherPublicChecks() {
	mychecks = append(mychecks, bodyclose.Analyzer, errcheck.Analyzer)
}

// appendCustomChecks adds the analyzers written for this repository.
func appendCustomChecks() {
	mychecks = append(mychecks, OsExitCheckAnalyzer, RawReplaceAnalyzer)
}

// configPath returns the location of Config next to the running binary.
func configPath() (string, error) {
	appfile, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(appfile), Config), nil
}

// readConfig loads the staticcheck selection from path.
// A missing file selects only the SA class.
func readConfig(path string) (map[string]bool, error) {
	checks := make(map[string]bool)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return checks, nil
	}
	if err != nil {
		return nil, err
	}
	var cfg ConfigData
	if err = json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for _, v := range cfg.Staticcheck {
		checks[v] = true
	}
	return checks, nil
}

// main initializes the multichecker with the configured analyzers.
func main() {
	path, err := configPath()
	if err != nil {
		log.Fatalf("staticlint: %v", err)
	}
	checks, err := readConfig(path)
	if err != nil {
		log.Fatalf("staticlint: %v", err)
	}
	appendPassesChecks()
	appendStaticcheckIoChecks(checks)
	appendOtherPublicChecks()
	appendCustomChecks()

	multichecker.Main(
		mychecks...,
	)
}
