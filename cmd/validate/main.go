// Command validate checks a study configuration directory before a run:
// the YAML files parse, every field passes its range and ordering rules,
// configured providers exist and the study period can be served by the
// historical archives.
//
// Usage:
//
//	go run ./cmd/validate --config-dir config
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/couchcryptid/climate-comfort/internal/config"
	"github.com/couchcryptid/climate-comfort/internal/domain"
	"github.com/couchcryptid/climate-comfort/internal/source"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	_ = godotenv.Load()

	configDir := pflag.String("config-dir", envOr("CONFIG_DIR", "config"), "directory holding the study YAML files")
	pflag.Parse()

	os.Exit(run(*configDir, os.Stdout))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func run(dir string, out io.Writer) int {
	fmt.Fprintf(out, "=== Study Config Validation: %s ===\n\n", dir)

	parse := &phase{name: "Parse YAML files"}
	f, err := config.ParseStudy(dir)
	if err != nil {
		parse.errorf("%v", err)
		return report(out, []*phase{parse}, nil)
	}

	phases := []*phase{
		parse,
		validateFields(f),
		validateProviders(f, source.DefaultRegistry(nil)),
		validatePeriod(f),
	}
	return report(out, phases, f)
}

func validateFields(f *config.StudyFile) *phase {
	p := &phase{name: "Field ranges and ordering"}
	if err := f.Validate(); err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			p.errorf("%s", line)
		}
	}
	return p
}

func validateProviders(f *config.StudyFile, registry source.Registry) *phase {
	p := &phase{name: "Provider names"}
	lists := map[domain.SourceKind][]string{
		domain.KindAirRain:  f.Providers.AirRain,
		domain.KindSea:      f.Providers.Sea,
		domain.KindWindWave: f.Providers.WindWave,
	}
	for _, kind := range domain.Kinds {
		known := registry.Names(kind)
		for _, name := range lists[kind] {
			if _, ok := registry[kind][name]; !ok {
				p.errorf("%s: unknown provider %q (known: %s)", kind, name, strings.Join(known, ", "))
			}
		}
	}
	for _, name := range f.Providers.RainTotals {
		if _, ok := registry[domain.KindAirRain][name]; !ok {
			p.errorf("rain_totals: unknown provider %q (known: %s)", name, strings.Join(registry.Names(domain.KindAirRain), ", "))
		}
	}
	return p
}

func validatePeriod(f *config.StudyFile) *phase {
	p := &phase{name: "Study period"}
	// The marine archive does not reach further back than this.
	const firstMarineYear = 1940
	if f.Period.StartYear < firstMarineYear {
		p.errorf("start_year %d precedes %d", f.Period.StartYear, firstMarineYear)
	}
	if now := domain.Now(); f.Period.EndYear >= now.Year() {
		p.errorf("end_year %d is not a completed year (current year %d)", f.Period.EndYear, now.Year())
	}
	return p
}

func report(out io.Writer, phases []*phase, f *config.StudyFile) int {
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-32s %s\n", p.name, status)
	}

	if f != nil {
		fmt.Fprintf(out, "\nLocations: %d, period %d-%d\n", len(f.Locations), f.Period.StartYear, f.Period.EndYear)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}
