// # cmd/refract/app.go
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gobwas/glob"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"refract/internal/core/config"
	"refract/internal/data/mapstore"
	"refract/internal/mapping"
	"refract/internal/refmap"
	"refract/internal/remapper"
	"refract/internal/shared/observability"
	"refract/internal/watcher"
)

// App wires the configured mapping chain and refmap engines and runs
// batch remaps over them. Engines and chain are rebuilt wholesale when
// a source file changes; a build is immutable while in use.
type App struct {
	cfg *config.Config

	include []glob.Glob
	exclude []glob.Glob

	mu      sync.Mutex
	chain   remapper.Chain
	engines []engine
	store   *mapstore.Store

	watcher       *watcher.Watcher
	metricsServer *http.Server
	teaProgram    *tea.Program
	onRebuild     func(Report)
}

type engine struct {
	name   string
	base   *refmap.ReferenceMap
	mapper refmap.Mapper
}

// Report summarizes one batch run.
type Report struct {
	RunID      string         `json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	DurationMS int64          `json:"duration_ms"`
	RefMaps    []RefMapReport `json:"refmaps"`
}

type RefMapReport struct {
	Name       string `json:"name"`
	Resource   string `json:"resource"`
	Status     string `json:"status"`
	Default    bool   `json:"default"`
	Classes    int    `json:"classes"`
	References int    `json:"references"`
	Skipped    int    `json:"skipped_classes"`
	OutputPath string `json:"output_path,omitempty"`
}

// RemapEntry is one reference with its resolved form, for inspection.
type RemapEntry struct {
	RefMap    string
	Context   string
	ClassName string
	Raw       string
	Remapped  string
}

func NewApp(cfg *config.Config) (*App, error) {
	app := &App{cfg: cfg}

	for _, pattern := range cfg.Filters.Include {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile include pattern %q: %w", pattern, err)
		}
		app.include = append(app.include, g)
	}
	for _, pattern := range cfg.Filters.Exclude {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile exclude pattern %q: %w", pattern, err)
		}
		app.exclude = append(app.exclude, g)
	}

	if err := app.build(); err != nil {
		return nil, err
	}
	return app, nil
}

// build constructs the remapper chain and one engine per configured
// refmap. Called at startup and again after every watched change.
func (a *App) build() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	chain := make(remapper.Chain, 0, len(a.cfg.Mappings))

	if a.cfg.DB.Enabled {
		if a.store == nil {
			store, err := mapstore.Open(a.cfg.DB.Path, a.cfg.DB.ProjectKey, int(a.cfg.DB.BusyTimeout/time.Millisecond))
			if err != nil {
				return fmt.Errorf("open mapping store: %w", err)
			}
			a.store = store
		}
		// The store holds one merged mapping set; reimport keeps it in
		// step with the files on disk.
		merged, err := a.mergedTable()
		if err != nil {
			return err
		}
		if err := a.store.ImportTable(merged); err != nil {
			return fmt.Errorf("import mapping tables: %w", err)
		}
		chain = append(chain, remapper.NewLookupRemapper(a.cfg.DB.Path, a.store))
	} else {
		for _, path := range a.cfg.Mappings {
			chain = append(chain, remapper.NewFileRemapper(path))
		}
	}

	engines := make([]engine, 0, len(a.cfg.RefMaps))
	for _, entry := range a.cfg.RefMaps {
		base := refmap.ReadReferenceMap(entry.Path)
		base.SetContext(entry.Context)
		engines = append(engines, engine{
			name:   entry.Name,
			base:   base,
			mapper: refmap.NewRemappingMapper(base, chain),
		})
	}

	a.chain = chain
	a.engines = engines
	return nil
}

// mergedTable loads every configured SRG file into one table. Later
// files win on key collisions, matching the chain order of the
// file-backed path.
func (a *App) mergedTable() (*mapping.Table, error) {
	merged := mapping.NewTable()
	for _, path := range a.cfg.Mappings {
		table, err := mapping.LoadSRGFile(path)
		if err != nil {
			return nil, fmt.Errorf("load mapping file %q: %w", path, err)
		}
		table.EachType(merged.AddType)
		table.EachField(merged.AddField)
		table.EachMethod(merged.AddMethod)
	}
	return merged, nil
}

// Run remaps every configured refmap and writes the results plus a run
// report into the output directory.
func (a *App) Run() (Report, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	timer := time.Now()
	report := Report{
		RunID:     uuid.NewString(),
		StartedAt: timer.UTC(),
	}

	if err := os.MkdirAll(a.cfg.Paths.OutputDir, 0o755); err != nil {
		return report, fmt.Errorf("create output directory: %w", err)
	}

	for _, eng := range a.engines {
		refReport, err := a.runOne(eng)
		if err != nil {
			return report, err
		}
		report.RefMaps = append(report.RefMaps, refReport)
	}

	report.DurationMS = time.Since(timer).Milliseconds()
	observability.BatchRunDuration.Observe(time.Since(timer).Seconds())

	reportPath := filepath.Join(a.cfg.Paths.OutputDir, "report.json")
	if err := writeJSON(reportPath, report); err != nil {
		return report, err
	}

	slog.Info("batch run complete",
		"run_id", report.RunID,
		"refmaps", len(report.RefMaps),
		"duration_ms", report.DurationMS)
	return report, nil
}

func (a *App) runOne(eng engine) (RefMapReport, error) {
	refReport := RefMapReport{
		Name:     eng.name,
		Resource: eng.base.ResourceName(),
		Status:   eng.base.Status(),
		Default:  eng.base.IsDefault(),
	}

	out := remappedDocument{
		Mappings: make(map[string]map[string]string),
		Data:     make(map[string]map[string]map[string]string),
	}

	contexts := append([]string{""}, eng.base.Contexts()...)
	for _, context := range contexts {
		classMappings := make(map[string]map[string]string)
		for _, className := range eng.base.ClassNames(context) {
			refs := make(map[string]string)
			if a.classIncluded(className) {
				for _, raw := range eng.base.References(context, className) {
					refs[raw] = eng.mapper.RemapWithContext(context, className, raw)
					refReport.References++
				}
				refReport.Classes++
			} else {
				// Excluded scopes keep their original entries, without
				// any chain remapping.
				for _, raw := range eng.base.References(context, className) {
					refs[raw] = eng.base.RemapWithContext(context, className, raw)
				}
				refReport.Skipped++
			}
			classMappings[className] = refs
		}
		if context == "" {
			out.Mappings = classMappings
		} else if len(classMappings) > 0 {
			out.Data[context] = classMappings
		}
	}

	observability.ReferencesProcessed.WithLabelValues(eng.name).Add(float64(refReport.References))

	if eng.base.IsDefault() {
		// Nothing to write for a resource that never loaded.
		return refReport, nil
	}

	outPath := filepath.Join(a.cfg.Paths.OutputDir, eng.name+".remapped.json")
	if err := writeJSON(outPath, out); err != nil {
		return refReport, err
	}
	refReport.OutputPath = outPath
	return refReport, nil
}

func (a *App) classIncluded(className string) bool {
	for _, g := range a.exclude {
		if g.Match(className) {
			return false
		}
	}
	if len(a.include) == 0 {
		return true
	}
	for _, g := range a.include {
		if g.Match(className) {
			return true
		}
	}
	return false
}

// Entries lists every reference with its remapped form, sorted, for
// the inspect UI.
func (a *App) Entries() []RemapEntry {
	a.mu.Lock()
	defer a.mu.Unlock()

	var entries []RemapEntry
	for _, eng := range a.engines {
		contexts := append([]string{""}, eng.base.Contexts()...)
		for _, context := range contexts {
			for _, className := range eng.base.ClassNames(context) {
				if !a.classIncluded(className) {
					continue
				}
				for _, raw := range eng.base.References(context, className) {
					entries = append(entries, RemapEntry{
						RefMap:    eng.name,
						Context:   context,
						ClassName: className,
						Raw:       raw,
						Remapped:  eng.mapper.RemapWithContext(context, className, raw),
					})
				}
			}
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].RefMap != entries[j].RefMap {
			return entries[i].RefMap < entries[j].RefMap
		}
		if entries[i].ClassName != entries[j].ClassName {
			return entries[i].ClassName < entries[j].ClassName
		}
		return entries[i].Raw < entries[j].Raw
	})
	return entries
}

// StartWatcher begins watching the refmap and mapping files and re-runs
// the batch pipeline on change.
func (a *App) StartWatcher() error {
	files := make([]string, 0, len(a.cfg.RefMaps)+len(a.cfg.Mappings))
	for _, entry := range a.cfg.RefMaps {
		files = append(files, entry.Path)
	}
	files = append(files, a.cfg.Mappings...)

	w, err := watcher.New(files, a.cfg.Watch.Debounce, a.cfg.Watch.MaxRebuildsPerSec, func(paths []string) {
		slog.Info("detected changes", "count", len(paths))
		if err := a.build(); err != nil {
			slog.Error("rebuild failed", "error", err)
			return
		}
		report, err := a.Run()
		if err != nil {
			slog.Error("batch run failed", "error", err)
			return
		}
		if a.onRebuild != nil {
			a.onRebuild(report)
		}
	})
	if err != nil {
		return err
	}
	a.watcher = w
	w.Start()
	return nil
}

// StartMetricsServer exposes prometheus metrics and a health endpoint.
func (a *App) StartMetricsServer() {
	if !a.cfg.Metrics.Enabled {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "up"})
	})

	a.metricsServer = &http.Server{Addr: a.cfg.Metrics.Address, Handler: mux}
	slog.Info("metrics server starting", "addr", a.cfg.Metrics.Address)

	go func() {
		if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server failed", "error", err)
		}
	}()
}

func (a *App) Close() error {
	var firstErr error
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			firstErr = err
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// PrintSummary writes a human-readable run summary to stdout.
func (a *App) PrintSummary(report Report) {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s\n", report.RunID)
	for _, rm := range report.RefMaps {
		status := rm.Status
		if rm.Default {
			status = "SKIPPED (" + status + ")"
		}
		fmt.Fprintf(&b, "- %s: %d references in %d classes (%d skipped) [%s]\n",
			rm.Name, rm.References, rm.Classes, rm.Skipped, status)
	}
	fmt.Print(b.String())
}

type remappedDocument struct {
	Mappings map[string]map[string]string            `json:"mappings"`
	Data     map[string]map[string]map[string]string `json:"data,omitempty"`
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
