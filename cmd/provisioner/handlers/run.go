package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cloudprov/provisioner/internal/config"
	"github.com/cloudprov/provisioner/internal/messaging"
	"github.com/cloudprov/provisioner/internal/provisioning"
	"github.com/cloudprov/provisioner/internal/provisioning/catalog"
)

// errAborted is returned when the operator declines a live run.
var errAborted = errors.New("run aborted")

// RunOptions are the flags of the run command.
type RunOptions struct {
	ConfigPath      string
	Mode            string
	FailSteps       []string
	Yes             bool
	MetricsTextfile string
	Verbose         bool
}

var (
	// newLogr creates the run logger.
	newLogr = newLogger

	// confirm asks the operator before a live run.
	confirm = confirmLiveRun
)

// Run handles the run command.
//
// It loads the pipeline file, applies command line overrides, builds the
// pipeline from the step catalog and executes it. A failed run returns the
// run error after the report is printed.
func Run(ctx context.Context, opts RunOptions) error {
	log, flush, err := newLogr(opts.Verbose)
	if err != nil {
		return err
	}
	defer flush()

	cfg, err := loadConfig(opts.ConfigPath, log)
	if err != nil {
		return err
	}
	if err := applyOverrides(cfg, opts); err != nil {
		return err
	}

	if live(cfg) && !opts.Yes && interactive() {
		ok, err := confirm(cfg)
		if err != nil {
			return err
		}
		if !ok {
			return errAborted
		}
	}

	reg := prometheus.NewRegistry()
	pools, err := newPools(cfg, messaging.NewPoolMetrics(reg))
	if err != nil {
		return err
	}
	defer func() {
		if err := pools.Close(); err != nil {
			log.Error(err, "failed to close producer pools")
		}
	}()

	store, err := newObjectStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create manifest store: %w", err)
	}
	if err := checkArchiveBucket(ctx, cfg, store); err != nil {
		return err
	}

	pipeline, err := catalog.Default().Build(cfg, catalog.Deps{Pools: pools, AWS: newAWSFactory(), Store: store})
	if err != nil {
		return err
	}
	pipeline.WithMetrics(provisioning.NewMetrics(reg))

	runID := cfg.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	observer := provisioning.NewLogrObserver(log.WithValues("runId", runID))
	rc := provisioning.NewRunContext(runID, cfg.Requisition, provisioning.WithObserver(observer))

	report, runErr := pipeline.Run(ctx, rc)

	style := plainStyle()
	if interactive() {
		style = styledReport()
	}
	fmt.Fprint(stdout, renderReport(report, style))

	if opts.MetricsTextfile != "" {
		if err := prometheus.WriteToTextfile(opts.MetricsTextfile, reg); err != nil {
			log.Error(err, "failed to write metrics", "path", opts.MetricsTextfile)
		}
	}

	return runErr
}

// loadConfig reads the pipeline file and logs its validation warnings.
func loadConfig(path string, log logr.Logger) (*config.Config, error) {
	if path == "" {
		return nil, errors.New("a pipeline file is required (--config)")
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	for _, w := range config.Warnings(cfg.Validate()) {
		log.Info("configuration warning", "field", w.Field, "message", w.Message)
	}
	return cfg, nil
}

// applyOverrides applies --mode and --fail-step to cfg. A fail step names a
// step by id or type.
func applyOverrides(cfg *config.Config, opts RunOptions) error {
	if opts.Mode != "" {
		if _, err := provisioning.ParseMode(opts.Mode); err != nil {
			return err
		}
		cfg.Mode = opts.Mode
	}

	for _, name := range opts.FailSteps {
		found := false
		for i := range cfg.Steps {
			if cfg.Steps[i].ID == name || cfg.Steps[i].Type == name {
				cfg.Steps[i].Mode = string(provisioning.ModeFail)
				found = true
			}
		}
		if !found {
			return fmt.Errorf("--fail-step %s matches no step in the pipeline", name)
		}
	}
	return nil
}

// live reports whether any step will run against real collaborators.
func live(cfg *config.Config) bool {
	modes, err := cfg.Modes()
	if err != nil {
		return true
	}
	for _, s := range cfg.Steps {
		if modes.ModeFor(s.Type, s.ID) == provisioning.ModeRun {
			return true
		}
	}
	return false
}

// confirmLiveRun shows what a live run will do and asks for confirmation.
func confirmLiveRun(cfg *config.Config) (bool, error) {
	types := make([]string, 0, len(cfg.Steps))
	for _, s := range cfg.Steps {
		types = append(types, s.Type)
	}

	var ok bool
	err := huh.NewConfirm().
		Title(fmt.Sprintf("Provision %q for %s?", cfg.Requisition.AccountName, cfg.Requisition.Requestor)).
		Description(fmt.Sprintf("%d steps will run live:\n%s", len(types), strings.Join(types, "\n"))).
		Affirmative("Run").
		Negative("Abort").
		Value(&ok).
		Run()
	if err != nil {
		return false, fmt.Errorf("confirmation prompt failed: %w", err)
	}
	return ok, nil
}
