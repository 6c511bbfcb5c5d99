package handlers

import (
	"fmt"
	"io"

	"github.com/cloudprov/provisioner/internal/config"
	"github.com/cloudprov/provisioner/internal/provisioning/catalog"
)

// Validate handles the validate command.
func Validate(w io.Writer, path string) error {
	cfg, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	if err := catalog.Default().Check(cfg); err != nil {
		return err
	}

	warnings := config.Warnings(cfg.Validate())
	for _, warn := range warnings {
		fmt.Fprintf(w, "warning: %s: %s\n", warn.Field, warn.Message)
	}
	fmt.Fprintf(w, "%s is valid: %d steps, %d pools, %d warnings\n", path, len(cfg.Steps), len(cfg.Pools), len(warnings))
	return nil
}

// Steps handles the steps command.
func Steps(w io.Writer) error {
	for _, t := range catalog.Default().Types() {
		if _, err := fmt.Fprintln(w, t); err != nil {
			return err
		}
	}
	return nil
}
