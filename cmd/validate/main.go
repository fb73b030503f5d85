package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jwebster45206/mansion-engine/pkg/achievement"
	"github.com/jwebster45206/mansion-engine/pkg/persistence"
	"github.com/jwebster45206/mansion-engine/pkg/player"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <save.json>...\n", os.Args[0])
		os.Exit(1)
	}

	failed := false
	for _, filename := range os.Args[1:] {
		validator := &SaveValidator{registry: achievement.MustRegistry()}
		if err := validator.validateFile(filename); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			failed = true
			continue
		}
		fmt.Printf("%s is a valid save\n", filename)
	}
	if failed {
		os.Exit(1)
	}
}

// SaveValidator checks exported save files before they are imported
// into a store
type SaveValidator struct {
	registry *achievement.Registry
	errors   []string
}

func (v *SaveValidator) validateFile(filename string) error {
	if !strings.HasSuffix(filepath.Base(filename), ".json") {
		return fmt.Errorf("save file must have .json extension: %s", filepath.Base(filename))
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return v.validate(filename, data)
}

func (v *SaveValidator) validate(filename string, data []byte) error {
	v.errors = nil

	if !json.Valid(data) {
		return fmt.Errorf("file %s contains invalid JSON", filename)
	}

	var rec persistence.SaveRecord
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&rec); err != nil {
		return fmt.Errorf("file %s failed strict JSON unmarshaling: %w", filename, err)
	}

	v.validateRecord(&rec)

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}
	return nil
}

func (v *SaveValidator) validateRecord(rec *persistence.SaveRecord) {
	if err := rec.Validate(); err != nil {
		v.addError("%v", err)
	}
	if rec.GameOver {
		v.addError("save is marked game over and would be ignored")
	}

	for _, it := range rec.Inventory {
		if _, ok := player.ParseItem(string(it)); !ok {
			v.addError("unknown item %q", it)
		}
	}
	for _, id := range rec.Achievements {
		if _, ok := v.registry.Get(id); !ok {
			v.addError("unknown achievement %q", id)
		}
	}
}

func (v *SaveValidator) addError(format string, args ...any) {
	v.errors = append(v.errors, "  - "+fmt.Sprintf(format, args...))
}
