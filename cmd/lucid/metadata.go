package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/lucid-ml/lucid/vision"
)

// batchMetadata summarizes a batch run: which units were generated,
// skipped, or failed, and with what parameters.
type batchMetadata struct {
	Layer      string              `json:"layer"`
	StartTime  string              `json:"start_time"`
	EndTime    string              `json:"end_time"`
	Parameters batchParams         `json:"parameters"`
	Units      map[int]unitOutcome `json:"units"`
}

type batchParams struct {
	ImageSize    int     `json:"image_size"`
	Iterations   int     `json:"iterations"`
	LearningRate float32 `json:"learning_rate"`
	BlurEvery    int     `json:"blur_every"`
	BaseSeed     int64   `json:"base_seed"`
}

type unitOutcome struct {
	Name   string `json:"name"`
	Status string `json:"status"` // "success", "skipped", or "error"
	File   string `json:"file,omitempty"`
	Error  string `json:"error,omitempty"`
}

func newBatchMetadata(layer string, cfg vision.Config) *batchMetadata {
	return &batchMetadata{
		Layer:     layer,
		StartTime: time.Now().Format(time.RFC3339),
		Parameters: batchParams{
			ImageSize:    cfg.ImageSize,
			Iterations:   cfg.Iterations,
			LearningRate: cfg.LearningRate,
			BlurEvery:    cfg.BlurEvery,
			BaseSeed:     cfg.Seed,
		},
		Units: make(map[int]unitOutcome),
	}
}

func (m *batchMetadata) record(unit int, name, status, file string, err error) {
	outcome := unitOutcome{Name: name, Status: status, File: file}
	if err != nil {
		outcome.Error = err.Error()
	}
	m.Units[unit] = outcome
}

func (m *batchMetadata) write(path string) error {
	m.EndTime = time.Now().Format(time.RFC3339)

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
