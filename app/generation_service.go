// Package app orchestrates the full cohort pipeline: scheduling,
// two-pass adaptive sampling, document serialization and the mandatory
// retrofit sweep over the emitted files.
package app

import (
	"encoding/json"
	"fmt"
	rand "math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/montanaflynn/stats"

	"cohortsynth/adapters/store"
	"cohortsynth/domain/cohort"
	"cohortsynth/domain/core"
	"cohortsynth/domain/survey"
	"cohortsynth/internal"
	"cohortsynth/internal/generator"
	"cohortsynth/internal/retrofit"
)

// DefaultCheckpointFraction is the share of the run sampled without any
// corrective steering before feedback kicks in.
const DefaultCheckpointFraction = 0.60

// progressInterval controls how often the service logs progress.
const progressInterval = 50

// GenerationConfig holds one generation run's settings.
type GenerationConfig struct {
	NumPatients            int
	ObservationsPerPatient int
	InterventionPatients   int
	OutputDir              string
	Seed                   int64
	OnePerPatient          bool
	Clean                  bool
	BaseDate               time.Time
	CheckpointFraction     float64
}

// DefaultGenerationConfig returns the standard cohort run: 20 patients,
// 4 observations each, 6 on the intervention arm.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		NumPatients:            20,
		ObservationsPerPatient: 4,
		InterventionPatients:   6,
		OutputDir:              "output",
		Seed:                   42,
		Clean:                  true,
		BaseDate:               time.Now().UTC(),
		CheckpointFraction:     DefaultCheckpointFraction,
	}
}

// Validate checks cross-field consistency before a run starts.
func (c GenerationConfig) Validate() error {
	if c.NumPatients <= 0 {
		return core.NewValidationError("num_patients", "must be positive")
	}
	if c.ObservationsPerPatient <= 0 && !c.OnePerPatient {
		return core.NewValidationError("observations_per_patient", "must be positive")
	}
	if c.InterventionPatients < 0 || c.InterventionPatients > c.NumPatients {
		return core.NewValidationError("intervention_patients",
			fmt.Sprintf("must be between 0 and %d", c.NumPatients))
	}
	if c.CheckpointFraction < 0 || c.CheckpointFraction > 1 {
		return core.NewValidationError("checkpoint_fraction", "must be in [0, 1]")
	}
	return nil
}

// RunManifest records the provenance of one generation run next to the
// emitted documents.
type RunManifest struct {
	RunID                core.RunID      `json:"run_id"`
	GeneratedAt          string          `json:"generated_at"`
	Seed                 int64           `json:"seed"`
	NumPatients          int             `json:"num_patients"`
	ResponseCount        int             `json:"response_count"`
	InterventionPatients int             `json:"intervention_patients"`
	OnePerPatient        bool            `json:"one_per_patient"`
	ContentHash          core.CohortHash `json:"content_hash"`
}

// GenerationService runs the two-pass cohort generation pipeline.
type GenerationService struct {
	params cohort.Parameters
	logger *internal.Logger
}

// NewGenerationService wires a service over the given population
// parameters.
func NewGenerationService(params cohort.Parameters, logger *internal.Logger) *GenerationService {
	return &GenerationService{params: params, logger: logger}
}

// Run executes generation end to end and returns the manifest of the
// completed run. The retrofit sweep always follows sampling; documents
// on disk reflect post-retrofit aggregates.
func (s *GenerationService) Run(cfg GenerationConfig) (*RunManifest, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := s.params.Validate(); err != nil {
		return nil, err
	}

	fileStore := store.NewFileStore(cfg.OutputDir)
	if cfg.Clean {
		if err := fileStore.Clean(); err != nil {
			return nil, fmt.Errorf("failed to clean output directory: %w", err)
		}
	}

	rng := rand.New(rand.NewPCG(uint64(cfg.Seed), 0))
	sampler := generator.NewObservationSampler(s.params, rng)

	var schedule []generator.ScheduleEntry
	if cfg.OnePerPatient {
		schedule = generator.BuildCrossSectionalSchedule(cfg.NumPatients, cfg.BaseDate, rng)
	} else {
		schedule = generator.BuildLongitudinalSchedule(cfg.NumPatients, cfg.ObservationsPerPatient, cfg.BaseDate, rng)
	}

	tracker := generator.NewCohortTracker(s.params, len(schedule), cfg.InterventionPatients)
	checkpoint := int(float64(len(schedule)) * cfg.CheckpointFraction)

	s.logger.Info("generating %d observations for %d patients (seed=%d, checkpoint=%d)",
		len(schedule), cfg.NumPatients, cfg.Seed, checkpoint)

	builder := survey.NewResponseBuilder()
	responses := make([]*survey.Response, 0, len(schedule))
	obsIndex := make(map[core.PatientID]int, cfg.NumPatients)
	intervention := make(map[core.PatientID]bool, cfg.NumPatients)
	assignedPatients := 0

	for i, entry := range schedule {
		if _, seen := intervention[entry.PatientID]; !seen {
			remaining := cfg.NumPatients - assignedPatients
			intervention[entry.PatientID] = tracker.ShouldUseIntervention(remaining)
			assignedPatients++
		}

		phase := entry.Phase
		corr := cohort.Corrections{}
		if i >= checkpoint {
			phase = tracker.TargetPhaseForBalance(rng)
			corr = tracker.CorrectionFactors()
		}

		obs, err := sampler.Sample(entry.PatientID, entry.Date, phase, intervention[entry.PatientID], corr)
		if err != nil {
			return nil, err
		}
		tracker.Record(obs)

		obsIndex[entry.PatientID]++
		responseID := fmt.Sprintf("%s-obs-%04d", entry.PatientID, obsIndex[entry.PatientID])
		responses = append(responses, builder.Build(obs, responseID))

		if (i+1)%progressInterval == 0 {
			s.logger.Info("sampled %d/%d observations", i+1, len(schedule))
		}
	}

	s.logSummary(tracker.Stats())

	if err := fileStore.SaveAll(responses); err != nil {
		return nil, fmt.Errorf("failed to write responses: %w", err)
	}

	engine := retrofit.New(s.params, cfg.Seed, s.logger)
	if err := engine.Run(fileStore); err != nil {
		return nil, fmt.Errorf("retrofit pass failed: %w", err)
	}

	contentHash, err := cohortFingerprint(cfg.OutputDir)
	if err != nil {
		return nil, err
	}

	manifest := &RunManifest{
		RunID:                core.NewRunID(),
		GeneratedAt:          time.Now().UTC().Format(time.RFC3339),
		Seed:                 cfg.Seed,
		NumPatients:          cfg.NumPatients,
		ResponseCount:        len(responses),
		InterventionPatients: cfg.InterventionPatients,
		OnePerPatient:        cfg.OnePerPatient,
		ContentHash:          contentHash,
	}
	if err := s.writeManifest(cfg.OutputDir, manifest); err != nil {
		return nil, err
	}

	s.logger.Info("run %s complete: %d responses in %s", manifest.RunID, len(responses), cfg.OutputDir)
	return manifest, nil
}

// logSummary reports the pre-retrofit cohort balance so a run can be
// sanity-checked from the console alone.
func (s *GenerationService) logSummary(st generator.CohortStats) {
	if st.TotalObservations == 0 {
		return
	}
	follicularRatio := float64(st.FollicularCount) / float64(st.TotalObservations)
	pumpRatio := float64(st.PumpCount) / float64(st.PumpCount+st.InjectionCount)
	meanAge, _ := stats.Mean(st.Ages)
	folGlucose, _ := stats.Mean(st.FollicularGlucose)

	s.logger.Info("cohort summary: %d observations, follicular ratio %.3f, %d intervention",
		st.TotalObservations, follicularRatio, st.InterventionCount)
	s.logger.Info("cohort summary: mean age %.1f, pump ratio %.3f, follicular glucose %.1f (target %.1f)",
		meanAge, pumpRatio, folGlucose, s.params.GlucoseFollicularMean)
}

// cohortFingerprint hashes the post-retrofit documents in sorted name
// order, letting two runs be compared without diffing files.
func cohortFingerprint(dir string) (core.CohortHash, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to fingerprint output directory: %w", err)
	}

	var payloads [][]byte
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" || entry.Name() == "manifest.json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}
		payloads = append(payloads, data)
	}
	return core.NewCohortHash(payloads), nil
}

func (s *GenerationService) writeManifest(dir string, m *RunManifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	path := filepath.Join(dir, "manifest.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
