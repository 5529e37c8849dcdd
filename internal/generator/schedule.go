package generator

import (
	"math/rand/v2"
	"time"

	"cohortsynth/domain/cohort"
	"cohortsynth/domain/core"
)

// ScheduleEntry is one planned observation: who, when and which phase the
// free pass should target. The corrective pass may override the phase.
type ScheduleEntry struct {
	PatientID core.PatientID
	Date      time.Time
	Phase     cohort.Phase
}

// BuildLongitudinalSchedule plans several observations per patient with
// alternating phases, dated within the 90 days before baseDate, then
// shuffles the plan so patients interleave.
func BuildLongitudinalSchedule(numPatients, observationsPerPatient int, baseDate time.Time, rng *rand.Rand) []ScheduleEntry {
	schedule := make([]ScheduleEntry, 0, numPatients*observationsPerPatient)
	for patient := 1; patient <= numPatients; patient++ {
		patientID := core.NewPatientID(patient)
		for obs := 0; obs < observationsPerPatient; obs++ {
			daysOffset := -(rng.IntN(90) + 1)
			phase := cohort.PhaseFollicular
			if obs%2 == 1 {
				phase = cohort.PhaseLuteal
			}
			schedule = append(schedule, ScheduleEntry{
				PatientID: patientID,
				Date:      baseDate.AddDate(0, 0, daysOffset),
				Phase:     phase,
			})
		}
	}
	shuffle(schedule, rng)
	return schedule
}

// BuildCrossSectionalSchedule plans one observation per patient with the
// phases assigned as a balanced shuffled partition.
func BuildCrossSectionalSchedule(numPatients int, baseDate time.Time, rng *rand.Rand) []ScheduleEntry {
	schedule := make([]ScheduleEntry, 0, numPatients)
	for patient := 1; patient <= numPatients; patient++ {
		phase := cohort.PhaseFollicular
		if patient > numPatients/2 {
			phase = cohort.PhaseLuteal
		}
		schedule = append(schedule, ScheduleEntry{
			PatientID: core.NewPatientID(patient),
			Date:      baseDate.AddDate(0, 0, -(rng.IntN(90) + 1)),
			Phase:     phase,
		})
	}
	shuffle(schedule, rng)
	return schedule
}

func shuffle(entries []ScheduleEntry, rng *rand.Rand) {
	rng.Shuffle(len(entries), func(i, j int) {
		entries[i], entries[j] = entries[j], entries[i]
	})
}
