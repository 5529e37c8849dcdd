package cohort

// Corrections carries the tracker-derived adjustments fed back into the
// sampler during the corrective pass. Zero values mean "no correction";
// the struct is transient and recomputed before every corrected draw.
type Corrections struct {
	// Trait-creation corrections, applied only when a patient is first seen.
	AgeShift           float64
	DeliveryPreference *DeliveryPreference

	// Schedule-level phase steering, surfaced for reporting; the actual
	// phase override goes through CohortTracker.TargetPhaseForBalance.
	PhasePreference *PhasePreference

	// Additive shifts on continuous draws.
	FollicularGlucoseShift    float64
	LutealGlucoseShift        float64
	BasalShift                float64
	LutealBasalShift          float64
	FollicularAwakeningsShift float64
	LutealAwakeningsShift     float64

	// Multiplicative probability modifiers per symptom, keyed by phase.
	FollicularSymptomMods map[Symptom]float64
	LutealSymptomMods     map[Symptom]float64
}

// PhasePreference flags an underrepresented phase with a steering weight.
type PhasePreference struct {
	Phase  Phase
	Weight float64
}

// DeliveryPreference biases the pump-vs-injection trait draw.
type DeliveryPreference struct {
	Method DeliveryMethod
	Weight float64
}

// SymptomMod returns the probability multiplier for a symptom in a phase,
// defaulting to 1.0 when no correction applies.
func (c Corrections) SymptomMod(s Symptom, phase Phase) float64 {
	var mods map[Symptom]float64
	if phase == PhaseFollicular {
		mods = c.FollicularSymptomMods
	} else {
		mods = c.LutealSymptomMods
	}
	if m, ok := mods[s]; ok {
		return m
	}
	return 1.0
}

// GlucoseShift returns the additive glucose correction for a phase.
func (c Corrections) GlucoseShift(phase Phase) float64 {
	if phase == PhaseFollicular {
		return c.FollicularGlucoseShift
	}
	return c.LutealGlucoseShift
}

// BasalShiftFor returns the additive basal insulin correction for a phase.
func (c Corrections) BasalShiftFor(phase Phase) float64 {
	if phase == PhaseFollicular {
		return c.BasalShift
	}
	return c.LutealBasalShift
}

// AwakeningsShift returns the additive awakenings correction for a phase.
func (c Corrections) AwakeningsShift(phase Phase) float64 {
	if phase == PhaseFollicular {
		return c.FollicularAwakeningsShift
	}
	return c.LutealAwakeningsShift
}

// Correction policy: every empirically tuned constant of the feedback loop
// in one place. The values are calibration knobs carried over from the
// study protocol, not derived quantities; do not re-tune them piecemeal.
const (
	// Phase balance steering
	TargetFollicularRatio       = 0.50
	PhaseBalanceTolerance       = 0.02
	PhaseBalanceStrongDeviation = 0.08
	PhasePreferenceWeight       = 2.5
	PhasePreferenceStrongWeight = 3.0
	// TargetPhaseForBalance thresholds
	PhaseForceDeviation  = 0.10
	PhaseGentleBiasProb  = 0.60
	InterventionFillRate = 0.5

	// Delivery method steering
	DeliveryRatioTolerance   = 0.05
	DeliveryPreferenceWeight = 1.5

	// Minimum sample sizes before a running mean is trusted
	AgeSampleThreshold     = 10
	MeasureSampleThreshold = 5

	// Per-metric noise floors: deviations below these are left alone
	AgeNoiseFloor        = 1.5
	GlucoseNoiseFloor    = 3.0
	BasalNoiseFloor      = 1.0
	AwakeningsNoiseFloor = 0.10

	// Damping factors applied to (target - running mean). Awakenings use
	// the strongest factor because integer counts move the mean slowly.
	AgeDamping         = 0.7
	GlucoseDamping     = 0.7
	BasalDamping       = 1.0
	LutealBasalDamping = 0.8
	AwakeningsDamping  = 2.0
)

// SymptomPolicy tunes the rate feedback for one symptom in one phase:
// below target-BelowEps the probability is boosted by Boost, above
// target+AboveEps it is multiplied by Reduce.
type SymptomPolicy struct {
	BelowEps float64
	Boost    float64
	AboveEps float64
	Reduce   float64
}

// SymptomPolicies is the per-phase, per-symptom tuning table. Fatigue is
// generated but never rate-corrected, matching the study protocol.
var SymptomPolicies = map[Phase]map[Symptom]SymptomPolicy{
	PhaseFollicular: {
		SymptomNightSweats:  {BelowEps: 0.02, Boost: 3.5, AboveEps: 0.02, Reduce: 0.2},
		SymptomPalpitations: {BelowEps: 0.01, Boost: 4.0, AboveEps: 0.02, Reduce: 0.2},
		SymptomDizziness:    {BelowEps: 0.01, Boost: 4.0, AboveEps: 0.02, Reduce: 0.2},
	},
	PhaseLuteal: {
		SymptomNightSweats:  {BelowEps: 0.03, Boost: 3.0, AboveEps: 0.03, Reduce: 0.3},
		SymptomPalpitations: {BelowEps: 0.02, Boost: 3.5, AboveEps: 0.03, Reduce: 0.3},
		SymptomDizziness:    {BelowEps: 0.02, Boost: 3.5, AboveEps: 0.03, Reduce: 0.3},
	},
}
