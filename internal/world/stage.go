package world

// Stage is a step in the linear chunk generation pipeline. Stages are
// totally ordered; a chunk's current_stage only ever advances.
type Stage int8

// None is not a real generation product; it is the sentinel "nothing has
// run yet" value, strictly below Empty.
const None Stage = -1

const (
	Empty Stage = iota
	StructureStarts
	StructureReferences
	Biomes
	Noise
	Surface
	Carvers
	Features
	InitializeLight
	Light
	Spawn
	Full
)

// StageCount is the number of real (non-None) stages.
const StageCount = int(Full) + 1

func (s Stage) String() string {
	switch s {
	case None:
		return "None"
	case Empty:
		return "Empty"
	case StructureStarts:
		return "StructureStarts"
	case StructureReferences:
		return "StructureReferences"
	case Biomes:
		return "Biomes"
	case Noise:
		return "Noise"
	case Surface:
		return "Surface"
	case Carvers:
		return "Carvers"
	case Features:
		return "Features"
	case InitializeLight:
		return "InitializeLight"
	case Light:
		return "Light"
	case Spawn:
		return "Spawn"
	case Full:
		return "Full"
	default:
		return "Unknown"
	}
}

// neighborRadius[s] is r(s): the Chebyshev radius of chunks that must have
// reached neighborRequired[s] before s may run at a given chunk.
//
// Resolved from original_source/pumpkin-world (SPEC_FULL.md §9): most stages
// only need immediately-adjacent neighbors one stage behind; Light needs a
// wider border matching vanilla/Pumpkin's light-propagation radius; Spawn and
// Full are same-chunk only.
var neighborRadius = [StageCount]int32{
	Empty:               0,
	StructureStarts:     1,
	StructureReferences: 1,
	Biomes:              1,
	Noise:               1,
	Surface:             1,
	Carvers:             1,
	Features:            1,
	InitializeLight:     0,
	Light:               2,
	Spawn:               0,
	Full:                0,
}

var neighborRequired = [StageCount]Stage{
	Empty:               None,
	StructureStarts:     Empty,
	StructureReferences: StructureStarts,
	Biomes:              StructureReferences,
	Noise:               Biomes,
	Surface:             Noise,
	Carvers:             Noise,
	Features:            Surface,
	InitializeLight:     None,
	Light:               InitializeLight,
	Spawn:               None,
	Full:                None,
}

// Radius returns r(s), the Chebyshev neighbor radius that must be satisfied
// before s may run.
func (s Stage) Radius() int32 {
	if s < Empty || int(s) >= StageCount {
		return 0
	}
	return neighborRadius[s]
}

// NeighborRequired returns nreq(s): the minimum stage every neighbor within
// s.Radius() must have reached before s may run.
func (s Stage) NeighborRequired() Stage {
	if s < Empty || int(s) >= StageCount {
		return None
	}
	return neighborRequired[s]
}

// Next returns the stage immediately after s, or (Full, false) if s is
// already terminal.
func (s Stage) Next() (Stage, bool) {
	if s >= Full {
		return Full, false
	}
	return s + 1, true
}
