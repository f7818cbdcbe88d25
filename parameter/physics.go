package parameter

// Boundary
const (
	DefaultSides         = 6
	MinSides             = 3
	MaxSides             = 16
	DefaultBoundary      = 200.0
	MinBoundary          = 20.0
	DefaultStarInner     = 0.55
	DefaultRotationSpeed = 0.25 // rad/s
)

// Bodies
const (
	DefaultBodyRadius   = 8.0
	MinBodyRadius       = 1.0
	DefaultBodyCount    = 3
	MaxBodies           = 32
	DefaultGravity      = 120.0 // units/s²
	DefaultFriction     = 0.05  // fraction of velocity lost per second
	DefaultRestitution  = 0.92
	DefaultInitialSpeed = 220.0
	MaxBodySpeed        = 3000.0

	// ImpactDeadTime is the minimum simulation time between impacts of one body (seconds)
	ImpactDeadTime = 0.045

	TrailLength = 24
)

// Flock
const (
	DefaultFlockCount     = 24
	MaxFlockUnits         = 256
	DefaultPerception     = 40.0
	MinPerception         = 1.0
	DefaultSeparationDist = 14.0
	DefaultAlignWeight    = 1.0
	DefaultCohesionWeight = 0.8
	DefaultSeparateWeight = 1.5
	DefaultCenterWeight   = 0.05
	DefaultAvoidWeight    = 2.0
	DefaultMaxForce       = 240.0
	DefaultMaxFlockSpeed  = 140.0
	DefaultAvoidRadius    = 30.0
	DefaultImpactChance   = 0.3
	DefaultProximityDist  = 6.0
	DefaultProximityOdds  = 0.15
	FlockImpactDeadTime   = 0.12
)

// Pointer force
const (
	PointerMinDistance = 8.0
	DefaultPointerRad  = 120.0
	DefaultPointerPull = 40000.0
)

// Marks
const (
	// MarkDecayPerSecond is life lost per second of wall time
	MarkDecayPerSecond = 1.6
	MarkBaseRadius     = 4.0
	MarkSpeedScale     = 600.0 // impact speed that doubles a mark's radius
	MaxMarks           = 256
)
