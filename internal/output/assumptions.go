package output

// DefaultAssumptions lists key modeling assumptions rendered in detailed outputs.
var DefaultAssumptions = []string{
	"Annual time step; operation starts in the COD year",
	"Debt amortises as a level annuity over the tenor",
	"Straight-line depreciation; tax losses are not carried forward",
	"Compound hazard multiplier applies when two or more hazards are active",
	"Carbon prices interpolate linearly between points and extrapolate from the last two",
	"Rating reflects average metrics over the debt tenor",
}
