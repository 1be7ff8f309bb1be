package apyerr

import "fmt"

// Area codes ("AA"), mirroring the original implementation's nested
// area/domain/component constant tree so operator tooling that keys off
// the numbering scheme keeps working.
const (
	AreaExternalServices = "01"
	AreaLibraries        = "02"
	AreaServices         = "03"
)

// Domain codes ("DD") within AreaLibraries.
const (
	DomainLedger     = "01"
	DomainVenue      = "02"
	DomainRouter     = "03"
	DomainRebalance  = "04"
	DomainYield      = "05"
	DomainValidation = "06"
)

// Domain codes ("DD") within AreaServices.
const (
	DomainEngine          = "01"
	DomainPoolStats       = "02"
	DomainStrategyHistory = "03"
)

// Component codes ("CC") within DomainVenue.
const (
	ComponentVenueA = "01"
	ComponentVenueB = "02"
)

// Component codes ("CC") within DomainEngine.
const (
	ComponentEngineCore     = "01"
	ComponentEngineRegistry = "02"
)

// Component codes ("CC") within DomainPoolStats.
const (
	ComponentPoolStatsCore = "01"
)

// Component codes ("CC") within DomainStrategyHistory.
const (
	ComponentStrategyHistoryCore = "01"
)

// BuildErrorCode reproduces the original "AA-DD-CC KK NN" scheme: a
// closure factory bound to one area/domain/component triple, matching the
// error_code_builder_fn pattern used throughout each module.
func BuildErrorCode(area, domain, component string) func(kind Kind, index int) string {
	return func(kind Kind, index int) string {
		return fmt.Sprintf("%s-%s-%s %s %02d", area, domain, component, kind.kindCode(), index)
	}
}
