// Package model defines the core entities of the benchmark tracker:
// sources, benchmarks, models, results, and the audit changelog.
package model

// TrustTier classifies the provenance quality of a result's source.
// Tiers are ordinal: A > B > C.
type TrustTier string

const (
	// TierA covers benchmark authors and official leaderboards.
	TierA TrustTier = "A"
	// TierB covers model-provider results and neutral aggregators.
	TierB TrustTier = "B"
	// TierC covers community runs and blog posts.
	TierC TrustTier = "C"
)

// Valid reports whether t is one of the known tiers.
func (t TrustTier) Valid() bool {
	switch t {
	case TierA, TierB, TierC:
		return true
	}
	return false
}

// SourceType describes where a data source comes from.
type SourceType string

const (
	SourceOfficialPaper         SourceType = "official_paper"
	SourceOfficialLeaderboard   SourceType = "official_leaderboard"
	SourceOfficialBlog          SourceType = "official_blog"
	SourceThirdPartyEval        SourceType = "third_party_eval"
	SourceThirdPartyLeaderboard SourceType = "third_party_leaderboard"
	SourceManualEntry           SourceType = "manual_entry"
)

// ParseMethod describes how data was extracted from a source.
type ParseMethod string

const (
	ParseAPI         ParseMethod = "api"
	ParseCSVDownload ParseMethod = "csv_download"
	ParseXLSX        ParseMethod = "xlsx_download"
	ParseHTMLScrape  ParseMethod = "html_scrape"
	ParseManual      ParseMethod = "manual"
)

// ModelStatus is the verification status of a model record.
type ModelStatus string

const (
	StatusVerified   ModelStatus = "verified"
	StatusUnverified ModelStatus = "unverified"
)

// TierForSourceType assigns a default trust tier from the source type.
// Adapters may pin a tier explicitly instead.
func TierForSourceType(st SourceType) TrustTier {
	switch st {
	case SourceOfficialPaper, SourceOfficialLeaderboard:
		return TierA
	case SourceOfficialBlog, SourceThirdPartyLeaderboard:
		return TierB
	default:
		return TierC
	}
}
