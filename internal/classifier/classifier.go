// Package classifier maps free-text market rules to an authoritative data
// source tag and a verifiability tier. It is deterministic, performs no I/O,
// and never fails: text with no recognised source comes back as tier 9,
// which downstream gates treat as reject-by-default.
package classifier

import (
	"regexp"
	"strings"

	"github.com/jzOcb/kalshi-trading/internal/domain"
)

type sourcePattern struct {
	re     *regexp.Regexp
	source string
	tier   int
	method string
}

// Ordered most specific / most authoritative first. The first pattern for a
// source wins its tier; later matches only add source tags.
var officialSourcePatterns = []sourcePattern{
	// Tier 1: official statistics.
	{regexp.MustCompile(`bls\.gov|bureau of labor statistics`), "BLS", domain.TierOfficial, "Cleveland Fed Nowcast / BLS releases"},
	{regexp.MustCompile(`bea\.gov|bureau of economic analysis`), "BEA", domain.TierOfficial, "Atlanta Fed GDPNow / BEA releases"},
	{regexp.MustCompile(`weather\.gov|national weather service|nws`), "NWS", domain.TierOfficial, "NWS forecast API"},
	{regexp.MustCompile(`federalreserve\.gov|federal reserve|fomc`), "FOMC", domain.TierOfficial, "CME FedWatch + FOMC dots"},
	{regexp.MustCompile(`census\.gov|census bureau`), "Census", domain.TierOfficial, "Census Bureau releases"},

	// Tier 2: official schedules and public records.
	{regexp.MustCompile(`treasury\.gov|department of treasury`), "Treasury", domain.TierSchedule, "Treasury statements + debt data"},
	{regexp.MustCompile(`congress\.gov|house\.gov|senate\.gov`), "Congress", domain.TierSchedule, "Congressional schedule + vote records"},
	{regexp.MustCompile(`sec\.gov|securities and exchange`), "SEC", domain.TierSchedule, "SEC filings + announcements"},
	{regexp.MustCompile(`cbo\.gov|congressional budget office`), "CBO", domain.TierSchedule, "CBO projections"},
	{regexp.MustCompile(`eia\.gov|energy information`), "EIA", domain.TierSchedule, "EIA energy data"},
	{regexp.MustCompile(`usda\.gov|department of agriculture`), "USDA", domain.TierSchedule, "USDA crop reports"},
	{regexp.MustCompile(`cme\s?group|chicago mercantile`), "CME", domain.TierSchedule, "CME settlement prices"},

	// Verifiable but unpredictable: no forecasting edge, demoted to tier 4.
	{regexp.MustCompile(`coinmarketcap|coingecko|binance|coinbase`), "Crypto", domain.TierNoEdge, "no forecasting edge"},
	{regexp.MustCompile(`nyse|nasdaq|s&p\s*500|dow jones`), "Exchange", domain.TierNoEdge, "no forecasting edge"},

	// Tier 2: verifiable official acts.
	{regexp.MustCompile(`executive order|sign.*(order|bill|act)|federal register`), "WhiteHouse", domain.TierSchedule, "White House announcements + Federal Register"},

	// Tier 3: announcement/news driven.
	{regexp.MustCompile(`whitehouse\.gov|white house`), "WhiteHouse", domain.TierNews, "White House announcements + news"},
	{regexp.MustCompile(`ustr\.gov|trade representative`), "USTR", domain.TierNews, "USTR trade announcements"},
	{regexp.MustCompile(`state\.gov|department of state`), "State", domain.TierNews, "State Department statements"},
	{regexp.MustCompile(`dhs\.gov|homeland security`), "DHS", domain.TierNews, "DHS announcements"},

	// Tier 3: researchable political events.
	{regexp.MustCompile(`nominat|appoint.*(chair|secretary|justice|director|ambassador)`), "Nomination", domain.TierNews, "official nominations + news tracking"},
	{regexp.MustCompile(`fed\s*chair|federal reserve chair`), "FedChair", domain.TierNews, "White House nomination + Senate confirmation"},
	{regexp.MustCompile(`supreme court|scotus`), "SCOTUS", domain.TierNews, "court announcements + news"},
	{regexp.MustCompile(`cabinet\s*(member|secretary|position)`), "Cabinet", domain.TierNews, "White House nomination + Senate confirmation"},
	{regexp.MustCompile(`greenland|territory|annex|acqui(re|sition)`), "ForeignPolicy", domain.TierNews, "diplomatic news + official statements"},
	{regexp.MustCompile(`tariff.*\d+%|import\s*dut`), "Tariff", domain.TierNews, "USTR announcements + trade news"},
	{regexp.MustCompile(`sanction|embargo`), "Sanctions", domain.TierNews, "Treasury OFAC + news"},
	{regexp.MustCompile(`treaty|agreement.*(sign|ratif)`), "Treaty", domain.TierNews, "State Department + news"},
	{regexp.MustCompile(`impeach|article.*impeachment`), "Impeachment", domain.TierNews, "Congressional vote records + news"},
	{regexp.MustCompile(`vote.*pass|pass.*vote|floor vote`), "CongressVote", domain.TierNews, "Congressional schedule + vote tracking"},
	{regexp.MustCompile(`veto|override`), "Veto", domain.TierNews, "White House statements + Congressional record"},
	{regexp.MustCompile(`resign|step down|leave office|out as (president|governor|ceo|leader)`), "LeaderChange", domain.TierNews, "official statements + news"},
	{regexp.MustCompile(`recall|special election`), "Recall", domain.TierNews, "election board + news"},
	{regexp.MustCompile(`(khamenei|xi jinping|putin|kim jong|erdogan|modi|netanyahu).*(out|leave|die|replace|succeed)`), "ForeignLeader", domain.TierNews, "international news + analysis"},
	{regexp.MustCompile(`(supreme leader|prime minister|president of).*(iran|china|russia|north korea)`), "ForeignLeader", domain.TierNews, "international news + analysis"},
	{regexp.MustCompile(`successor.*(xi|putin|khamenei|kim)`), "ForeignLeader", domain.TierNews, "international news + analysis"},
	{regexp.MustCompile(`(xi|putin|khamenei|kim).*successor`), "ForeignLeader", domain.TierNews, "international news + analysis"},

	// Tier 3: elections with a definite result.
	{regexp.MustCompile(`primary|caucus|runoff`), "Primary", domain.TierNews, "election results + polling"},
	{regexp.MustCompile(`midterm|general election.*\d{4}`), "Election", domain.TierNews, "election results + polling"},
	{regexp.MustCompile(`electoral vote|winner.*state`), "ElectionResult", domain.TierNews, "election results"},
}

// Markets that settle eventually but cannot be usefully researched.
var speculationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`first\s*(trillionaire|quadrillionaire)`),
	regexp.MustCompile(`(203\d|204\d).*become.*president`),
	regexp.MustCompile(`who will be.*president.*(203|204|205)`),
	regexp.MustCompile(`next\s*pope`),
	regexp.MustCompile(`alien|ufo|extraterrestrial`),
	regexp.MustCompile(`world\s*war\s*(3|iii|three)`),
}

type keywordHint struct {
	source string
	tier   int
	method string
}

// Substring fallback for text where no regex fires. Checked in a fixed
// order so classification stays deterministic.
var keywordOrder = []string{
	"gross domestic product", "gdp",
	"consumer price index", "cpi", "inflation",
	"unemployment", "jobless claims", "nonfarm payroll",
	"interest rate", "federal funds", "rate cut", "rate hike",
	"temperature", "high of", "low of",
	"government shutdown", "debt ceiling",
	"tariff",
	"bitcoin", "ethereum", "btc", "eth",
	"nominate", "fed chair", "impeach", "greenland", "resign",
	"primary", "midterm", "supreme court",
}

var keywordHints = map[string]keywordHint{
	"gdp":                    {"BEA", domain.TierOfficial, "Atlanta Fed GDPNow"},
	"gross domestic product": {"BEA", domain.TierOfficial, "Atlanta Fed GDPNow"},
	"cpi":                    {"BLS", domain.TierOfficial, "Cleveland Fed Nowcast"},
	"consumer price index":   {"BLS", domain.TierOfficial, "Cleveland Fed Nowcast"},
	"inflation":              {"BLS", domain.TierOfficial, "Cleveland Fed Nowcast"},
	"unemployment":           {"BLS", domain.TierOfficial, "BLS Employment Report"},
	"jobless claims":         {"BLS", domain.TierOfficial, "Weekly DOL Report"},
	"nonfarm payroll":        {"BLS", domain.TierOfficial, "BLS Employment Report"},
	"interest rate":          {"FOMC", domain.TierOfficial, "CME FedWatch"},
	"federal funds":          {"FOMC", domain.TierOfficial, "CME FedWatch"},
	"rate cut":               {"FOMC", domain.TierOfficial, "CME FedWatch"},
	"rate hike":              {"FOMC", domain.TierOfficial, "CME FedWatch"},
	"temperature":            {"NWS", domain.TierOfficial, "NWS forecast API"},
	"high of":                {"NWS", domain.TierOfficial, "NWS forecast API"},
	"low of":                 {"NWS", domain.TierOfficial, "NWS forecast API"},
	"government shutdown":    {"Congress", domain.TierSchedule, "Congressional schedule + budget deadlines"},
	"debt ceiling":           {"Treasury", domain.TierSchedule, "Treasury X-date + CBO"},
	"tariff":                 {"USTR", domain.TierNews, "USTR announcements + trade news"},
	"bitcoin":                {"Crypto", domain.TierNoEdge, "no forecasting edge"},
	"ethereum":               {"Crypto", domain.TierNoEdge, "no forecasting edge"},
	"btc":                    {"Crypto", domain.TierNoEdge, "no forecasting edge"},
	"eth":                    {"Crypto", domain.TierNoEdge, "no forecasting edge"},
	"nominate":               {"Nomination", domain.TierNews, "official nominations + news"},
	"fed chair":              {"FedChair", domain.TierNews, "White House nomination + Senate confirmation"},
	"impeach":                {"Impeachment", domain.TierNews, "Congressional record + news"},
	"greenland":              {"ForeignPolicy", domain.TierNews, "diplomatic news + official statements"},
	"resign":                 {"LeaderChange", domain.TierNews, "official statements + news"},
	"primary":                {"Primary", domain.TierNews, "election results + polling"},
	"midterm":                {"Election", domain.TierNews, "election results + polling"},
	"supreme court":          {"SCOTUS", domain.TierNews, "court announcements + news"},
}

// Classify inspects rules text and title and reports every recognised data
// source, the best (lowest) tier among them, and the research method for
// that tier. Matching is case-insensitive and does not care which of the
// two fields supplied the match.
func Classify(rulesText, title string) domain.ClassificationResult {
	text := strings.ToLower(rulesText + " " + title)

	for _, re := range speculationPatterns {
		if re.MatchString(text) {
			return domain.ClassificationResult{
				Verifiable: true, // settleable, just not researchable
				Tier:       domain.TierUnclassified,
				Sources:    []string{},
				Method:     "pure speculation, no viable research method",
				Detection:  domain.DetectSpeculation,
			}
		}
	}

	var sources []string
	bestTier := domain.TierUnclassified
	bestMethod := ""
	detection := domain.DetectNone

	for _, p := range officialSourcePatterns {
		if !p.re.MatchString(text) {
			continue
		}
		if containsSource(sources, p.source) {
			continue
		}
		sources = append(sources, p.source)
		if p.tier < bestTier {
			bestTier = p.tier
			bestMethod = p.method
		}
		detection = domain.DetectRegex
	}

	if len(sources) == 0 {
		for _, kw := range keywordOrder {
			if !strings.Contains(text, kw) {
				continue
			}
			hint := keywordHints[kw]
			if containsSource(sources, hint.source) {
				continue
			}
			sources = append(sources, hint.source)
			if hint.tier < bestTier {
				bestTier = hint.tier
				bestMethod = hint.method
			}
			detection = domain.DetectKeyword
		}
	}

	if len(sources) == 0 {
		return domain.ClassificationResult{
			Verifiable: false,
			Tier:       domain.TierUnclassified,
			Sources:    []string{},
			Method:     "no recognised data source",
			Detection:  domain.DetectNone,
		}
	}

	return domain.ClassificationResult{
		Verifiable: true,
		Tier:       bestTier,
		Sources:    sources,
		Method:     bestMethod,
		Detection:  detection,
	}
}

func containsSource(sources []string, s string) bool {
	for _, have := range sources {
		if have == s {
			return true
		}
	}
	return false
}

// TierLabel returns a short display label for a tier.
func TierLabel(tier int) string {
	switch tier {
	case domain.TierOfficial:
		return "T1 official"
	case domain.TierSchedule:
		return "T2 schedule"
	case domain.TierNews:
		return "T3 news"
	case domain.TierNoEdge:
		return "T4 no-edge"
	default:
		return "unclassified"
	}
}
