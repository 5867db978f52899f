package extraction

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MerchantInfo contains normalized merchant information. CategoryID refers
// to a system category and is only a suggestion; keyword rules and manual
// edits take precedence.
type MerchantInfo struct {
	Name       string
	CategoryID string
}

// merchantMappings maps known merchant keywords to normalized names and
// system category suggestions.
var merchantMappings = map[string]MerchantInfo{
	// Grocery stores
	"woolworths":  {Name: "Woolworths", CategoryID: "sys-groceries"},
	"coles":       {Name: "Coles", CategoryID: "sys-groceries"},
	"aldi":        {Name: "Aldi", CategoryID: "sys-groceries"},
	"costco":      {Name: "Costco", CategoryID: "sys-groceries"},
	"iga":         {Name: "IGA", CategoryID: "sys-groceries"},
	"whole foods": {Name: "Whole Foods", CategoryID: "sys-groceries"},
	"trader joe":  {Name: "Trader Joe's", CategoryID: "sys-groceries"},

	// Fast food & restaurants
	"mcdonalds":   {Name: "McDonald's", CategoryID: "sys-food"},
	"mcdonald's":  {Name: "McDonald's", CategoryID: "sys-food"},
	"starbucks":   {Name: "Starbucks", CategoryID: "sys-food"},
	"subway":      {Name: "Subway", CategoryID: "sys-food"},
	"kfc":         {Name: "KFC", CategoryID: "sys-food"},
	"burger king": {Name: "Burger King", CategoryID: "sys-food"},
	"dominos":     {Name: "Domino's", CategoryID: "sys-food"},
	"pizza hut":   {Name: "Pizza Hut", CategoryID: "sys-food"},
	"uber eats":   {Name: "Uber Eats", CategoryID: "sys-food"},
	"doordash":    {Name: "DoorDash", CategoryID: "sys-food"},
	"deliveroo":   {Name: "Deliveroo", CategoryID: "sys-food"},
	"menulog":     {Name: "Menulog", CategoryID: "sys-food"},
	"grubhub":     {Name: "Grubhub", CategoryID: "sys-food"},

	// Transportation
	"uber":    {Name: "Uber", CategoryID: "sys-transport"},
	"lyft":    {Name: "Lyft", CategoryID: "sys-transport"},
	"shell":   {Name: "Shell", CategoryID: "sys-transport"},
	"bp":      {Name: "BP", CategoryID: "sys-transport"},
	"caltex":  {Name: "Caltex", CategoryID: "sys-transport"},
	"ampol":   {Name: "Ampol", CategoryID: "sys-transport"},
	"chevron": {Name: "Chevron", CategoryID: "sys-transport"},
	"opal":    {Name: "Opal Card", CategoryID: "sys-transport"},
	"myki":    {Name: "Myki", CategoryID: "sys-transport"},

	// Entertainment
	"netflix":      {Name: "Netflix", CategoryID: "sys-entertainment"},
	"spotify":      {Name: "Spotify", CategoryID: "sys-entertainment"},
	"disney+":      {Name: "Disney+", CategoryID: "sys-entertainment"},
	"hulu":         {Name: "Hulu", CategoryID: "sys-entertainment"},
	"amazon prime": {Name: "Amazon Prime", CategoryID: "sys-entertainment"},

	// Shopping
	"amazon":   {Name: "Amazon", CategoryID: "sys-shopping"},
	"ebay":     {Name: "eBay", CategoryID: "sys-shopping"},
	"target":   {Name: "Target", CategoryID: "sys-shopping"},
	"walmart":  {Name: "Walmart", CategoryID: "sys-shopping"},
	"ikea":     {Name: "IKEA", CategoryID: "sys-shopping"},
	"bunnings": {Name: "Bunnings", CategoryID: "sys-shopping"},

	// Healthcare
	"chemist warehouse": {Name: "Chemist Warehouse", CategoryID: "sys-health"},
	"priceline":         {Name: "Priceline Pharmacy", CategoryID: "sys-health"},
	"cvs":               {Name: "CVS Pharmacy", CategoryID: "sys-health"},
	"walgreens":         {Name: "Walgreens", CategoryID: "sys-health"},

	// Utilities
	"telstra":  {Name: "Telstra", CategoryID: "sys-utilities"},
	"optus":    {Name: "Optus", CategoryID: "sys-utilities"},
	"vodafone": {Name: "Vodafone", CategoryID: "sys-utilities"},
	"verizon":  {Name: "Verizon", CategoryID: "sys-utilities"},
	"agl":      {Name: "AGL", CategoryID: "sys-utilities"},
	"origin":   {Name: "Origin Energy", CategoryID: "sys-utilities"},
}

// noisePatterns strip transaction reference noise before matching.
var noisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(pty|ltd|inc|llc|corp)\b\.?`),
	regexp.MustCompile(`\b\d{4,}\b`),          // long reference numbers
	regexp.MustCompile(`(?i)\bcard\s*x+\d*\b`), // masked card suffixes
	regexp.MustCompile(`\s{2,}`),
}

var titleCaser = cases.Title(language.English)

// NormalizeMerchant cleans a raw transaction description and looks up a
// known merchant. Unknown merchants get a title-cased cleanup of the
// description and no category suggestion.
func NormalizeMerchant(description string) MerchantInfo {
	cleaned := description
	for _, re := range noisePatterns {
		cleaned = re.ReplaceAllString(cleaned, " ")
	}
	cleaned = strings.TrimSpace(cleaned)
	lower := strings.ToLower(cleaned)

	// Prefer the longest match so "uber eats" wins over "uber"
	var best string
	for keyword := range merchantMappings {
		if strings.Contains(lower, keyword) && len(keyword) > len(best) {
			best = keyword
		}
	}
	if best != "" {
		return merchantMappings[best]
	}

	if cleaned == "" {
		cleaned = description
	}
	return MerchantInfo{Name: titleCaser.String(strings.ToLower(cleaned))}
}
