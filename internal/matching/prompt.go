// Package matching – prompt assembly
//
// BuildRankingRequest converts a source item and its candidate set into the
// structured prompt sent to the reasoning model. The comparison rubric is
// fixed and reproduced in a fixed order; tests assert on that ordering, so
// it must not be reshuffled casually.
package matching

import (
	"fmt"
	"strings"

	"github.com/LewisZett/tech-part-finder/internal/domain"
)

// systemInstruction frames the model's role for every ranking call.
const systemInstruction = "You are an expert parts matching assistant. " +
	"Analyze text descriptions and images to find the best matches."

// comparisonDimensions is the fixed rubric, in contract order. Dimension 7
// is phrased conditionally because images are supplementary evidence only.
var comparisonDimensions = []string{
	"Part name similarity (exact, partial, or semantic matches)",
	"Category match",
	"Price compatibility",
	"Condition match",
	"Location proximity",
	"Description relevance",
	"Visual similarity if images are available",
	"Counterparty reputation",
}

// maxCandidateImages bounds how many candidate images are attached to a
// single ranking call.
const maxCandidateImages = 5

// BuildRankingRequest assembles the ranking prompt for source against
// candidates. Profiles supply the reputation signal per owner id; missing
// profiles render as "Unknown". maxResults caps the requested result size.
//
// The candidate enumeration is index-stable: candidate i in the slice is
// item i+1 in the prompt, and CandidateIDs preserves that order.
func BuildRankingRequest(source domain.Item, candidates []domain.Item, profiles map[string]domain.Profile, maxResults int) RankingRequest {
	if maxResults <= 0 {
		maxResults = 5
	}

	var b strings.Builder
	ids := make([]string, 0, len(candidates))
	var images []ImageRef

	switch source.Kind {
	case domain.ItemKindRequest:
		r := source.Request
		b.WriteString("You are matching a spare part request against available parts.\n\n")
		b.WriteString("Request Details:\n")
		fmt.Fprintf(&b, "- Part Name: %s\n", r.PartName)
		fmt.Fprintf(&b, "- Category: %s\n", r.Category)
		fmt.Fprintf(&b, "- Description: %s\n", orNone(r.Description))
		fmt.Fprintf(&b, "- Max Price: %s\n", priceOr(r.MaxPrice, "Not specified"))
		fmt.Fprintf(&b, "- Condition Preference: %s\n", orDefault(r.ConditionPreference, "Any"))
		fmt.Fprintf(&b, "- Location: %s\n", orDefault(r.Location, "Not specified"))

		b.WriteString("\nAvailable Parts:\n")
		for i, c := range candidates {
			p := c.Part
			ids = append(ids, p.ID)
			fmt.Fprintf(&b, "\n%d. %s (ID: %s)\n", i+1, p.PartName, p.ID)
			fmt.Fprintf(&b, "   - Category: %s\n", p.Category)
			fmt.Fprintf(&b, "   - Condition: %s\n", p.Condition)
			fmt.Fprintf(&b, "   - Price: %s\n", priceOr(p.Price, "Not listed"))
			fmt.Fprintf(&b, "   - Location: %s\n", orDefault(p.Location, "Not specified"))
			fmt.Fprintf(&b, "   - Description: %s\n", orNone(p.Description))
			fmt.Fprintf(&b, "   - Has Image: %s\n", yesNo(p.ImageURL != ""))
			fmt.Fprintf(&b, "   - Supplier: %s\n", profileLine(profiles, p.SupplierID))
			if p.ImageURL != "" && len(images) < maxCandidateImages {
				images = append(images, ImageRef{
					ItemID: p.ID,
					Label:  fmt.Sprintf("Part: %s (ID: %s)", p.PartName, p.ID),
					URL:    p.ImageURL,
				})
			}
		}

	case domain.ItemKindPart:
		p := source.Part
		b.WriteString("You are matching an available spare part against open part requests.\n\n")
		b.WriteString("Available Part:\n")
		fmt.Fprintf(&b, "- Part Name: %s\n", p.PartName)
		fmt.Fprintf(&b, "- Category: %s\n", p.Category)
		fmt.Fprintf(&b, "- Condition: %s\n", p.Condition)
		fmt.Fprintf(&b, "- Price: %s\n", priceOr(p.Price, "Not listed"))
		fmt.Fprintf(&b, "- Location: %s\n", orDefault(p.Location, "Not specified"))
		fmt.Fprintf(&b, "- Description: %s\n", orNone(p.Description))
		fmt.Fprintf(&b, "- Has Image: %s\n", yesNo(p.ImageURL != ""))

		b.WriteString("\nPart Requests:\n")
		for i, c := range candidates {
			r := c.Request
			ids = append(ids, r.ID)
			fmt.Fprintf(&b, "\n%d. %s (ID: %s)\n", i+1, r.PartName, r.ID)
			fmt.Fprintf(&b, "   - Category: %s\n", r.Category)
			fmt.Fprintf(&b, "   - Max Price: %s\n", priceOr(r.MaxPrice, "Not specified"))
			fmt.Fprintf(&b, "   - Condition Preference: %s\n", orDefault(r.ConditionPreference, "Any"))
			fmt.Fprintf(&b, "   - Location: %s\n", orDefault(r.Location, "Not specified"))
			fmt.Fprintf(&b, "   - Description: %s\n", orNone(r.Description))
			fmt.Fprintf(&b, "   - Requester: %s\n", profileLine(profiles, r.RequesterID))
		}
		if p.ImageURL != "" {
			images = append(images, ImageRef{
				ItemID: p.ID,
				Label:  fmt.Sprintf("Image of the available part %s (ID: %s)", p.PartName, p.ID),
				URL:    p.ImageURL,
			})
		}
	}

	fmt.Fprintf(&b, "\nAnalyze the candidates above and return the top %d best matches. Consider, in order:\n", maxResults)
	for i, dim := range comparisonDimensions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, dim)
	}

	fmt.Fprintf(&b, "\nReturn a JSON object {\"matches\": [...]} with at most %d entries of the form "+
		"{\"id\": string, \"score\": number, \"reason\": string}. "+
		"Scores are 0-100 where 100 is a perfect match. "+
		"Every id must be one of the candidate IDs enumerated above; never invent ids. "+
		"If no candidate is a plausible match, return an empty matches array.\n", maxResults)

	return RankingRequest{
		System:       systemInstruction,
		Task:         b.String(),
		CandidateIDs: ids,
		Images:       images,
		MaxResults:   maxResults,
	}
}

func orNone(s string) string { return orDefault(s, "None") }

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func priceOr(p *float64, def string) string {
	if p == nil {
		return def
	}
	return fmt.Sprintf("$%.2f", *p)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func profileLine(profiles map[string]domain.Profile, ownerID string) string {
	p, ok := profiles[ownerID]
	if !ok {
		return "Unknown (general)"
	}
	name := orDefault(p.FullName, "Unknown")
	trade := orDefault(p.TradeType, "general")
	if p.IsVerified {
		return fmt.Sprintf("%s (%s, verified)", name, trade)
	}
	return fmt.Sprintf("%s (%s)", name, trade)
}
