package usecases

import (
	"fmt"
	"strings"
	"time"
)

func describeImagePrompt(today time.Time) string {
	return `Look at this photo of an item someone wants to donate and answer with a JSON object containing every one of these fields:
{
  "title": "short descriptive title, at most 50 characters",
  "description": "one or two sentences about the item and its condition",
  "category": "one category such as Food, Clothing, Furniture, Electronics, Books, Toys or Household Items",
  "expiry_date": "YYYY-MM-DD or null",
  "estimated_value": number
}

expiry_date: for perishable food predict a future expiry date from the item type, its visible freshness and any printed label. Today is ` + today.Format(time.DateOnly) + `. For anything non-perishable use null. Always include the field.

estimated_value: a conservative US dollar value reflecting condition, age and market value. Plain number, no currency symbol. Use 0 for items with no real value. Always include the field.`
}

// ItemInput is the user-supplied description of a donation under review.
type ItemInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Image       string `json:"imageBase64"` // optional data URL or raw base64
}

func estimateValuePrompt(in ItemInput, hasImage bool) string {
	var b strings.Builder
	b.WriteString("Estimate a conservative US dollar value for this donated item.\n\n")
	fmt.Fprintf(&b, "Title: %s\n", orNotProvided(in.Title))
	fmt.Fprintf(&b, "Description: %s\n", orNotProvided(in.Description))
	if in.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", in.Category)
	}
	if hasImage {
		b.WriteString("\nA photo of the item is attached.\n")
	} else {
		b.WriteString("\nThere is no photo, so judge from the text alone.\n")
	}
	b.WriteString(`
Take condition, age and typical resale value into account and stay on the low side. Use 0 for worn out or worthless items.

Reply with only this JSON object:
{"estimated_value": <number>}

For example a used paperback is {"estimated_value": 5}, a working appliance {"estimated_value": 50}.`)
	return b.String()
}

func moderationPrompt(in ItemInput, hasImage bool) string {
	var b strings.Builder
	b.WriteString("You review postings on a community donation platform. Decide whether this posting is a genuine donation or abusive, fake or troll content.\n\n")
	fmt.Fprintf(&b, "Title: %q\nDescription: %q\n", in.Title, in.Description)
	if in.Category != "" {
		fmt.Fprintf(&b, "Category: %q\n", in.Category)
	}
	if hasImage {
		b.WriteString("Image: attached\n")
	}
	b.WriteString(`
A posting is acceptable only if it offers a real item that can be donated, contains no hateful, explicit or profane content, is not spam, a scam, a prank or harassment, and stays on the topic of donating.`)
	if hasImage {
		b.WriteString(" The image must show a real item that matches the description.")
	}
	b.WriteString(`

Reply with only this JSON object:
{"isAcceptable": true or false, "reason": "short explanation when not acceptable, otherwise empty"}`)
	return b.String()
}

func statisticsPrompt(descriptions []string) string {
	return `These are the currently open help requests on a donation platform:

` + strings.Join(descriptions, "\n\n") + `

Estimate:
- totalRequestsLast4Weeks: how many requests the last four weeks likely saw, given typical request frequency
- donationGoalUSD: the dollar amount needed to fulfil these requests
- peopleHelped: how many people fulfilling them would help, counting households

Reply with only this JSON object:
{"totalRequestsLast4Weeks": <number>, "donationGoalUSD": <number>, "peopleHelped": <number>}`
}

func locationNamePrompt(lat, lon float64) string {
	return fmt.Sprintf(`Give a human-readable name for the place at latitude %v, longitude %v.

Use a form like "City, State/Province, Country", for example "Philadelphia, PA, USA" or "Lyon, France". For open water or remote areas name the nearest notable place or describe the area.

Reply with the name only. No JSON and no explanation.`, lat, lon)
}

func orNotProvided(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Not provided"
	}
	return s
}
