package slack

import "fmt"

// SponsorshipEvent is the typed GitHub Sponsors webhook payload.
type SponsorshipEvent struct {
	Action      string `json:"action"`
	Sponsorship struct {
		Sponsor struct {
			Login string `json:"login"`
		} `json:"sponsor"`
		Tier struct {
			Name string `json:"name"`
		} `json:"tier"`
	} `json:"sponsorship"`
}

// SponsorsMessage translates a GitHub Sponsors event into the notification
// posted on the org channel, with an emoji keyed to the action.
func SponsorsMessage(event SponsorshipEvent) string {
	emote := ":tada:"
	switch event.Action {
	case "cancelled", "pending_cancellation":
		emote = ":sob:"
	case "edited", "tier_changed", "pending_tier_change":
		emote = ":rotating_light:"
	}

	return fmt.Sprintf(sponsorUpdate,
		emote, event.Action, event.Sponsorship.Sponsor.Login, event.Sponsorship.Tier.Name)
}
