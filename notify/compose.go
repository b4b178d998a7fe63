package notify

import "fmt"

// CardColor is the color of a disciplinary card.
type CardColor string

const (
	CardYellow CardColor = "yellow"
	CardRed    CardColor = "red"
)

// Goal is a goal-scored event.
type Goal struct {
	MatchID string
	Player  string
	Minute  int
}

// Card is a card-shown event.
type Card struct {
	MatchID string
	Player  string
	Minute  int
	Color   CardColor
}

// Match identifies a fixture between two teams.
type Match struct {
	MatchID string
	Home    string
	Away    string
}

// Result is a finished match with its final score.
type Result struct {
	Match
	HomeScore int
	AwayScore int
}

// GoalScored builds the payload for a goal event. The tag is deterministic
// per (kind, match) so a later goal in the same match replaces the earlier
// notification on devices configured to collapse.
func GoalScored(g Goal) Payload {
	return Payload{
		Title: "Goal!",
		Body:  fmt.Sprintf("%s scored in the %d'", g.Player, g.Minute),
		Tag:   "goal-" + g.MatchID,
		URL:   matchURL(g.MatchID),
		Data: map[string]any{
			"type":    "goal",
			"matchId": g.MatchID,
			"player":  g.Player,
			"minute":  g.Minute,
		},
	}.WithDefaults()
}

// CardShown builds the payload for a card event.
func CardShown(c Card) Payload {
	return Payload{
		Title: fmt.Sprintf("%s card", titleCase(string(c.Color))),
		Body:  fmt.Sprintf("%s was shown a %s card in the %d'", c.Player, c.Color, c.Minute),
		Tag:   "card-" + c.MatchID,
		URL:   matchURL(c.MatchID),
		Data: map[string]any{
			"type":    "card",
			"matchId": c.MatchID,
			"player":  c.Player,
			"minute":  c.Minute,
			"color":   string(c.Color),
		},
	}.WithDefaults()
}

// MatchStarted builds the payload for kick-off.
func MatchStarted(m Match) Payload {
	return Payload{
		Title: "Kick-off",
		Body:  fmt.Sprintf("%s vs %s has started", m.Home, m.Away),
		Tag:   "match-start-" + m.MatchID,
		URL:   matchURL(m.MatchID),
		Data: map[string]any{
			"type":    "match-start",
			"matchId": m.MatchID,
		},
	}.WithDefaults()
}

// MatchEnded builds the payload for full time.
func MatchEnded(r Result) Payload {
	return Payload{
		Title: "Full time",
		Body:  fmt.Sprintf("%s %d - %d %s", r.Home, r.HomeScore, r.AwayScore, r.Away),
		Tag:   "match-end-" + r.MatchID,
		URL:   matchURL(r.MatchID),
		Data: map[string]any{
			"type":      "match-end",
			"matchId":   r.MatchID,
			"homeScore": r.HomeScore,
			"awayScore": r.AwayScore,
		},
	}.WithDefaults()
}

func matchURL(matchID string) string {
	return "/matches/" + matchID
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}
