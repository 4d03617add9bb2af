package game

import (
	"fmt"
	"io"
	"strings"
)

type Medal string

const (
	MedalNone   Medal = ""
	MedalGold   Medal = "gold"
	MedalSilver Medal = "silver"
	MedalBronze Medal = "bronze"
)

// Row is one line of the rendered leaderboard.
type Row struct {
	Position int
	Medal    Medal
	Username string
	Score    int64
	IsYou    bool
}

func medalFor(index int) Medal {
	switch index {
	case 0:
		return MedalGold
	case 1:
		return MedalSilver
	case 2:
		return MedalBronze
	default:
		return MedalNone
	}
}

var medalIcons = map[Medal]string{
	MedalGold:   "🥇",
	MedalSilver: "🥈",
	MedalBronze: "🥉",
}

// Render writes the leaderboard as plain text. The current player is
// marked with an asterisk.
func Render(w io.Writer, rows []Row) error {
	var b strings.Builder
	b.WriteString("Top 10 Players\n")
	if len(rows) == 0 {
		b.WriteString("  (no scores yet)\n")
	}
	for _, r := range rows {
		icon := medalIcons[r.Medal]
		if icon == "" {
			icon = "  "
		}
		name := r.Username
		if r.IsYou {
			name = "*" + name
		}
		fmt.Fprintf(&b, "%s %2d. %-21s %d\n", icon, r.Position, name, r.Score)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
