package notifier

import (
	"strconv"
	"strings"

	"github.com/cmdrelay/cmdrelay/internal/types"
)

// Variables are the substitution values available to embed templates.
type Variables struct {
	Player  string
	Command string
	Mention string
	Group   string
	World   string
	X       int
	Y       int
	Z       int
}

// VariablesFor builds the substitution set for an actor's command.
func VariablesFor(actor types.Actor, command, mention, group string) Variables {
	return Variables{
		Player:  actor.Name,
		Command: command,
		Mention: mention,
		Group:   group,
		World:   actor.Location.World,
		X:       actor.Location.X,
		Y:       actor.Location.Y,
		Z:       actor.Location.Z,
	}
}

// Render substitutes recognized placeholders in text. Unrecognized
// placeholders are left verbatim; %error% always substitutes to the empty
// string. Pure: the same text and variables always render identically.
func Render(text string, vars Variables) string {
	if text == "" {
		return ""
	}
	return strings.NewReplacer(
		"%player%", vars.Player,
		"%command%", vars.Command,
		"%mention%", vars.Mention,
		"%group%", vars.Group,
		"%world%", vars.World,
		"%x%", strconv.Itoa(vars.X),
		"%y%", strconv.Itoa(vars.Y),
		"%z%", strconv.Itoa(vars.Z),
		"%error%", "",
	).Replace(text)
}
