package shell

import (
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/samber/lo"

	"github.com/BR903/brainjam/config"
	"github.com/BR903/brainjam/move"
	"github.com/BR903/brainjam/redo"
)

// ShellCompleter provides context-aware autocomplete for shell commands
type ShellCompleter struct {
	sc *ShellController
}

func NewShellCompleter(sc *ShellController) *ShellCompleter {
	return &ShellCompleter{sc: sc}
}

// CommandMetadata holds autocomplete information for a command
type CommandMetadata struct {
	Args []string
}

var commandMetadata = map[string]CommandMetadata{
	"mark":      {Args: []string{"push", "pop", "swap", "drop", "list"}},
	"branching": {Args: []string{"on", "off"}},
	"check":     {Args: []string{"check", "later", "none"}},
	"help":      {Args: []string{"moves", "sessions", "bookmarks", "script"}},
	"setconfig": {
		Args: []string{
			config.ConfigDataPath, config.ConfigSessionStore, config.ConfigBranching,
			config.ConfigGraftPolicy, config.ConfigCheckMode, config.ConfigSuits,
			config.ConfigRanks, config.ConfigColumns, config.ConfigCells,
		},
	},
}

var commandNames = []string{
	"help", "deal", "show", "moves", "m", "u", "r", "jump", "prev", "better",
	"erase", "mark", "minimal", "branching", "check", "stats", "dump", "save",
	"games", "reload", "setconfig", "script", "exit",
}

// moveCompletions lists the legal moves for "m" and the recorded ones for
// "r".
func (c *ShellCompleter) moveCompletions(cmdName string) []string {
	t := c.sc.cur
	if t == nil {
		return nil
	}
	l := c.sc.layout
	if cmdName == "r" || cmdName == "redo" {
		return lo.Map(t.gp.Session().Branches(t.gp.Current()), func(b redo.Branch, _ int) string {
			return formatMove(l, b.Move)
		})
	}
	return lo.Map(t.gp.LegalMoves(), func(m move.ID, _ int) string {
		return formatMove(l, m)
	})
}

// Do implements the readline.AutoComplete interface
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])

	fields, err := shellquote.Split(text)
	if err != nil {
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	var completions []string

	if len(fields) == 0 || (len(fields) == 1 && !endsWithSpace) {
		if len(fields) == 1 {
			prefix = fields[0]
		}
		completions = commandNames
	} else {
		cmdName := fields[0]
		if !endsWithSpace {
			prefix = fields[len(fields)-1]
		}
		switch cmdName {
		case "m", "move", "r", "redo":
			completions = c.moveCompletions(cmdName)
		default:
			completions = commandMetadata[cmdName].Args
		}
	}

	var matches [][]rune
	for _, completion := range completions {
		if strings.HasPrefix(completion, prefix) {
			// Return only the part that needs to be added
			suffix := completion[len(prefix):]
			matches = append(matches, []rune(suffix))
		}
	}

	return matches, len(prefix)
}
