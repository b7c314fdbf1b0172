package post

import "strings"

// Command is one bot directive: a line of post text starting with '!'.
type Command struct {
	Action string `json:"action"` // first token, "!hit"
	Value  string `json:"value"`  // the whole line, "!hit me"
}

// Commands scans the post's text, quotes and spoilers excluded and mentions
// escaped, for command lines. Only a '!' in the very first column counts.
// limit <= 0 returns every command.
func (p *Post) Commands(limit int) []Command {
	return ParseCommands(p.Text(true, true), limit)
}

// ParseCommands is the line scanner behind Post.Commands.
func ParseCommands(text string, limit int) []Command {
	var cmds []Command
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if !strings.HasPrefix(line, "!") {
			continue
		}
		cmds = append(cmds, Command{
			Action: strings.Fields(line)[0],
			Value:  line,
		})
		if limit > 0 && len(cmds) == limit {
			break
		}
	}
	return cmds
}
