package slack

import (
	"regexp"
	"strings"
)

const messageEventType = "message"

// mentionPattern matches a mention at the very start of a message. User ids
// start with U, enterprise ids with W. Neither the id nor the remainder
// crosses a newline, so only the first line of a message is the command.
var mentionPattern = regexp.MustCompile(`^<@(|[WU].+?)>(.*)`)

// Event is the subset of a Slack event the bot looks at.
type Event struct {
	Type      string
	Subtype   string
	Text      string
	Channel   string
	User      string
	TimeStamp string
}

// Command is a direct mention of the bot with the mention stripped.
type Command struct {
	Text    string
	Channel string
	User    string
}

// ParseDirectMention returns the mentioned id and the trimmed rest of text
// when text starts with a mention.
func ParseDirectMention(text string) (userID string, message string, ok bool) {
	matches := mentionPattern.FindStringSubmatch(text)
	if matches == nil {
		return "", "", false
	}

	return matches[1], strings.TrimSpace(matches[2]), true
}

// ParseCommand extracts a command from a plain message that starts by
// mentioning botID. Mentions of anyone else are ignored.
func ParseCommand(event Event, botID string) (Command, bool) {
	if botID == "" || event.Type != messageEventType || event.Subtype != "" {
		return Command{}, false
	}

	userID, message, ok := ParseDirectMention(event.Text)
	if !ok || userID != botID {
		return Command{}, false
	}

	return Command{Text: message, Channel: event.Channel, User: event.User}, true
}

// ParseCommands returns the commands of a batch in arrival order.
func ParseCommands(events []Event, botID string) []Command {
	var commands []Command
	for _, event := range events {
		if command, ok := ParseCommand(event, botID); ok {
			commands = append(commands, command)
		}
	}

	return commands
}
