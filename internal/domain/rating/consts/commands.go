// Package consts contains constants for the rating domain
package consts

// Command represents a bot command
type Command struct {
	Name        string
	Description string
	// Privileged commands answer only the rating owner
	Privileged bool
}

// Bot commands
var (
	CommandStart  = Command{Name: "start", Description: "Start the bot"}
	CommandHelp   = Command{Name: "help", Description: "Show help message"}
	CommandReport = Command{Name: "report", Description: "Rating report for sources and experts", Privileged: true}
	CommandTop    = Command{Name: "top", Description: "Best rated items: /top [source|expert] [category]", Privileged: true}
	CommandDigest = Command{Name: "digest", Description: "Plan the next digest", Privileged: true}
)

// AllCommands contains all available bot commands for menu registration
var AllCommands = []Command{
	CommandStart,
	CommandHelp,
	CommandReport,
	CommandTop,
	CommandDigest,
}
