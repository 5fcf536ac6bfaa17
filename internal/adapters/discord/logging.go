package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/bft-labs/flashguard/internal/ports"
)

// routeLibraryLogs sends discordgo's internal logging through logger.
// discordgo keeps a single package-level hook, so the last caller wins.
func routeLibraryLogs(logger ports.Logger) {
	discordgo.Logger = func(level, _ int, format string, a ...interface{}) {
		msg := fmt.Sprintf(format, a...)
		field := ports.String("component", "discordgo")
		switch level {
		case discordgo.LogError:
			logger.Error(msg, field)
		case discordgo.LogWarning:
			logger.Warn(msg, field)
		case discordgo.LogInformational:
			logger.Info(msg, field)
		default:
			logger.Debug(msg, field)
		}
	}
}
