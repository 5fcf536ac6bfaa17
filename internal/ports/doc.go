// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// In Clean Architecture / Hexagonal Architecture, ports are the boundaries
// between the application core and the outside world. They define what the
// application needs from external systems without specifying how those needs
// are fulfilled.
//
// # Port Interfaces
//
//   - [Gateway]: Session lifecycle and inbound message delivery
//   - [Messenger]: Sending, deleting and reading channel messages
//   - [GuildDirectory]: Role and permission lookups
//   - [RelayService]: Transient webhook identities for re-uploads
//   - [Platform]: Everything above, as provided by a chat platform adapter
//   - [Downloader]: Fetches attachment bytes
//   - [Logger]: Structured logging abstraction
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement these interfaces
// with concrete implementations (discordgo, retryablehttp, zerolog, etc.).
package ports
