// Package domain contains the core domain entities and value objects for flashguard.
//
// This package represents the innermost layer of the Clean Architecture. It has
// no dependencies on infrastructure concerns (Discord, HTTP, logging) and
// contains only pure business logic.
//
// # Entities
//
//   - [Message]: A chat message as seen by the moderation core
//   - [Attachment]: A file attached to a message, possibly spoiler-marked
//   - [Batch]: A media anchor plus its announcement and trailing replies,
//     slated for joint deletion
//   - [Relay]: A transient posting identity used to re-upload media
//
// # Design Principles
//
// Domain entities are:
//   - Free of infrastructure dependencies
//   - Focused on business rules and invariants
//   - Testable without mocks or external systems
package domain
