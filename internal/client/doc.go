// Package client implements the connection side of the chat system: the
// transport link with its reconnect policy, the event bus that fans inbound
// frames out to the core, optimistic delivery tracking and presence
// bookkeeping. Everything is bundled behind a Client value so a user
// interface receives one explicit dependency; nothing in the package relies
// on process-global state.
package client
