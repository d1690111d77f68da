// Package server implements the chat connection manager: a hub that admits
// at most one WebSocket connection per user id, assigns identity to every
// accepted message, fans frames out to all participants and answers the
// companion read endpoints for presence, history and health.
package server
