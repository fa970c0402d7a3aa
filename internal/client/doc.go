// Package client wires the sync engine into a runnable application: local
// store and migrations, HTTP adapters, transfer queues, the sync
// coordinator, and background workers.
//
// The host application embeds [App], feeds it a session token and
// connectivity transitions, and interacts with documents through
// [App.Documents].
package client
