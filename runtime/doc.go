// Package runtime is the host execution environment the gateway runs inside.
//
// A Host verifies a signed Transaction, holds exclusive locks on the accounts
// the operation writes for as long as it runs, and executes the cross-program
// calls the operation makes through InvokeSigned. Lock conflicts fail the
// transaction immediately; nothing is retried or queued.
package runtime
