// Command dubwatch is the CLI front end for the dubwatch daemon. The
// daemon subcommand runs the watch process; every other subcommand talks
// to a running daemon over its Unix control socket.
package main
