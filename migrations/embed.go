// Package migrations embeds the gateway's SQL schema migrations so the
// binary can bring its session store up to date on boot.
package migrations

import "embed"

// Files holds every SQL migration shipped with the binary.
//
//go:embed *.sql
var Files embed.FS
