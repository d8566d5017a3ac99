// Package appfs embeds static application assets.
package appfs

import "embed"

//go:embed migrations
var FS embed.FS
