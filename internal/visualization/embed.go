package visualization

import "embed"

// templates contains the embedded HTML report template.
//
//go:embed templates/*
var templates embed.FS
