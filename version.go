package cairn

import _ "embed"

// Version exposes the version of the library, embedded from the VERSION
// file so releases only touch one place.
//
//go:embed VERSION
var Version string
