// Package buildinfo holds version information injected at build time:
//
//	go build -ldflags "-X github.com/matzehuels/transitnet/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/matzehuels/transitnet/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/transitnet/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	    ./cmd/transitnet
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String returns the build information, one field per line.
func String() string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s", Version, Commit, Date)
}

// Template returns the cobra version template for the root command.
func Template() string {
	return "{{.Name}} " + String() + "\n"
}
