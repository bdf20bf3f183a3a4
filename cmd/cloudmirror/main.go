// Command cloudmirror mirrors local files and directories to cloud remotes
// through an rclone remote-control daemon.
package main

import (
	"os"

	"github.com/custodia-labs/cloudmirror-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/cloudmirror-cli/internal/adapters/driving/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetBuilder(buildServices)
	cli.SetManifestWriter(file.WriteExampleManifest)

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
