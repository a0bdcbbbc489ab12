package main

import (
	"os"

	"github.com/mensylisir/nodestate/cmd/nodestate/cmd"
	"github.com/mensylisir/nodestate/pkg/logger"
)

func main() {
	code := cmd.Execute()
	logger.SyncGlobal()
	os.Exit(code)
}
