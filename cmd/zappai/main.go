// Command zappai is the operator CLI for the agronomic forecasting service:
// CSV ingest, model training, and the planting-window prediction, mirroring
// Siryoos-tartarus/cmd/tartarus's cobra command layout.
package main

import "github.com/zappai-go/zappai/cmd/zappai/cmd"

func main() {
	cmd.Execute()
}
