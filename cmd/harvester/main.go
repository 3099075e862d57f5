package main

import (
	"github.com/bleubryce/AgentX-AI-sub001/cmd"
	"github.com/bleubryce/AgentX-AI-sub001/internal/shared"
)

func main() {
	shared.InitLogger("harvester")

	cmd.ExecuteHarvester()
}
