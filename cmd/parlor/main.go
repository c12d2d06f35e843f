package main

import (
	"github.com/rs/zerolog/log"

	"github.com/parlorchat/parlor/cmd/parlor/cmds"
)

func main() {
	if err := cmds.NewRootCmd().Execute(); err != nil {
		log.Fatal().Err(err).Msg("parlor failed")
	}
}
