package cmd

import (
	"github.com/dosco/musicserv/serv"
	"github.com/spf13/cobra"
)

func servCmd() *cobra.Command {
	c := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"serv"},
		Short:   "Run the music service",
		Run:     cmdServ,
	}
	return c
}

func cmdServ(*cobra.Command, []string) {
	if err := setup(cpath); err != nil {
		log.Fatalf("Failed to read config: %s", err)
	}

	s, err := serv.NewMusicService(conf)
	if err != nil {
		log.Fatalf("%s", err)
	}

	if err := s.Start(); err != nil {
		log.Fatalf("%s", err)
	}
}
