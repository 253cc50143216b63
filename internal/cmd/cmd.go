package cmd

import (
	"path"
	"path/filepath"

	"github.com/dosco/musicserv/internal/util"
	"github.com/dosco/musicserv/serv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// These variables are set using -ldflags
	version string
	commit  string
	date    string
)

var (
	log       *zap.SugaredLogger
	conf      *serv.Config
	cpath     string
	overrides []string
)

// Cmd runs the musicserv command line
func Cmd() {
	log = util.NewLogger(false).Sugar()

	if err := newRootCmd().Execute(); err != nil {
		log.Fatalf("Error: %s", err)
	}
}

func newRootCmd() *cobra.Command {
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:   "musicserv",
		Short: "Serve a directory of audio files over HTTP",
		Long:  BuildDetails(),
		Run:   cmdServ,
	}

	rootCmd.PersistentFlags().StringVar(&cpath,
		"path", "./config", "path to config files")

	rootCmd.PersistentFlags().StringArrayVar(&overrides,
		"set", nil, "override a config value, eg. --set route_prefix=/tunes")

	rootCmd.AddCommand(servCmd())
	rootCmd.AddCommand(confCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func setup(cpath string) error {
	if conf != nil {
		return nil
	}

	cp, err := filepath.Abs(cpath)
	if err != nil {
		return err
	}

	if conf, err = serv.ReadInConfig(path.Join(cp, serv.GetConfigName())); err != nil {
		return err
	}

	if err := conf.Set(overrides...); err != nil {
		conf = nil
		return err
	}
	return nil
}
