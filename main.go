// Main package for the musicserv service
/*
musicserv serves a directory of audio files over HTTP.

Usage:
  musicserv [flags]
  musicserv [command]

Available Commands:
  serve       Run the music service
  conf        Print the effective config
  version     Version information
  help        Help about any command

Flags:
  -h, --help              help for musicserv
      --path string       path to config files (default "./config")
      --set stringArray   override a config value, eg. --set route_prefix=/tunes

Use "musicserv [command] --help" for more information about a command.
*/
package main

import "github.com/dosco/musicserv/internal/cmd"

func main() {
	cmd.Cmd()
}
