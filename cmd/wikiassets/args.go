package main

import "github.com/eznix86/mediawiki-assetsource/config"

type sourcesCmd struct{}

type listCmd struct {
	Offset int `arg:"--offset" default:"0" help:"number of assets to skip"`
	Limit  int `arg:"--limit" default:"20" help:"maximum number of assets to show"`
}

type searchCmd struct {
	Term   string `arg:"positional,required" help:"search term"`
	Offset int    `arg:"--offset" default:"0" help:"number of assets to skip"`
	Limit  int    `arg:"--limit" default:"20" help:"maximum number of assets to show"`
}

type showCmd struct {
	Identifier string `arg:"positional,required" help:"asset identifier, e.g. File:Example.jpg"`
}

type countCmd struct {
	Term string `arg:"positional" help:"optional search term"`
}

type importCmd struct {
	Identifiers []string `arg:"positional,required" help:"asset identifiers to import"`
	Directory   string   `arg:"-d,--directory" help:"import directory (default from config)"`
}

type args struct {
	Config  string `arg:"-c,--config,env:WIKIASSETS_CONFIG" help:"configuration file"`
	Source  string `arg:"-s,--source" help:"asset source identifier"`
	JSON    bool   `arg:"--json" help:"print JSON instead of tables"`
	Verbose bool   `arg:"-v,--verbose" help:"log debug output"`

	Sources *sourcesCmd `arg:"subcommand:sources" help:"list configured asset sources"`
	List    *listCmd    `arg:"subcommand:list" help:"list all assets of a source"`
	Search  *searchCmd  `arg:"subcommand:search" help:"search the assets of a source"`
	Show    *showCmd    `arg:"subcommand:show" help:"show one asset with its IPTC properties"`
	Count   *countCmd   `arg:"subcommand:count" help:"count all or matching assets"`
	Import  *importCmd  `arg:"subcommand:import" help:"download assets into the import directory"`
}

func (args) Description() string {
	return "wikiassets browses, searches and imports images from MediaWiki and Wikimedia wikis.\n"
}

func (args) Version() string {
	return "wikiassets " + version
}

func (a *args) configPath() string {
	if a.Config == "" {
		return config.DefaultPath
	}
	return a.Config
}
