package main

import (
	"fmt"
	"io"

	"github.com/alecthomas/kong"

	"github.com/eihrteam/postserver/pkg/config"
)

// CLI defines the command-line interface structure for Kong. Flags left
// unset fall back to the config file, PS_* variables and built-in defaults.
type CLI struct {
	Config    string `help:"Path to a YAML config file." type:"path" env:"PS_CONFIG" placeholder:"FILE"`
	PostsDir  string `short:"p" name:"posts-dir" help:"Root directory holding {lang}/{id}.md posts (default ../server/posts)." env:"POSTS_DIR" placeholder:"DIR"`
	Host      string `short:"H" help:"Address to listen on (default 0.0.0.0)." env:"HOST"`
	Port      int    `short:"P" help:"Port to listen on (default 3002)." env:"PORT"`
	LogLevel  string `name:"log-level" help:"Log level: debug, info, warn or error." enum:",debug,info,warn,error" default:""`
	LogFormat string `name:"log-format" help:"Log format: json or text." enum:",json,text" default:""`

	Version kong.VersionFlag `help:"Print version and exit."`
}

// parseCLI parses args into a CLI. Help and version output go to stdout and
// return errExit instead of terminating the process.
func parseCLI(args []string, stdout, stderr io.Writer) (*CLI, error) {
	cli := &CLI{}
	exited := false
	parser, err := kong.New(cli,
		kong.Name("postserver"),
		kong.Description("Serve markdown posts from a content directory over a read-only JSON API."),
		kong.Writers(stdout, stderr),
		kong.Vars{"version": version},
		kong.Exit(func(int) { exited = true }),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create parser: %w", err)
	}
	if _, err := parser.Parse(args); err != nil {
		return nil, err
	}
	if exited {
		return nil, errExit
	}
	return cli, nil
}

// loadConfig reads the config file and layers explicit flag values on top.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	if c.PostsDir != "" {
		cfg.Content.PostsDir = c.PostsDir
	}
	if c.Host != "" {
		cfg.Server.Host = c.Host
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if c.LogLevel != "" {
		cfg.Logging.Level = c.LogLevel
	}
	if c.LogFormat != "" {
		cfg.Logging.Format = c.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
