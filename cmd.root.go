package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

// rootOptions are the flags shared by every command.
type rootOptions struct {
	configFile string
	envFile    string
	baseURL    string
}

// loadConfig reads the configuration files and the environment, then
// applies the --base-url override.
func (o *rootOptions) loadConfig() (*Config, error) {
	config, err := LoadAndInitConfigs(o.configFile, o.envFile, GitCommit, GitTag, BuildTime)
	if err != nil {
		return nil, err
	}
	if o.baseURL != "" {
		u, perr := url.Parse(o.baseURL)
		if perr != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid --base-url %q", o.baseURL)
		}
		config.Backend.BaseURL = strings.TrimRight(o.baseURL, "/")
	}
	return config, nil
}

// NewRootCommand builds the library-admin command tree. Without
// subcommand the admin service is started.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	serve := newServeCommand(opts)
	root := &cobra.Command{
		Use:           "library-admin",
		Short:         "Administration front end of the library REST service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "./config.yml", "path of the yaml configuration file")
	root.PersistentFlags().StringVar(&opts.envFile, "env", "./config.env", "path of the optional dotenv file")
	root.PersistentFlags().StringVar(&opts.baseURL, "base-url", "", "library backend base url, overrides the configuration")

	root.AddCommand(serve, newVersionCommand())
	root.AddCommand(
		newResourceCommand(AuthorResource, func(c *Clients) ResourceService[Author, AuthorDraft] { return c.Authors }, opts),
		newResourceCommand(BookResource, func(c *Clients) ResourceService[Book, BookDraft] { return c.Books }, opts),
		newResourceCommand(PublisherResource, func(c *Clients) ResourceService[Publisher, PublisherDraft] { return c.Publishers }, opts),
		newResourceCommand(CategoryResource, func(c *Clients) ResourceService[Category, CategoryDraft] { return c.Categories }, opts),
		newResourceCommand(BorrowResource, func(c *Clients) ResourceService[Borrow, BorrowDraft] { return c.Borrows }, opts),
	)
	return root
}
