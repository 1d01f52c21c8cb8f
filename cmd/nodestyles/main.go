/*
Command nodestyles prints the cascade of styles of an element of an HTML
document.

	nodestyles --select '#intro' --css site.css index.html

Style sheets are the default user-agent style sheet, user style sheets given
with --user-css, the <style> elements of the document, and author style
sheets given with --css. Output is a tree of the declarations of the
element and its ancestors, highest precedence first. Effective properties
are marked ✓, overridden ones ✗.

Configuration is read from a file nodestyles.{yaml,toml,json} in the
current directory or in $HOME/.config/nodestyles, or from the file given
with --config. Environment variables NODESTYLES_<KEY> override the
configuration file, flags override both.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/npillmayer/schuko"
	"github.com/npillmayer/schuko/schukonf/viperadapter"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "nodestyles [flags] document.html",
		Short: "Show the cascade of styles of an element",
		Long: `nodestyles matches style sheets against an element of an HTML document
and prints the resulting cascade, including what the element inherits from
its ancestors.`,
		Example: `  # Styles of the body element, user-agent and document styles only
  nodestyles index.html

  # Styles of an element with additional style sheets
  nodestyles -s 'p.note' --css site.css --css print.css index.html

  # Styles while hovering, with computed values
  nodestyles -s 'a' --force hover --computed index.html`,
		Args:              cobra.ExactArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return initConfig() },
		RunE:              run,
		SilenceUsage:      true,
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Configuration file")
	flags.StringP("select", "s", "body", "Selector of the element to inspect")
	flags.StringSlice("css", nil, "Author style sheets")
	flags.StringSlice("user-css", nil, "User style sheets")
	flags.StringSlice("force", nil, "Dynamic pseudo-classes to force on the element (e.g., hover)")
	flags.Bool("no-user-agent", false, "Do not use the default user-agent style sheet")
	flags.Bool("computed", false, "Print computed values as well")
	flags.Bool("include-pseudo", true, "Include the styles of pseudo-elements")
	flags.Bool("include-inherited", true, "Include the styles inherited from ancestors")
	flags.Bool("wait-for-dispatches", true, "Wait for pending notifications before finishing a refresh")
	flags.String("trace", "", "Trace level: error, info or debug (default: no tracing)")
	flags.Duration("timeout", 10*time.Second, "Timeout for computing the styles")
	_ = viper.BindPFlags(flags)
}

// initConfig reads the configuration and sets up tracing.
func initConfig() error {
	conf := viperadapter.New("nodestyles")
	conf.InitDefaults()
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("nodestyles")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.config/nodestyles")
	}
	viper.SetEnvPrefix("NODESTYLES")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading configuration: %w", err)
		}
	}
	setupTracing(conf)
	return nil
}

// setupTracing routes all tracers to the adapter named by configuration key
// 'tracing', if a trace level is configured.
func setupTracing(conf schuko.Configuration) {
	level := conf.GetString("trace")
	if level == "" {
		return
	}
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	adapter := tracing.GetAdapterFromConfiguration(conf, "tracing")
	tracing.SetTraceSelector(tracing.SelectorForAdapter(adapter))
	tracing.Select("nodestyles").SetTraceLevel(tracing.TraceLevelFromString(level))
}

func run(cmd *cobra.Command, args []string) error {
	req := request{
		Document:    args[0],
		Selector:    viper.GetString("select"),
		CSS:         viper.GetStringSlice("css"),
		UserCSS:     viper.GetStringSlice("user-css"),
		Force:       viper.GetStringSlice("force"),
		NoUserAgent: viper.GetBool("no-user-agent"),
		Computed:    viper.GetBool("computed"),
		Options:     defaultOptions(),
	}
	if err := viper.Unmarshal(&req.Options); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), viper.GetDuration("timeout"))
	defer cancel()
	out, err := inspect(ctx, afero.NewOsFs(), req)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
