package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dkeye/SyncSound/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func envName(flag string) string {
	return config.EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

func newCmd(in io.Reader, out io.Writer) *cobra.Command {
	v := config.New()

	cmd := &cobra.Command{
		Use:           "syncsound",
		Short:         "Headless client for SyncSound listening rooms.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), v, in, out)
		},
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	usage := func(text, flag string) string {
		return fmt.Sprintf("%s (env: %s)", text, envName(flag))
	}
	fs.String("config", "", usage("config file, default config/config.<CONFIG_ENV>.yaml", "config"))
	fs.String("supabase-url", v.GetString("supabase_url"), usage("identity and record service url", "supabase-url"))
	fs.String("supabase-anon-key", v.GetString("supabase_anon_key"), usage("identity and record service key", "supabase-anon-key"))
	fs.String("backend-url", v.GetString("backend_url"), usage("realtime backend url", "backend-url"))
	fs.Int("reconnect-attempts", v.GetInt("reconnect_attempts"), usage("realtime reconnection attempts", "reconnect-attempts"))
	fs.Duration("reconnect-delay", v.GetDuration("reconnect_delay"), usage("delay between reconnection attempts", "reconnect-delay"))
	fs.StringSlice("transports", v.GetStringSlice("transports"), usage("realtime transport preference", "transports"))
	fs.Duration("timeout", v.GetDuration("timeout"), usage("realtime connect timeout", "timeout"))
	fs.Duration("ping-period", v.GetDuration("ping_period"), usage("realtime keepalive period", "ping-period"))
	fs.String("database-url", v.GetString("database_url"), usage("direct postgres dsn for rooms and the change feed", "database-url"))
	fs.String("backend", v.GetString("backend"), usage("identity backend: supabase or local", "backend"))
	fs.String("debug-addr", v.GetString("debug_addr"), usage("debug http address, development only", "debug-addr"))
	fs.Bool("development", v.GetBool("development"), usage("development mode", "development"))
	fs.BoolP("verbose", "v", v.GetBool("verbose"), usage("debug logging", "verbose"))

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("syncsound v{{.Version}}\n")

	return cmd
}
