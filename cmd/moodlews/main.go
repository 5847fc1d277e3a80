package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strconv"

	"github.com/ggoodman/moodlews-go/cache/redis"
	"github.com/ggoodman/moodlews-go/client"
	"github.com/ggoodman/moodlews-go/moodle"
	"github.com/ggoodman/moodlews-go/params"
	"github.com/spf13/cobra"
)

var (
	flagURL     string
	flagToken   string
	flagDumpDir string
	flagCache   string
	flagVerbose bool
	flagOutput  string
	flagParams  string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "moodlews",
	Short:         "Call Moodle web-service functions over REST",
	Long:          "moodlews flattens parameters the way Moodle's REST server expects them, calls web-service functions and validates their answers.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateOutput(flagOutput)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagURL, "url", "", "Moodle site URL (default: $MOODLE_URL)")
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", "", "web-service token (default: $MOODLE_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&flagDumpDir, "dump-dir", "", "write every answer to <dir>/<function>.json")
	rootCmd.PersistentFlags().StringVar(&flagCache, "cache", "", "answer cache: redis (configured by $REDIS_ADDR) or empty for none")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log requests and answers to stderr")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "json", "output format: json|yaml")
	rootCmd.PersistentFlags().StringVar(&flagParams, "params-file", "", "read parameters from a JSON object file (comments allowed) before the arguments")

	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(callCmd)
	rootCmd.AddCommand(gradesCmd)
	rootCmd.AddCommand(schemaCmd)
}

var encodeCmd = &cobra.Command{
	Use:   "encode [name=value | name:=json]...",
	Short: "Print the flattened form of the given parameters",
	Long: "Each argument is a parameter. name=value passes a string; name:=json passes any JSON value, " +
		"objects becoming records and arrays sequences. The flattened keys are printed in emission order.",
	RunE: runEncode,
}

func runEncode(cmd *cobra.Command, args []string) error {
	m, err := collectParams(args)
	if err != nil {
		return err
	}
	flat, err := params.Encode(m)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	for _, p := range flat.Pairs() {
		fmt.Fprintf(w, "%s=%s\n", p.Key, p.Value)
	}
	return nil
}

var flagIgnoreWarnings bool

var callCmd = &cobra.Command{
	Use:   "call <function> [name=value | name:=json]...",
	Short: "Call a web-service function and print the data elements",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCall,
}

func init() {
	callCmd.Flags().BoolVar(&flagIgnoreWarnings, "ignore-warnings", false, "accept answers carrying warnings")
}

func runCall(cmd *cobra.Command, args []string) error {
	m, err := collectParams(args[1:])
	if err != nil {
		return err
	}
	c, closeFn, err := newClient(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeFn()

	var opts []client.CallOption
	if flagIgnoreWarnings {
		opts = append(opts, client.IgnoreWarnings())
	}
	env, err := c.Call(cmd.Context(), args[0], m, opts...)
	if err != nil {
		return err
	}

	if err := writeElements(cmd.OutOrStdout(), flagOutput, env.Elements); err != nil {
		return err
	}
	if env.Warnings.Len() > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "warnings: %s\n", env.Warnings)
	}
	return nil
}

var gradesCmd = &cobra.Command{
	Use:   "grades <assignment-id>",
	Short: "Print the latest grade of each user of an assignment",
	Args:  cobra.ExactArgs(1),
	RunE:  runGrades,
}

func runGrades(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid assignment id %q", args[0])
	}
	c, closeFn, err := newClient(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeFn()

	grades, err := moodle.New(c).Grades(cmd.Context(), id)
	if err != nil {
		return err
	}
	users := make([]int, 0, len(grades))
	for u := range grades {
		users = append(users, u)
	}
	sort.Ints(users)

	w := cmd.OutOrStdout()
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\n", u, strconv.FormatFloat(grades[u], 'f', -1, 64))
	}
	return nil
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the grade records read by the grades command",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := json.MarshalIndent(moodle.GradeSchema.JSONSchema(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	},
}

// collectParams reads --params-file, then appends the arguments.
func collectParams(args []string) (params.Map, error) {
	var m params.Map
	if flagParams != "" {
		fromFile, err := readParamsFile(flagParams)
		if err != nil {
			return nil, err
		}
		m = fromFile
	}
	fromArgs, err := parseParams(args)
	if err != nil {
		return nil, err
	}
	return append(m, fromArgs...), nil
}

func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads the environment and applies the command-line overrides.
func loadConfig() (client.Config, error) {
	cfg, err := client.ConfigFromEnv()
	if err != nil && (flagURL == "" || flagToken == "") {
		return client.Config{}, err
	}
	if flagURL != "" {
		cfg.URL = flagURL
	}
	if flagToken != "" {
		cfg.Token = flagToken
	}
	if flagDumpDir != "" {
		cfg.DumpDir = flagDumpDir
	}
	return cfg, nil
}

func newClient(ctx context.Context, logOut io.Writer) (*client.Client, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	opts := []client.Option{client.WithLogger(newLogger(logOut))}
	closeFn := func() {}

	switch flagCache {
	case "":
	case "redis":
		rc, err := redis.NewFromEnv(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
		opts = append(opts, client.WithCache(rc))
		closeFn = func() { _ = rc.Close() }
	default:
		return nil, nil, fmt.Errorf("unknown cache %q (want redis)", flagCache)
	}

	c, err := client.New(cfg, opts...)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return c, closeFn, nil
}
