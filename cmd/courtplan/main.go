package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jlcarver/courtplan/internal/config"
	"github.com/jlcarver/courtplan/internal/conflict"
	"github.com/jlcarver/courtplan/internal/excel"
	"github.com/jlcarver/courtplan/internal/history"
	"github.com/jlcarver/courtplan/internal/logging"
	"github.com/jlcarver/courtplan/internal/manipulate"
	"github.com/jlcarver/courtplan/internal/model"
	"github.com/jlcarver/courtplan/internal/schedule"
	"github.com/jlcarver/courtplan/internal/store"
)

const defaultConfigFile = "config.yaml"

func resolveConfigPath(configFlag string) (string, error) {
	if configFlag != "" {
		return configFlag, nil
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile, nil
	}
	return "", fmt.Errorf("no config file found. Either create %s in the current directory or pass --config", defaultConfigFile)
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "courtplan",
		Short: "Doubles round-robin tournament scheduler",
	}

	var logLevel string
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	var initOutputPath string
	initCmd := &cobra.Command{
		Use:          "init",
		Short:        "Create a starter config.yaml in the current directory",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(initOutputPath)
		},
	}
	initCmd.Flags().StringVarP(&initOutputPath, "output", "o", defaultConfigFile, "Output path for the config file")

	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Generate, validate, and edit schedules",
	}

	var configFile string
	scheduleCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default: config.yaml in current directory)")

	var outputFile, generateDB string
	generateCmd := &cobra.Command{
		Use:          "generate",
		Short:        "Generate a schedule from a config file",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath(configFile)
			if err != nil {
				return err
			}
			return runGenerate(configPath, outputFile, generateDB, logLevel)
		},
	}
	generateCmd.Flags().StringVarP(&outputFile, "output", "o", "schedule.xlsx", "Output Excel file path")
	generateCmd.Flags().StringVar(&generateDB, "db", "", "Also persist the schedule to this SQLite database")

	validateCmd := &cobra.Command{
		Use:          "validate <schedule.xlsx>",
		Short:        "Detect conflicts in a schedule workbook",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(args[0])
		},
	}

	var swapDB string
	var plainSwap bool
	swapCmd := &cobra.Command{
		Use:          "swap <round> <round>",
		Short:        "Swap two rounds of a persisted schedule",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			r1, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid round number %q", args[0])
			}
			r2, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid round number %q", args[1])
			}
			return runSwap(swapDB, r1, r2, plainSwap, logLevel)
		},
	}
	swapCmd.Flags().StringVar(&swapDB, "db", "courtplan.db", "SQLite database holding the schedule")
	swapCmd.Flags().BoolVar(&plainSwap, "no-rebalance", false, "Keep original courts instead of rebalancing (legacy retiming)")

	scheduleCmd.AddCommand(generateCmd, validateCmd, swapCmd)
	rootCmd.AddCommand(initCmd, scheduleCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runInit(outputPath string) error {
	if _, err := os.Stat(outputPath); err == nil {
		return fmt.Errorf("%s already exists; remove it first or use -o to write elsewhere", outputPath)
	}

	if err := os.WriteFile(outputPath, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("✓ Created %s\n", outputPath)
	return nil
}

const configTemplate = `# Courtplan Tournament Configuration
# ==================================
# This file defines a doubles round-robin tournament.

tournament:
  name: "Saturday Open Doubles"

  # Courts available for simultaneous play.
  court_count: 3

  # Length of one match in minutes. Also the slot size used for
  # court allocation.
  match_duration_minutes: 30

  # Scoring settings. These are carried with the tournament but do not
  # affect scheduling.
  point_limit: 11
  scoring_rule: rally
  time_limited: false

  # "individual" rotates partners every round so everyone partners with
  # everyone exactly once. "fixed_teams" pairs the participant list off
  # into permanent teams (two consecutive names per team).
  signup_mode: individual

schedule:
  date: "2026-09-12"
  start_time: "09:00"

  # Optional. Defaults to half a match, floored at 15 minutes.
  # rest_period_minutes: 15

  # Optional. Defaults to 60.
  # session_break_minutes: 60

  # Optional IANA timezone; defaults to the local timezone.
  # timezone: "America/New_York"

# At least 4. An odd count gives one rotating bye per round.
participants:
  - Alice
  - Ben
  - Carla
  - Dmitri
  - Elena
  - Farid
  - Grace
  - Hugo
`

func runGenerate(configPath, outputPath, dbPath, logLevel string) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	tournament := cfg.ModelTournament()
	participants := cfg.ModelParticipants()

	settings := schedule.DefaultSettings(tournament, cfg.StartInstant())
	if cfg.Schedule.RestPeriodMinutes != nil {
		settings.RestPeriodMinutes = *cfg.Schedule.RestPeriodMinutes
	}
	if cfg.Schedule.SessionBreakMinutes != nil {
		settings.SessionBreakMinutes = *cfg.Schedule.SessionBreakMinutes
	}

	fmt.Printf("Scheduling %d participants on %d courts...\n", len(participants), settings.CourtCount)

	sched, err := schedule.NewGenerator(settings).Generate(tournament, participants)
	if err != nil {
		return fmt.Errorf("generating schedule: %w", err)
	}

	fmt.Printf("✓ %d rounds, %d matches\n", len(sched.Rounds), len(sched.Matches))
	opt := sched.Optimization
	fmt.Printf("\nOptimization:\n")
	fmt.Printf("  %-18s %d min\n", "Total duration", opt.TotalDurationMinutes)
	fmt.Printf("  %-18s %d\n", "Sessions", opt.SessionsCount)
	fmt.Printf("  %-18s %.1f min\n", "Average rest", opt.AverageRestMinutes)
	fmt.Printf("  %-18s %.1f%%\n", "Court utilization", opt.CourtUtilization)

	conflicts := conflict.Detect(sched.Matches, sched.Rounds)
	reportConflicts(conflicts)

	f, err := excel.Generate(tournament.Name, sched, participants)
	if err != nil {
		return fmt.Errorf("generating Excel: %w", err)
	}
	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("saving file: %w", err)
	}
	fmt.Printf("\n✓ Schedule saved to %s\n", outputPath)

	if dbPath != "" {
		logger := logging.NewLogger(logging.ParseLevel(logLevel), "text")
		st, err := store.Open(dbPath, logger)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := context.Background()
		if err := st.Migrate(ctx); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}
		if err := st.SaveGeneratedSchedule(ctx, tournament, participants, sched); err != nil {
			return fmt.Errorf("persisting schedule: %w", err)
		}
		fmt.Printf("✓ Schedule persisted to %s\n", dbPath)
	}

	if len(conflict.Errors(conflicts)) > 0 {
		return fmt.Errorf("schedule has %d error conflicts", len(conflict.Errors(conflicts)))
	}
	return nil
}

func runValidate(schedulePath string) error {
	matches, rounds, err := excel.ReadSchedule(schedulePath)
	if err != nil {
		return fmt.Errorf("reading schedule: %w", err)
	}

	conflicts := conflict.Detect(matches, rounds)
	reportConflicts(conflicts)

	errs := conflict.Errors(conflicts)
	warns := conflict.Warnings(conflicts)
	fmt.Printf("\nValidation complete: %d errors, %d warnings in %d matches\n", len(errs), len(warns), len(matches))

	if len(errs) > 0 {
		return fmt.Errorf("%d conflicts must be resolved", len(errs))
	}
	return nil
}

func runSwap(dbPath string, round1, round2 int, plain bool, logLevel string) error {
	logger := logging.NewLogger(logging.ParseLevel(logLevel), "text")
	st, err := store.Open(dbPath, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	tournament, err := st.LatestTournament(ctx)
	if err != nil {
		return fmt.Errorf("loading tournament: %w", err)
	}
	if tournament == nil {
		return fmt.Errorf("no tournament found in %s; run 'courtplan schedule generate --db %s' first", dbPath, dbPath)
	}

	rounds, err := st.ListRounds(ctx, tournament.ID)
	if err != nil {
		return fmt.Errorf("loading rounds: %w", err)
	}
	matches, err := st.ListMatches(ctx, tournament.ID)
	if err != nil {
		return fmt.Errorf("loading matches: %w", err)
	}

	r1, r2 := findRound(rounds, round1), findRound(rounds, round2)
	if r1 == nil {
		return fmt.Errorf("round %d not found", round1)
	}
	if r2 == nil {
		return fmt.Errorf("round %d not found", round2)
	}

	h := history.New()
	var swapped1, swapped2 model.Round
	var updated []model.Match
	if plain {
		swapped1, swapped2, updated, err = manipulate.SwapRounds(*r1, *r2, matches, h, tournament.MatchDurationMinutes)
	} else {
		swapped1, swapped2, updated, err = manipulate.SwapRoundsWithCourtRebalancing(*r1, *r2, matches, h, tournament.MatchDurationMinutes, tournament.CourtCount)
	}
	if err != nil {
		return err
	}

	for _, r := range []model.Round{swapped1, swapped2} {
		if err := st.UpdateRound(ctx, r); err != nil {
			return fmt.Errorf("saving round: %w", err)
		}
	}
	for _, m := range updated {
		if err := st.UpdateMatch(ctx, m); err != nil {
			return fmt.Errorf("saving match: %w", err)
		}
	}

	fmt.Printf("✓ Swapped round %d with round %d\n", round1, round2)

	conflicts := conflict.Detect(updated, replaceRounds(rounds, swapped1, swapped2))
	reportConflicts(conflicts)
	return nil
}

func findRound(rounds []model.Round, number int) *model.Round {
	for i := range rounds {
		if rounds[i].RoundNumber == number {
			return &rounds[i]
		}
	}
	return nil
}

func replaceRounds(rounds []model.Round, updated ...model.Round) []model.Round {
	out := make([]model.Round, len(rounds))
	copy(out, rounds)
	for _, u := range updated {
		for i := range out {
			if out[i].ID == u.ID {
				out[i] = u
			}
		}
	}
	return out
}

func reportConflicts(conflicts []conflict.Conflict) {
	if len(conflicts) == 0 {
		fmt.Println("\n✓ No conflicts detected")
		return
	}
	fmt.Printf("\nConflicts (%d):\n", len(conflicts))
	for _, c := range conflict.Errors(conflicts) {
		fmt.Printf("  ✗ %s\n", c.Message)
	}
	for _, c := range conflict.Warnings(conflicts) {
		fmt.Printf("  ⚠ %s\n", c.Message)
	}
}
