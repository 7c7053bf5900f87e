package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/alecthomas/kingpin.v2"

	"quiz-autopilot/internal/cli"
	"quiz-autopilot/internal/config"
)

var (
	configPath = kingpin.Flag("config", "Path to a YAML configuration file").Short('c').String()
	debug      = kingpin.Flag("debug", "Enable debug logging").Bool()
	noColor    = kingpin.Flag("no-color", "Disable colored output").Bool()
	session    = overrideString(kingpin.Flag("session", "JSESSIONID of a logged-in quiz session"))

	runCmd     = kingpin.Command("run", "Answer questions of a course from the local question bank")
	runCourse  = overrideInt(runCmd.Flag("course", "Course id to answer"))
	runCount   = overrideInt(runCmd.Flag("count", "Stop after this many confirmed answers, 0 for unbounded"))
	runDelay   = overrideDuration(runCmd.Flag("delay", "Pause between questions"))
	runBank    = overrideString(runCmd.Flag("bank", "Question bank CSV, overrides bank_dir/<course>.csv"))
	runHistory = overrideString(runCmd.Flag("history", "SQLite run journal, '-' disables it"))

	bankCmd         = kingpin.Command("bank", "Inspect the question bank")
	bankStatsCmd    = bankCmd.Command("stats", "Print how many usable questions the bank holds")
	bankStatsCourse = overrideInt(bankStatsCmd.Flag("course", "Course whose bank to inspect"))
	bankStatsFile   = overrideString(bankStatsCmd.Flag("bank", "Question bank CSV"))
	bankLookupCmd   = bankCmd.Command("lookup", "Print the stored answer for a question")
	bankLookupCrs   = overrideInt(bankLookupCmd.Flag("course", "Course whose bank to search"))
	bankLookupFile  = overrideString(bankLookupCmd.Flag("bank", "Question bank CSV"))
	bankLookupText  = bankLookupCmd.Arg("question", "Exact question text").Required().String()

	coursesCmd = kingpin.Command("courses", "List the courses visible to the session")

	historyCmd   = kingpin.Command("history", "List recent autopilot runs")
	historyLimit = historyCmd.Flag("limit", "Number of runs to show").Default("10").Int()
	historyRun   = historyCmd.Arg("run", "Show the submissions of this run instead of listing runs").String()
)

func main() {
	kingpin.UsageTemplate(kingpin.CompactUsageTemplate).Version("0.1")
	kingpin.CommandLine.Help = "Quiz autopilot - answers course quizzes from a local question bank"
	command := kingpin.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		defaults := config.Default()
		defaults.GetLogger().Fatalf("Invalid configuration: %s", err.Error())
	}
	applyFlags(&cfg, command)
	log := cfg.GetLogger()
	if err := config.Validate(&cfg); err != nil {
		log.Fatalf("Invalid flags: %s", err.Error())
	}

	env := cli.Env{Config: cfg, Log: log, Out: os.Stdout, NoColor: *noColor}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case runCmd.FullCommand():
		err = cli.RunAutopilot(ctx, env)
	case bankStatsCmd.FullCommand():
		err = cli.BankStats(env)
	case bankLookupCmd.FullCommand():
		err = cli.BankLookup(env, *bankLookupText)
	case coursesCmd.FullCommand():
		err = cli.Courses(ctx, env)
	case historyCmd.FullCommand():
		if *historyRun != "" {
			err = cli.HistoryShow(ctx, env, *historyRun)
		} else {
			err = cli.History(ctx, env, *historyLimit)
		}
	default:
		log.Fatal("Unknown command")
	}
	if err != nil {
		stop()
		log.Fatalf("%s failed with: %s", command, err.Error())
	}
}

// applyFlags lets explicit command line flags win over file and environment
// settings.
func applyFlags(cfg *config.Config, command string) {
	if *debug {
		cfg.Mode = config.DebugMode
	}
	session.apply(&cfg.Session)

	switch command {
	case runCmd.FullCommand():
		runCourse.apply(&cfg.CourseID)
		runCount.apply(&cfg.TargetCount)
		runDelay.apply(&cfg.Delay)
		runBank.apply(&cfg.BankFile)
		runHistory.apply(&cfg.HistoryPath)
	case bankStatsCmd.FullCommand():
		bankStatsCourse.apply(&cfg.CourseID)
		bankStatsFile.apply(&cfg.BankFile)
	case bankLookupCmd.FullCommand():
		bankLookupCrs.apply(&cfg.CourseID)
		bankLookupFile.apply(&cfg.BankFile)
	}
}
