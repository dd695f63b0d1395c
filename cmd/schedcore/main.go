package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"schedcore/internal/cms"
	"schedcore/internal/config"
	appLog "schedcore/internal/log"
	"schedcore/internal/schedule"
)

type flagConfig struct {
	configPath string
	at         string
}

func main() {
	flags := parseFlags()
	ids := flag.Args()

	if len(ids) == 0 {
		appLog.Error("no schedule ids given", nil)
		os.Exit(2)
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	loc, err := conf.Location()
	if err != nil {
		appLog.Error("invalid timezone in config", err, "timezone", conf.Timezone)
		os.Exit(1)
	}

	appLog.Info("schedcore starting",
		"timezone", conf.Timezone,
		"cms", conf.CMS.BaseURL,
		"ids", len(ids),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := cms.NewClient(conf.CMS.BaseURL, conf.CMS.APIKey,
		time.Duration(conf.CMS.TimeoutSeconds)*time.Second)

	engine := schedule.NewEngine(client, client, schedule.Options{
		Location:                  loc,
		DefaultStartOffsetMinutes: conf.DefaultStartOffsetMinutes,
		DefaultEndOffsetMinutes:   conf.DefaultEndOffsetMinutes,
		CacheTTL:                  conf.CacheTTL(),
	})

	occurrences := engine.ResolveMany(ctx, ids)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(occurrences); err != nil {
		appLog.Error("failed to encode occurrences", err)
		os.Exit(1)
	}

	if flags.at != "" {
		at, err := time.Parse(time.RFC3339, flags.at)
		if err != nil {
			appLog.Error("invalid -at value, want RFC 3339", err, "at", flags.at)
			os.Exit(2)
		}
		within := engine.IsTimeWithinSchedules(ctx, ids, at)
		appLog.Info("within-schedules check", "at", flags.at, "within", within)
	}
}

func parseFlags() flagConfig {
	var flags flagConfig
	flag.StringVar(&flags.configPath, "config", "schedcore.yaml", "path to YAML config")
	flag.StringVar(&flags.at, "at", "", "RFC 3339 instant to test against the resolved schedules")
	flag.Parse()
	return flags
}
