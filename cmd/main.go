/*
   BSKYWATCH - Bluesky timeline pattern watcher
   Copyright (C) 2025  Unbewohnte (Kasyanov Nikolay Alexeevich)

   This program is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   This program is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"Unbewohnte/BSKYWATCH/internal/db"
	"Unbewohnte/BSKYWATCH/internal/notify"
	"Unbewohnte/BSKYWATCH/internal/watcher"
	"Unbewohnte/BSKYWATCH/internal/watcher/bluesky"

	"github.com/mymmrac/telego"
)

const VERSION string = "0.6.0"

func printUsage() {
	fmt.Print(`bskywatch: scan Bluesky user timelines

Usage:
  bskywatch scan [name]            run configured scans (all, or one by name)
  bskywatch status [name]          show scan status
  bskywatch reset <name>           delete stored scan state
  bskywatch test <name> <post-url> dry-run a scan against a single post
  bskywatch watch                  run scans on a cron schedule
  bskywatch version                print version

Flags (per command):
  -config path   path to config file (default "config.toml")
  -execute       test: actually dispatch notifications
  -cron expr     watch: cron schedule (default "@hourly")
  -startup-scan  watch: also scan immediately on startup (default true)
`)
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "scan":
		cmdScan(args)
	case "status":
		cmdStatus(args)
	case "reset":
		cmdReset(args)
	case "test":
		cmdTest(args)
	case "watch":
		cmdWatch(args)
	case "version":
		fmt.Printf("bskywatch %s\n", VERSION)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(2)
	}
}

func setupLogs() {
	logfile, err := os.Create("logs.txt")
	if err != nil {
		log.Printf("Failed to create logs file: %v", err)
		return
	}
	log.SetOutput(io.MultiWriter(logfile, os.Stdout))
}

// loadConfig загружает и проверяет конфигурацию или завершает процесс.
func loadConfig(path string) *watcher.Config {
	conf, err := watcher.LoadConfig(path)
	if err != nil {
		log.Fatal(err)
	}

	return conf
}

// newRunner собирает все зависимости прогона: хранилище, клиент с
// открытой сессией и диспетчер уведомлений.
func newRunner(ctx context.Context, conf *watcher.Config) (*watcher.Runner, *db.DB) {
	database, err := db.NewDB(conf.Storage.Database)
	if err != nil {
		log.Fatalf("Failed to open database %s: %v", conf.Storage.Database, err)
	}

	client := bluesky.NewClient(conf.Bluesky.Service)
	if err := client.CreateSession(ctx, conf.Bluesky.Username, conf.Bluesky.Password); err != nil {
		log.Fatalf("Failed to log in to Bluesky: %v", err)
	}

	var tgBot *telego.Bot
	if conf.Telegram.Token != "" {
		tgBot, err = telego.NewBot(conf.Telegram.Token)
		if err != nil {
			log.Printf("Failed to initialize telegram bot, telegram channel disabled: %v", err)
			tgBot = nil
		}
	}

	return watcher.NewRunner(conf, database, client, notify.NewDispatcher(tgBot)), database
}

func cmdScan(args []string) {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	configPath := fs.String("config", "config.toml", "path to config file")
	fs.Parse(args)
	name := fs.Arg(0)

	conf := loadConfig(*configPath)
	if err := conf.ValidateCredentials(); err != nil {
		log.Fatal(err)
	}
	if len(conf.Scans) == 0 {
		log.Fatal("No scan configurations found in config file")
	}

	var single *watcher.ScanConfig
	if name != "" {
		scan, ok := conf.Scan(name)
		if !ok {
			log.Fatalf("Scan '%s' not found in config file", name)
		}
		single = scan
	}

	setupLogs()

	ctx := context.Background()
	runner, database := newRunner(ctx, conf)
	defer database.Close()

	if single != nil {
		if err := runner.RunScan(ctx, single); err != nil {
			log.Fatal(err)
		}
		return
	}

	runner.RunAll(ctx)
}

func cmdStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", "config.toml", "path to config file")
	fs.Parse(args)
	name := fs.Arg(0)

	conf := loadConfig(*configPath)

	database, err := db.NewDB(conf.Storage.Database)
	if err != nil {
		log.Fatalf("Failed to open database %s: %v", conf.Storage.Database, err)
	}
	defer database.Close()

	states, err := database.ListScanStates(name)
	if err != nil {
		log.Fatalf("Failed to read scan states: %v", err)
	}

	// Отсутствие данных - не ошибка
	if len(states) == 0 {
		if name != "" {
			fmt.Printf("No status found for scan '%s'\n", name)
		} else {
			fmt.Println("No scan status found. Run a scan first.")
		}
		return
	}

	fmt.Println("Scan Status:")
	fmt.Println(strings.Repeat("-", 80))
	fmt.Printf("%-20s %-20s %-20s %-20s\n", "Name", "Handle", "Last Read", "Last Run")
	fmt.Println(strings.Repeat("-", 80))

	for _, state := range states {
		fmt.Printf("%-20s %-20s %-20s %-20s\n",
			state.ScanName,
			state.Handle,
			shortTimestamp(state.LastReadTimestamp),
			shortTimestamp(state.LastRunAt),
		)
	}
}

func shortTimestamp(timestamp string) string {
	if timestamp == "" {
		return "Never"
	}
	if len(timestamp) > 19 {
		timestamp = timestamp[:19]
	}

	return strings.ReplaceAll(timestamp, " ", "T")
}

func cmdReset(args []string) {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	configPath := fs.String("config", "config.toml", "path to config file")
	fs.Parse(args)
	name := fs.Arg(0)
	if name == "" {
		log.Fatal("Usage: bskywatch reset <name>")
	}

	conf := loadConfig(*configPath)

	database, err := db.NewDB(conf.Storage.Database)
	if err != nil {
		log.Fatalf("Failed to open database %s: %v", conf.Storage.Database, err)
	}
	defer database.Close()

	existed, err := database.ResetScanState(name)
	if err != nil {
		log.Fatalf("Failed to reset scan state: %v", err)
	}

	if existed {
		fmt.Printf("Removed scan state for '%s'\n", name)
	} else {
		fmt.Printf("No scan state found for '%s'\n", name)
	}
}

func cmdTest(args []string) {
	fs := flag.NewFlagSet("test", flag.ExitOnError)
	configPath := fs.String("config", "config.toml", "path to config file")
	execute := fs.Bool("execute", false, "actually dispatch notifications for the match")
	fs.Parse(args)
	name := fs.Arg(0)
	postURL := fs.Arg(1)
	if name == "" || postURL == "" {
		log.Fatal("Usage: bskywatch test <name> <post-url> [-execute]")
	}

	conf := loadConfig(*configPath)
	if err := conf.ValidateCredentials(); err != nil {
		log.Fatal(err)
	}

	scan, ok := conf.Scan(name)
	if !ok {
		log.Fatalf("Scan '%s' not found in config file", name)
	}

	setupLogs()

	ctx := context.Background()
	runner, database := newRunner(ctx, conf)
	defer database.Close()

	if err := runner.TestPost(ctx, scan, postURL, *execute); err != nil {
		log.Fatal(err)
	}
}

func cmdWatch(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", "config.toml", "path to config file")
	cronSpec := fs.String("cron", "@hourly", "cron schedule for scan runs")
	startupScan := fs.Bool("startup-scan", true, "also scan immediately on startup")
	fs.Parse(args)

	conf := loadConfig(*configPath)
	if err := conf.ValidateCredentials(); err != nil {
		log.Fatal(err)
	}
	if len(conf.Scans) == 0 {
		log.Fatal("No scan configurations found in config file")
	}

	setupLogs()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runner, database := newRunner(ctx, conf)
	defer database.Close()

	if err := runner.Watch(ctx, *cronSpec, *startupScan); err != nil {
		log.Fatal(err)
	}
}
