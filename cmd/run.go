package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/jmg8766/Firewall-Simulator/config"
	"github.com/jmg8766/Firewall-Simulator/controllers"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func run(c *cli.Context) error {
	cfg := config.Default()
	if settingsFile := c.String("config"); settingsFile != "" {
		loaded, err := config.Load(settingsFile)
		if err != nil {
			return cli.Exit(err, 1)
		}
		cfg = loaded
	}
	if rulesFile := c.String("rules"); rulesFile != "" {
		cfg.Firewall.Rules = rulesFile
	}
	if cfg.Firewall.Rules == "" {
		return cli.Exit("a rules file is required, pass --rules or set firewall.rules in the settings file", 1)
	}

	logger := logrus.New()
	logger.Out = os.Stdout
	logger.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
	})
	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return cli.Exit(err, 1)
	}
	logger.SetLevel(level)

	ctrl, err := controllers.NewControllersManager(cfg, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to configure firewall")
		return cli.Exit(err, 1)
	}

	if err := ctrl.Start(c.Context); err != nil {
		return cli.Exit(err, 1)
	}

	go menu(ctrl)
	ctrl.Shutdown()

	if err := ctrl.Err(); err != nil {
		return cli.Exit(err, 1)
	}
	return nil
}

func displayMenu() {
	fmt.Println()
	fmt.Println("1. Block All")
	fmt.Println("2. Allow All")
	fmt.Println("3. Filter")
	fmt.Println("0. Exit")
	fmt.Print("> ")
}

// menu is the operator control surface: each command maps to a mode
// transition, except exit which shuts the firewall down.
func menu(ctrl *controllers.ControllersManager) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		displayMenu()
		if !scanner.Scan() {
			// Treat a closed stdin like an exit command.
			ctrl.Stop()
			return
		}

		switch strings.TrimSpace(scanner.Text()) {
		case "1":
			ctrl.SetMode(controllers.ModeBlockAll)
		case "2":
			ctrl.SetMode(controllers.ModeAllowAll)
		case "3":
			ctrl.SetMode(controllers.ModeFilter)
		case "0":
			ctrl.Stop()
			return
		case "":
		default:
			fmt.Println("invalid choice")
		}
	}
}
