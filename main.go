// Package main provides the entry point for the Light Table application.
package main

import (
	"log/slog"
	"os"
	"time"

	"light-table/internal/app"
	"light-table/internal/version"
	"light-table/ui/mainwindow"
	"light-table/ui/prefs"

	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"
)

const appTitle = "Light Table"

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	slog.Info("starting", "app", appTitle, "version", version.Version)

	fyneApp := fyneapp.NewWithID("io.lighttable.app")
	fyneApp.Settings().SetTheme(&app.LightTableTheme{})

	appState := app.NewState()
	settings := prefs.Open()

	win := mainwindow.New(fyneApp, appState, settings)

	// An arrangement named on the command line wins over the one from
	// the previous run.
	if len(os.Args) > 1 {
		sessionPath := os.Args[1]
		if _, err := appState.LoadSession(sessionPath); err != nil {
			slog.Error("could not load arrangement", "path", sessionPath, "error", err)
		}
	} else {
		win.RestoreLastSession()
	}

	setupHotReload(win)

	win.ShowAndRun()
}

// setupHotReload configures automatic restart detection when the binary is recompiled.
func setupHotReload(win *mainwindow.MainWindow) {
	reloader := app.NewHotReloader(2 * time.Second)
	if reloader == nil {
		slog.Info("hot reload disabled: unable to determine executable path")
		return
	}

	slog.Info("hot reload watching binary",
		"path", reloader.ExecPath(),
		"modified", reloader.Baseline().Format("15:04:05"))

	reloader.OnTick(func() {
		win.SavePreferencesIfChanged()
	})

	reloader.OnNewBinary(func() {
		slog.Info("hot reload: newer binary detected")
		dialog.ShowConfirm("New Version Available",
			"The application binary has been updated.\nRestart now?",
			func(restart bool) {
				if !restart {
					reloader.ResetBaseline()
					reloader.Start()
					return
				}
				win.SavePreferences()
				slog.Info("hot reload: restarting")
				if err := reloader.Restart(); err != nil {
					slog.Error("hot reload restart failed", "error", err)
				}
			}, win.Window)
	})

	reloader.Start()
}
