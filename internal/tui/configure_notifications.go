package tui

import (
	"github.com/charmbracelet/huh"
	"github.com/confersense/confersense/internal/config"
	"github.com/confersense/confersense/internal/deps"
)

const notifyOff = "off"

// notificationChoice maps the stored pair of fields onto one menu value
func notificationChoice(n config.NotificationsConfig) string {
	if !n.Enabled || n.Type == "" || n.Type == "none" {
		return notifyOff
	}
	return n.Type
}

// applyNotificationChoice is the inverse of notificationChoice
func applyNotificationChoice(cfg *config.Config, choice string) {
	if choice == notifyOff {
		cfg.Notifications.Enabled = false
		return
	}
	cfg.Notifications.Enabled = true
	cfg.Notifications.Type = choice
}

// editNotifications picks where session start, idle and error events go
func editNotifications(cfg *config.Config) error {
	choice := notificationChoice(cfg.Notifications)

	desktop := "Desktop popup (notify-send)"
	if st := deps.Check(deps.NotifySend); !st.Installed {
		desktop += " - notify-send not found"
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Session Notifications").
				Description("Announce when a session starts listening, stops, or fails").
				Options(
					huh.NewOption(desktop, "desktop"),
					huh.NewOption("Daemon log only", "log"),
					huh.NewOption("Off", notifyOff),
				).
				Value(&choice),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	applyNotificationChoice(cfg, choice)
	return nil
}
