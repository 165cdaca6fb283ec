package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophloyalty/internal/client/models"
	"github.com/dmitrijs2005/gophloyalty/internal/client/services"
)

type toggle struct {
	name string
	get  func(models.NotificationSettings) bool
	set  func(services.SettingsService, context.Context, bool) (models.NotificationSettings, error)
}

var toggles = []toggle{
	{"push", func(s models.NotificationSettings) bool { return s.PushEnabled }, services.SettingsService.SetPush},
	{"email", func(s models.NotificationSettings) bool { return s.EmailEnabled }, services.SettingsService.SetEmail},
	{"sms", func(s models.NotificationSettings) bool { return s.SMSEnabled }, services.SettingsService.SetSMS},
	{"whatsapp", func(s models.NotificationSettings) bool { return s.WhatsAppEnabled }, services.SettingsService.SetWhatsApp},
	{"deals", func(s models.NotificationSettings) bool { return s.DealsAlerts }, services.SettingsService.SetDealsAlerts},
	{"points", func(s models.NotificationSettings) bool { return s.PointsAlerts }, services.SettingsService.SetPointsAlerts},
	{"tier", func(s models.NotificationSettings) bool { return s.TierAlerts }, services.SettingsService.SetTierAlerts},
}

func parseSwitch(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", v)
}

func (a *App) printSettings(st models.NotificationSettings) {
	for _, t := range toggles {
		a.printf("  %-9s %s\n", t.name, onOff(t.get(st)))
	}
}

// Settings shows the notification preferences, or changes one when called
// as "settings <name> on|off".
func (a *App) Settings(ctx context.Context, args []string) error {
	if len(args) == 0 {
		st, err := a.settings.Get(ctx)
		if err != nil {
			a.printf("(could not load settings: %v)\n", err)
		}
		a.printSettings(st)
		return nil
	}
	if len(args) != 2 {
		return errors.New("usage: settings [push|email|sms|whatsapp|deals|points|tier on|off]")
	}

	on, err := parseSwitch(args[1])
	if err != nil {
		return err
	}
	for _, t := range toggles {
		if t.name != strings.ToLower(args[0]) {
			continue
		}
		st, err := t.set(a.settings, ctx, on)
		if err != nil {
			return err
		}
		a.printSettings(st)
		return nil
	}
	return fmt.Errorf("unknown setting %q", args[0])
}

// Theme flips the light/dark preference stored on this device.
func (a *App) Theme(ctx context.Context) error {
	next, err := a.appearance.Toggle(ctx)
	if err != nil {
		return err
	}
	a.printf("Theme: %s\n", next)
	return nil
}
