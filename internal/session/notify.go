package session

import (
	"context"

	"github.com/ayusman/formcheck/internal/plugin"
)

// PluginHook forwards fatigue alarms, severe form faults and session ends to
// the subscribed plugins.
func PluginHook(d *plugin.Dispatcher) Hook {
	return HookFunc(func(ctx context.Context, e Event) error {
		switch e.Type {
		case EventFatigueAlarm:
			d.Dispatch(ctx, plugin.EventFatigueAlarm, e.SessionID, e.Result.Exercise, e.Result)
		case EventSevereForm:
			d.Dispatch(ctx, plugin.EventSevereForm, e.SessionID, e.Result.Exercise, e.Result)
		case EventEnd:
			d.Dispatch(ctx, plugin.EventSessionEnd, e.SessionID, e.Info.Exercise, e.Info)
		}
		return nil
	})
}
