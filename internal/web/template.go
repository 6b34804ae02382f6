package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/rain-valve/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"duration": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		switch {
		case days > 0:
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		case h > 0:
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		case m > 0:
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"orUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
	"clock": func(t time.Time) string {
		return t.Format("15:04:05")
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="2">
<title>Rain Valve</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.open { color: green; font-weight: bold; }
.closed { color: #888; }
.locked { color: red; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Rain Valve</h1>

<h2>State</h2>
<table>
<tr><th>Mode</th><td id="mode">{{orUnknown (printf "%s" .View.Mode)}}</td></tr>
<tr><th>Valve</th><td id="valve" class="{{if eq (printf "%s" .View.Valve) "OPEN"}}open{{else}}closed{{end}}">{{orUnknown (printf "%s" .View.Valve)}}</td></tr>
{{if .View.Locked}}<tr><th>Quota</th><td class="locked">locked until midnight</td></tr>{{end}}
{{if eq (printf "%s" .View.Mode) "TIMED"}}<tr><th>Timer</th><td>{{duration .View.TimedElapsed}} of {{duration .View.TimedCap}}</td></tr>{{end}}
<tr><th>Session</th><td>{{duration .View.SessionElapsed}}</td></tr>
<tr><th>Buttons ready</th><td>{{if .Baselined}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Today</h2>
<table>
<tr><th>Open time</th><td>{{duration .View.DayElapsed}} of {{duration .View.DailyCap}}</td></tr>
<tr><th>Remaining</th><td>{{duration .View.DayRemaining}}</td></tr>
<tr><th>Opened</th><td>{{.View.Opens}} times</td></tr>
{{with .View.LastSession}}<tr><th>Last open</th><td>{{clock .OpenedAt}} for {{duration (.Duration $.Now)}}</td></tr>{{end}}
{{if .View.ResetPending}}<tr><th>Day reset</th><td>pending valve close</td></tr>{{end}}
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{duration .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>Daily schedule</th><td>{{if .Config.TimedStart}}{{.Config.TimedStart}}{{else}}none{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> · <a href="/metrics">metrics</a></p>
</body>
</html>
`

type page struct {
	status.Snapshot
	Uptime time.Duration
}

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has Uptime() method but template needs a Duration field.
	return indexTmpl.Execute(w, page{Snapshot: snap, Uptime: snap.Uptime()})
}
