package statsd

import (
	"bufio"
	"sort"
	"strconv"
	"strings"

	"github.com/atlassian/gmetricd/pkg/store"
)

// Management protocol framing.
const (
	ConsolePrompt     = "statsd> "
	ConsoleEnd        = "END\n\n"
	ConsoleBadCommand = "ERROR\n"
	ConsoleHelp       = "Commands: stats, counters, timers, quit\n\n"
)

type consoleCommand int

const (
	cmdUnknown consoleCommand = iota
	cmdHelp
	cmdCounters
	cmdTimers
	cmdStats
	cmdQuit
)

var consoleCommands = []struct {
	name string
	cmd  consoleCommand
}{
	{"help", cmdHelp},
	{"counters", cmdCounters},
	{"timers", cmdTimers},
	{"stats", cmdStats},
	{"quit", cmdQuit},
}

// parseCommand matches the start of line against the known commands, ignoring case.
func parseCommand(line string) consoleCommand {
	line = strings.ToLower(strings.TrimSpace(line))
	for _, c := range consoleCommands {
		if strings.HasPrefix(line, c.name) {
			return c.cmd
		}
	}
	return cmdUnknown
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// writeCounters writes one "key: value" line per counter, sorted by key.
func writeCounters(w *bufio.Writer, st *store.Store) {
	type entry struct {
		key   string
		value float64
	}
	var entries []entry
	st.ForEachCounter(func(key string, value float64) {
		entries = append(entries, entry{key, value})
	})
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })
	for _, e := range entries {
		w.WriteString(e.key)
		w.WriteString(": ")
		w.WriteString(formatFloat(e.value))
		w.WriteByte('\n')
	}
}

// writeTimers writes one "key: count [s1,s2]" line per timer, sorted by key. The sample list is omitted when
// the timer is empty.
func writeTimers(w *bufio.Writer, st *store.Store) {
	type entry struct {
		key  string
		line string
	}
	var entries []entry
	st.ForEachTimer(func(key string, samples []float64) {
		var sb strings.Builder
		sb.WriteString(strconv.Itoa(len(samples)))
		if len(samples) > 0 {
			sb.WriteString(" [")
			for i, v := range samples {
				if i > 0 {
					sb.WriteByte(',')
				}
				sb.WriteString(formatFloat(v))
			}
			sb.WriteByte(']')
		}
		entries = append(entries, entry{key, sb.String()})
	})
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })
	for _, e := range entries {
		w.WriteString(e.key)
		w.WriteString(": ")
		w.WriteString(e.line)
		w.WriteByte('\n')
	}
}

// writeStats writes one "group.name: value" line per stat, sorted by key.
func writeStats(w *bufio.Writer, st *store.Store) {
	type entry struct {
		key   string
		value int64
	}
	var entries []entry
	st.ForEachStat(func(key store.StatKey, value int64) {
		entries = append(entries, entry{key.String(), value})
	})
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })
	for _, e := range entries {
		w.WriteString(e.key)
		w.WriteString(": ")
		w.WriteString(strconv.FormatInt(e.value, 10))
		w.WriteByte('\n')
	}
}

// respond writes the response to cmd. It reports whether the connection should stay open.
func respond(w *bufio.Writer, st *store.Store, cmd consoleCommand) bool {
	switch cmd {
	case cmdHelp:
		w.WriteString(ConsoleHelp)
	case cmdCounters:
		writeCounters(w, st)
		w.WriteString(ConsoleEnd)
	case cmdTimers:
		writeTimers(w, st)
		w.WriteString(ConsoleEnd)
	case cmdStats:
		writeStats(w, st)
		w.WriteString(ConsoleEnd)
	case cmdQuit:
		return false
	default:
		w.WriteString(ConsoleBadCommand)
	}
	return true
}
