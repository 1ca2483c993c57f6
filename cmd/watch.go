package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tidybar/tidybar/internal/config"
	"github.com/tidybar/tidybar/internal/model"
	"github.com/tidybar/tidybar/internal/placement"
	"github.com/tidybar/tidybar/internal/platform"
	"github.com/tidybar/tidybar/internal/scanner"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the menu bar and stream lane changes as JSONL",
	Long: `Continuously rescan the bar and emit changes (items appearing, disappearing,
or changing lanes) as JSONL to stdout. No output is emitted while the bar is
stable.

Output is always JSONL regardless of the --format flag.

Use Ctrl+C or --duration to stop watching.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().Int("interval", 1000, "Polling interval in milliseconds")
	watchCmd.Flags().Int("duration", 0, "Max seconds to watch (0 = until Ctrl+C)")
}

// laneState is one item's last observed lane, keyed by item id.
type laneState struct {
	Owner string
	Lane  string
}

func runWatch(cmd *cobra.Command, args []string) error {
	provider, err := platform.NewProvider()
	if err != nil {
		return err
	}
	sp, err := settingsPath()
	if err != nil {
		return err
	}
	settings, err := config.Load(sp)
	if err != nil {
		return err
	}
	intervalMs, _ := cmd.Flags().GetInt("interval")
	durationSec, _ := cmd.Flags().GetInt("duration")

	sc := scanner.New(provider, logger)
	resolver := placement.New(logger)
	resolver.SetAlwaysHidden(settings.AlwaysHidden)

	observe := func() map[string]laneState {
		items := sc.Scan(scanner.Options{})
		resolver.SetDividers(sc.Dividers())
		curr := make(map[string]laneState, len(items))
		for _, it := range items {
			curr[it.ID] = laneState{Owner: it.Owner, Lane: resolver.Place(it).String()}
		}
		return curr
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)

	interval := time.Duration(intervalMs) * time.Millisecond
	var deadline time.Time
	if durationSec > 0 {
		deadline = time.Now().Add(time.Duration(durationSec) * time.Second)
	}
	start := time.Now()

	// Initial scan to establish the baseline.
	prev := observe()
	enc.Encode(map[string]interface{}{
		"type":  "snapshot",
		"ts":    time.Now().Unix(),
		"count": len(prev),
	})

	eventCount := 0
	ctx := cmd.Context()

	for {
		if durationSec > 0 && time.Now().After(deadline) {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}

		curr := observe()
		for id, st := range curr {
			old, ok := prev[id]
			switch {
			case !ok:
				enc.Encode(map[string]interface{}{
					"type": "added", "ts": time.Now().Unix(),
					"id": id, "owner": st.Owner, "lane": st.Lane,
				})
				eventCount++
			case old.Lane != st.Lane:
				enc.Encode(map[string]interface{}{
					"type": "moved", "ts": time.Now().Unix(),
					"id": id, "from": old.Lane, "to": st.Lane,
				})
				eventCount++
			}
		}
		for id, old := range prev {
			if _, ok := curr[id]; ok {
				continue
			}
			// A renumbered id is a rename, not a departure.
			if drifted, ok := driftedTo(id, old, curr, prev); ok {
				enc.Encode(map[string]interface{}{
					"type": "renamed", "ts": time.Now().Unix(),
					"id": id, "to": drifted,
				})
			} else {
				enc.Encode(map[string]interface{}{
					"type": "removed", "ts": time.Now().Unix(), "id": id,
				})
			}
			eventCount++
		}
		prev = curr
	}

	elapsed := time.Since(start)
	enc.Encode(map[string]interface{}{
		"type":    "done",
		"ts":      time.Now().Unix(),
		"elapsed": fmt.Sprintf("%.1fs", elapsed.Seconds()),
		"events":  eventCount,
	})
	return nil
}

// driftedTo looks for a same-owner id that appeared in curr exactly as id
// vanished, the usual signature of ordinal renumbering.
func driftedTo(id string, old laneState, curr, prev map[string]laneState) (string, bool) {
	for cand, st := range curr {
		if st.Owner != old.Owner {
			continue
		}
		if _, existed := prev[cand]; existed {
			continue
		}
		if model.SameBaseID(id, cand) {
			return cand, true
		}
	}
	return "", false
}
