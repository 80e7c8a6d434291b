// ABOUTME: Best-effort desktop notifications via notify-send
// ABOUTME: Failures are logged and swallowed, nothing depends on delivery
package notify

import (
	"os/exec"

	"github.com/charmbracelet/log"
)

// Show pops up a desktop notification. Missing notify-send or a failing
// display is not an error worth surfacing.
func Show(summary, body string) {
	path, err := exec.LookPath("notify-send")
	if err != nil {
		log.Debug("notify-send not available", "err", err)
		return
	}
	cmd := exec.Command(path, "--icon=phone", summary, body)
	if err := cmd.Start(); err != nil {
		log.Debug("notification failed", "err", err)
		return
	}
	go cmd.Wait()
}
