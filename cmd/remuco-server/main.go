// ABOUTME: Entry point running the demo player adapter
// ABOUTME: Parses CLI flags, starts the adapter and optionally the test shell
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/gkfabs/remuco/internal/shell"
	"github.com/gkfabs/remuco/pkg/remuco"
)

var (
	name     = flag.String("name", "Demo", "Player name shown to clients")
	headless = flag.Bool("headless", false, "Run without the interactive test shell")
)

func main() {
	flag.Parse()

	player := shell.NewPlayer()

	adapter, err := remuco.New(*name, player, remuco.Options{
		PlaybackKnown: true,
		VolumeKnown:   true,
		RepeatKnown:   true,
		ShuffleKnown:  true,
		ProgressKnown: true,
		SearchMask:    nil,
		MimeTypes:     []string{"audio"},
		FileActions: []remuco.ItemAction{
			remuco.NewItemAction("Enqueue", true),
		},
	})
	if err != nil {
		log.Fatal("cannot create adapter", "err", err)
	}

	if err := adapter.Start(); err != nil {
		log.Fatal("cannot start adapter", "err", err)
	}
	defer adapter.Stop()

	player.Attach(adapter)

	addr := "server disabled"
	if a := adapter.Addr(); a != nil {
		addr = a.String()
	}

	if *headless {
		fmt.Printf("%s running on %s, press Ctrl-C to stop\n", *name, addr)
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		return
	}

	if err := shell.Run(player, addr); err != nil {
		log.Error("shell failed", "err", err)
	}
}
