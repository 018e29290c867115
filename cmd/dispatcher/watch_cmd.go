package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/finenotify/finenotify/modules/notifications/domain/delivery"
	"github.com/finenotify/finenotify/pkg/configuration"
	"github.com/finenotify/finenotify/pkg/dispatch"
)

// framePrinter dumps every frame as a JSON line so the stream can be piped
// into jq or a log file.
type framePrinter struct {
	enc *json.Encoder
}

func (p *framePrinter) Apply(frame delivery.Frame) {
	_ = p.enc.Encode(frame)
}

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Tail the server's delivery status stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := configuration.Use()
			logger := conf.Logger()

			observer, err := dispatch.Connect(
				cmd.Context(),
				conf.Dispatch.ServerURL,
				&framePrinter{enc: json.NewEncoder(os.Stdout)},
				logger,
			)
			if err != nil {
				return err
			}
			defer observer.Close()
			return observer.Listen(cmd.Context())
		},
	}
	return cmd
}
