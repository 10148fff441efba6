package helper

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ryanuber/columnize"
	"github.com/spf13/cobra"

	"github.com/syncpoint-network/syncpoint/command"
)

// shutdownTimeout bounds the graceful shutdown after a signal
const shutdownTimeout = 5 * time.Second

// HandleSignals blocks until the process is told to stop, then calls closeFn.
// A second signal or the shutdown timeout abort the graceful shutdown
func HandleSignals(closeFn func() error, outputter command.OutputFormatter) error {
	signalCh := make(chan os.Signal, 4)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	sig := <-signalCh

	closeMessage := fmt.Sprintf("\n[SIGNAL] Caught signal: %v\n", sig)
	closeMessage += "Gracefully shutting down client...\n"

	outputter.SetCommandResult(
		&ClientCloseResult{
			Message: closeMessage,
		},
	)
	outputter.WriteOutput()

	gracefulCh := make(chan error, 1)

	go func() {
		gracefulCh <- closeFn()
	}()

	select {
	case <-signalCh:
		return fmt.Errorf("shutdown interrupted")
	case <-time.After(shutdownTimeout):
		return fmt.Errorf("shutdown timeout")
	case err := <-gracefulCh:
		return err
	}
}

// ClientCloseResult is printed when the client shuts down
type ClientCloseResult struct {
	Message string `json:"message"`
}

func (r *ClientCloseResult) GetOutput() string {
	return r.Message
}

// RegisterJSONOutputFlag registers the --json output setting for all child commands
func RegisterJSONOutputFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().Bool(
		command.JSONOutputFlag,
		false,
		"get all outputs in json format (default false)",
	)
}

// FormatList formats a list, using a specific blank value replacement
func FormatList(in []string) string {
	columnConf := columnize.DefaultConfig()
	columnConf.Empty = "<none>"

	return columnize.Format(in, columnConf)
}

// FormatKV formats key value pairs:
//
// Key = Value
//
// Key = <none>
func FormatKV(in []string) string {
	columnConf := columnize.DefaultConfig()
	columnConf.Empty = "<none>"
	columnConf.Glue = " = "

	return columnize.Format(in, columnConf)
}

const (
	LocalHostBinding     = "127.0.0.1"
	AllInterfacesBinding = "0.0.0.0"
)

// ResolveAddr resolves the passed in TCP address.
// An address without a host is bound to defaultIP
func ResolveAddr(address string, defaultIP string) (*net.TCPAddr, error) {
	addr, err := net.ResolveTCPAddr("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to parse addr '%s': %w", address, err)
	}

	if addr.IP == nil {
		addr.IP = net.ParseIP(defaultIP)
	}

	return addr, nil
}
