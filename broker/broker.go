// Package broker runs the embedded NATS server used for remote draft
// storage and request/reply submission when no external server is set.
package broker

import (
	"errors"
	"log/slog"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const readyTimeout = 4 * time.Second

// StartEmbedded starts an in-process NATS server with JetStream enabled and
// file storage under dataDir. The server does not listen on any port.
func StartEmbedded(dataDir string) (*server.Server, error) {
	slog.Debug("Starting embedded NATS server", "data_dir", dataDir)

	ns, err := server.NewServer(&server.Options{
		JetStream:  true,
		StoreDir:   dataDir,
		DontListen: true,
	})
	if err != nil {
		return nil, err
	}

	go ns.Start()

	if !ns.ReadyForConnections(readyTimeout) {
		ns.Shutdown()
		return nil, errors.New("nats server failed to start within timeout")
	}
	slog.Debug("NATS server ready for connections")
	return ns, nil
}

// ConnectInProcess connects to ns without going through the network.
func ConnectInProcess(ns *server.Server) (*nats.Conn, error) {
	return nats.Connect("", nats.InProcessServer(ns))
}

// Connect dials an external server at url.
func Connect(url string) (*nats.Conn, error) {
	return nats.Connect(url, nats.Name("intakewizard"))
}

func JetStream(nc *nats.Conn) (jetstream.JetStream, error) {
	return jetstream.New(nc)
}

// Shutdown drains nc and stops ns. Either may be nil.
func Shutdown(nc *nats.Conn, ns *server.Server) error {
	var drainErr error
	if nc != nil {
		done := make(chan error, 1)
		go func() { done <- nc.Drain() }()
		select {
		case drainErr = <-done:
		case <-time.After(2 * time.Second):
			slog.Warn("NATS drain timed out, closing connection")
			nc.Close()
		}
	}
	if ns != nil {
		ns.Shutdown()
		ns.WaitForShutdown()
	}
	return drainErr
}
