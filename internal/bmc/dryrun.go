package bmc

import (
	"context"
	"errors"
	"time"

	"github.com/metal-toolbox/hwqa/internal/model"
)

var errDryRunUnknownHost = errors.New("dryrun BMC has no state for this host")

type simulatedServer struct {
	powerStatus string
	bootTime    time.Time
}

var serverStates = make(map[string]simulatedServer)

// DryRunClient simulates a powered-on unit so the harness can run end to
// end on a development machine.
type DryRunClient struct {
	host string
}

func NewDryRunClient(host string) *DryRunClient {
	if _, ok := serverStates[host]; !ok {
		serverStates[host] = simulatedServer{
			powerStatus: model.PowerStateOn,
			bootTime:    time.Now(),
		}
	}

	return &DryRunClient{host: host}
}

func (c *DryRunClient) Open(_ context.Context) error {
	return nil
}

func (c *DryRunClient) Close(_ context.Context) error {
	return nil
}

func (c *DryRunClient) GetPowerState(_ context.Context) (string, error) {
	server, err := c.server()
	if err != nil {
		return "", err
	}

	return server.powerStatus, nil
}

func (c *DryRunClient) SetPowerState(_ context.Context, state string) error {
	server, err := c.server()
	if err != nil {
		return err
	}

	if state == model.PowerStateReset {
		// A reset lands back in the on state after the simulated boot.
		server.bootTime = time.Now().Add(30 * time.Second)
		state = model.PowerStateOn
	}

	server.powerStatus = state
	serverStates[c.host] = *server

	return nil
}

func (c *DryRunClient) PowerCycleBMC(_ context.Context) error {
	return nil
}

func (c *DryRunClient) HostBooted(_ context.Context) (bool, error) {
	server, err := c.server()
	if err != nil {
		return false, err
	}

	return server.powerStatus == model.PowerStateOn && time.Now().After(server.bootTime), nil
}

func (c *DryRunClient) server() (*simulatedServer, error) {
	state, ok := serverStates[c.host]
	if !ok {
		return nil, errDryRunUnknownHost
	}

	return &state, nil
}
