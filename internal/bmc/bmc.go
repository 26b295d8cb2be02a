// Package bmc abstracts the out-of-band controller of the unit under
// test. The harness only needs session and power primitives: a precheck
// that the BMC answers and the host is up before any inventory is trusted.
package bmc

import (
	"context"

	bmclib "github.com/bmc-toolbox/bmclib/v2"
	logrusr "github.com/bombsimon/logrusr/v4"

	"github.com/metal-toolbox/hwqa/internal/log"
	"github.com/metal-toolbox/hwqa/internal/model"
)

// BMC abstracts calls to the remote controller.
type BMC interface {
	Open(ctx context.Context) error
	Close(ctx context.Context) error
	GetPowerState(ctx context.Context) (state string, err error)
	SetPowerState(ctx context.Context, state string) error
	PowerCycleBMC(ctx context.Context) error
	HostBooted(ctx context.Context) (bool, error)
}

// Client drives a real BMC over Redfish or IPMI, whichever the controller
// answers on.
type Client struct {
	client *bmclib.Client
}

func NewClient(host, user, pass, logLevel string) *Client {
	logger := logrusr.New(log.NewLogrusLogger(logLevel))

	return &Client{
		client: bmclib.NewClient(host, user, pass, bmclib.WithLogger(logger)),
	}
}

func (c *Client) Open(ctx context.Context) error {
	return c.client.Open(ctx)
}

func (c *Client) Close(ctx context.Context) error {
	return c.client.Close(ctx)
}

func (c *Client) GetPowerState(ctx context.Context) (string, error) {
	return c.client.GetPowerState(ctx)
}

func (c *Client) SetPowerState(ctx context.Context, state string) error {
	_, err := c.client.SetPowerState(ctx, state)
	return err
}

func (c *Client) PowerCycleBMC(ctx context.Context) error {
	_, err := c.client.ResetBMC(ctx, "GracefulRestart")
	return err
}

// HostBooted reports whether the host OS is up, judged by the power state.
func (c *Client) HostBooted(ctx context.Context) (bool, error) {
	state, err := c.client.GetPowerState(ctx)
	if err != nil {
		return false, err
	}

	return state == model.PowerStateOn, nil
}
