// Package testing runs a planner plugin over an in-memory net/rpc
// connection so tests exercise the same encoding the host uses.
//
//	func TestMyPlanner(t *testing.T) {
//		h := plannertest.NewHarness(t, myPlanner{})
//		reply, err := h.Preview(args)
//		require.NoError(t, err)
//	}
package testing

import (
	"testing"

	"github.com/felixgeelhaar/kinplan/pkg/plannersdk"
	"github.com/hashicorp/go-plugin"
)

// Harness dispenses a planner through go-plugin's test RPC connection.
type Harness struct {
	planner plannersdk.Planner
}

// NewHarness serves impl in-process and returns a host-side client for it.
func NewHarness(t *testing.T, impl plannersdk.Planner) *Harness {
	t.Helper()

	client, _ := plugin.TestPluginRPCConn(t, plannersdk.PluginMap(impl), nil)
	t.Cleanup(func() { client.Close() })

	raw, err := client.Dispense(plannersdk.PluginName)
	if err != nil {
		t.Fatalf("dispense planner: %v", err)
	}
	planner, ok := raw.(plannersdk.Planner)
	if !ok {
		t.Fatalf("dispensed %T, not a planner", raw)
	}
	return &Harness{planner: planner}
}

// Preview calls the plugin through RPC.
func (h *Harness) Preview(args plannersdk.PreviewArgs) (*plannersdk.PreviewReply, error) {
	return h.planner.PreviewRebalance(args)
}

// Planner returns the RPC-backed planner.
func (h *Harness) Planner() plannersdk.Planner {
	return h.planner
}
