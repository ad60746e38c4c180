// Package plannersdk lets a separate binary act as kinplan's rebalance
// planner. The host launches it with hashicorp/go-plugin and talks net/rpc.
//
// Example:
//
//	func main() {
//		plannersdk.Serve(myPlanner{})
//	}
package plannersdk

import (
	"errors"
	"net/rpc"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
)

// PluginName is the key the host dispenses.
const PluginName = "planner"

// HandshakeConfig must match between host and plugin.
var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "KINPLAN_PLANNER_PLUGIN",
	MagicCookieValue: "kinplan-planner-v1",
}

// Planner is implemented by plugin binaries.
type Planner interface {
	PreviewRebalance(args PreviewArgs) (*PreviewReply, error)
}

// PluginMap is the set of plugins a planner binary serves.
func PluginMap(impl Planner) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{PluginName: &PlannerPlugin{Impl: impl}}
}

// Serve runs the plugin server. Call it from main; it does not return.
func Serve(impl Planner) {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: HandshakeConfig,
		Plugins:         PluginMap(impl),
		Logger: hclog.New(&hclog.LoggerOptions{
			Name:       "planner",
			Level:      hclog.LevelFromString(os.Getenv("KINPLAN_PLANNER_LOG_LEVEL")),
			Output:     os.Stderr,
			JSONFormat: true,
		}),
	})
}

// PlannerPlugin is the plugin.Plugin for planners. Impl is only set on the
// plugin side.
type PlannerPlugin struct {
	Impl Planner
}

func (p *PlannerPlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	if p.Impl == nil {
		return nil, errors.New("planner implementation is nil")
	}
	return &RPCServer{impl: p.Impl}, nil
}

func (p *PlannerPlugin) Client(_ *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &RPCClient{client: c}, nil
}

// RPCClient is the host-side Planner that forwards calls to the plugin.
type RPCClient struct {
	client *rpc.Client
}

// PreviewRebalance implements Planner.
func (c *RPCClient) PreviewRebalance(args PreviewArgs) (*PreviewReply, error) {
	var reply PreviewReply
	if err := c.client.Call("Plugin.PreviewRebalance", args, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// RPCServer runs on the plugin side and calls the real planner.
type RPCServer struct {
	impl Planner
}

// PreviewRebalance is the net/rpc entry point.
func (s *RPCServer) PreviewRebalance(args PreviewArgs, reply *PreviewReply) error {
	out, err := s.impl.PreviewRebalance(args)
	if err != nil {
		return err
	}
	if out != nil {
		*reply = *out
	}
	return nil
}
