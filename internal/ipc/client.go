package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Start requests the daemon to start the engine.
func (c *Client) Start() (*StartResponse, error) {
	var resp StartResponse
	if err := c.client.Call("TidyCore.Start", StartRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to stop the engine.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("TidyCore.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("TidyCore.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Reload asks the daemon to re-read its configuration file.
func (c *Client) Reload() (*ReloadResponse, error) {
	var resp ReloadResponse
	if err := c.client.Call("TidyCore.Reload", ReloadRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DecisionList returns recent folder decisions.
func (c *Client) DecisionList(limit int) (*DecisionListResponse, error) {
	var resp DecisionListResponse
	if err := c.client.Call("TidyCore.DecisionList", DecisionListRequest{Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DecisionUndo reverses a folder move.
func (c *Client) DecisionUndo(id string) (*DecisionUndoResponse, error) {
	var resp DecisionUndoResponse
	if err := c.client.Call("TidyCore.DecisionUndo", DecisionUndoRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DecisionIgnore suppresses a decision's original location.
func (c *Client) DecisionIgnore(id string) (*DecisionIgnoreResponse, error) {
	var resp DecisionIgnoreResponse
	if err := c.client.Call("TidyCore.DecisionIgnore", DecisionIgnoreRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stats retrieves aggregate move statistics.
func (c *Client) Stats() (*StatsResponse, error) {
	var resp StatsResponse
	if err := c.client.Call("TidyCore.Stats", StatsRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Recent retrieves the latest recorded moves.
func (c *Client) Recent(limit int) (*RecentResponse, error) {
	var resp RecentResponse
	if err := c.client.Call("TidyCore.Recent", RecentRequest{Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("TidyCore.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
