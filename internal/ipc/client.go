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

// Capture submits a capture for storage and delivery.
func (c *Client) Capture(req CaptureRequest) (*CaptureResponse, error) {
	var resp CaptureResponse
	if err := c.client.Call("Synapse.Capture", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Drain forces a synchronous queue drain.
func (c *Client) Drain() (*DrainResponse, error) {
	var resp DrainResponse
	if err := c.client.Call("Synapse.Drain", DrainRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Synapse.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ItemList returns every captured item.
func (c *Client) ItemList() (*ItemListResponse, error) {
	var resp ItemListResponse
	if err := c.client.Call("Synapse.ItemList", ItemListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ItemShow returns details for a single item.
func (c *Client) ItemShow(id string) (*ItemShowResponse, error) {
	var resp ItemShowResponse
	if err := c.client.Call("Synapse.ItemShow", ItemShowRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ItemRemove deletes an item and its pending delivery.
func (c *Client) ItemRemove(id string) (*ItemRemoveResponse, error) {
	var resp ItemRemoveResponse
	if err := c.client.Call("Synapse.ItemRemove", ItemRemoveRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ItemRetry re-queues delivery for an item.
func (c *Client) ItemRetry(id string) (*ItemRetryResponse, error) {
	var resp ItemRetryResponse
	if err := c.client.Call("Synapse.ItemRetry", ItemRetryRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueList returns the pending outbox tasks.
func (c *Client) QueueList() (*QueueListResponse, error) {
	var resp QueueListResponse
	if err := c.client.Call("Synapse.QueueList", QueueListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueHealth returns queue diagnostics.
func (c *Client) QueueHealth() (*QueueHealthResponse, error) {
	var resp QueueHealthResponse
	if err := c.client.Call("Synapse.QueueHealth", QueueHealthRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Folders returns the remote folder hierarchy.
func (c *Client) Folders() (*FoldersResponse, error) {
	var resp FoldersResponse
	if err := c.client.Call("Synapse.Folders", FoldersRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("Synapse.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Shutdown asks the daemon to exit.
func (c *Client) Shutdown() (*ShutdownResponse, error) {
	var resp ShutdownResponse
	if err := c.client.Call("Synapse.Shutdown", ShutdownRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
