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

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Dubwatch.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// JobsList returns job snapshots optionally filtered by statuses.
func (c *Client) JobsList(statuses []string, activeOnly bool) (*JobsListResponse, error) {
	var resp JobsListResponse
	req := JobsListRequest{Statuses: statuses, ActiveOnly: activeOnly}
	if err := c.client.Call("Dubwatch.JobsList", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// JobDescribe returns the detail view for a single job.
func (c *Client) JobDescribe(id string) (*JobDescribeResponse, error) {
	var resp JobDescribeResponse
	if err := c.client.Call("Dubwatch.JobDescribe", JobDescribeRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// JobCreate submits a new localization job.
func (c *Client) JobCreate(req JobCreateRequest) (*JobCreateResponse, error) {
	var resp JobCreateResponse
	if err := c.client.Call("Dubwatch.JobCreate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Approve signs off one job awaiting approval.
func (c *Client) Approve(id string) (*ApproveResponse, error) {
	var resp ApproveResponse
	if err := c.client.Call("Dubwatch.Approve", ApproveRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Previews fetches the approval previews for one job.
func (c *Client) Previews(id string) (*PreviewsResponse, error) {
	var resp PreviewsResponse
	if err := c.client.Call("Dubwatch.Previews", PreviewsRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SelectionToggle flips one localization in the staging area.
func (c *Client) SelectionToggle(videoID, language string) (*SelectionToggleResponse, error) {
	var resp SelectionToggleResponse
	req := SelectionToggleRequest{Key: SelectionKey{VideoID: videoID, Language: language}}
	if err := c.client.Call("Dubwatch.SelectionToggle", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SelectionList fetches the staged localizations.
func (c *Client) SelectionList() (*SelectionListResponse, error) {
	var resp SelectionListResponse
	if err := c.client.Call("Dubwatch.SelectionList", SelectionListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SelectionClear drops everything staged.
func (c *Client) SelectionClear() (*SelectionClearResponse, error) {
	var resp SelectionClearResponse
	if err := c.client.Call("Dubwatch.SelectionClear", SelectionClearRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PublishSelection bulk-approves the staged localizations.
func (c *Client) PublishSelection() (*PublishResponse, error) {
	var resp PublishResponse
	if err := c.client.Call("Dubwatch.PublishSelection", PublishRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LogsTail reads from the daemon log file.
func (c *Client) LogsTail(req LogsTailRequest) (*LogsTailResponse, error) {
	var resp LogsTailResponse
	if err := c.client.Call("Dubwatch.LogsTail", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("Dubwatch.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
